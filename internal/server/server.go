// Package server wires the HTTP surface: router construction, CORS for the
// browser front end, request logging and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fakturo/fakturo-api/internal/config"
	"github.com/fakturo/fakturo-api/internal/handlers"
	"github.com/fakturo/fakturo-api/internal/services"
	"github.com/fakturo/fakturo-api/internal/store"
)

// Server is the gateway HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New builds the router and wraps it in an http.Server ready to listen.
func New(cfg *config.Config, draftStore *store.DraftStore, service *services.DraftService, logger *zap.Logger) *Server {
	if cfg.Env == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(configureCORS(cfg.AllowedOrigins))

	registerRoutes(router, cfg, draftStore, service, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
		},
		logger: logger,
	}
}

func registerRoutes(router *gin.Engine, cfg *config.Config, draftStore *store.DraftStore, service *services.DraftService, logger *zap.Logger) {
	healthHandler := handlers.NewHealthHandler()
	draftHandler := handlers.NewDraftHandler(draftStore, service, logger)
	productHandler := handlers.NewProductHandler(draftStore, service, cfg.SearchDebounce, logger)
	invoiceHandler := handlers.NewInvoiceHandler(draftStore, service, logger)
	partnerHandler := handlers.NewPartnerHandler(service, logger)

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		drafts := v1.Group("/drafts")
		{
			drafts.POST("", draftHandler.CreateDraft)
			drafts.GET("/:id", draftHandler.GetDraft)
			drafts.PATCH("/:id", draftHandler.UpdateDraft)
			drafts.DELETE("/:id", productHandler.Forget, draftHandler.DeleteDraft)

			drafts.POST("/:id/items", draftHandler.AddItem)
			drafts.DELETE("/:id/items/:itemID", draftHandler.RemoveItem)

			drafts.GET("/:id/products", productHandler.SearchProducts)
			drafts.POST("/:id/products", productHandler.StageProduct)
			drafts.POST("/:id/select", productHandler.SelectProduct)

			drafts.POST("/:id/submit", invoiceHandler.Submit)
		}

		v1.GET("/invoices/next-number", invoiceHandler.NextInvoiceNumber)
		v1.GET("/invoices/:id", invoiceHandler.GetInvoice)
		v1.GET("/registry/search", invoiceHandler.SearchRegistry)

		v1.GET("/companies", partnerHandler.ListCompanies)
		v1.GET("/partners", partnerHandler.ListPartners)
		v1.POST("/partners", partnerHandler.CreatePartner)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until the context is canceled, then drains in-flight
// requests for up to the given grace period.
func (s *Server) Start(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server.Start: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Start: shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func configureCORS(allowedOrigins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	return cors.New(corsConfig)
}
