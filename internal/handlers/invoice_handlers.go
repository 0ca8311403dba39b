package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fakturo/fakturo-api/internal/client/backend"
	"github.com/fakturo/fakturo-api/internal/draft"
	"github.com/fakturo/fakturo-api/internal/services"
	"github.com/fakturo/fakturo-api/internal/store"
)

// InvoiceHandler serves draft submission, advisory invoice numbering and the
// business-registry passthrough.
type InvoiceHandler struct {
	store   *store.DraftStore
	service *services.DraftService
	logger  *zap.Logger
}

// NewInvoiceHandler creates an invoice handler.
func NewInvoiceHandler(draftStore *store.DraftStore, service *services.DraftService, logger *zap.Logger) *InvoiceHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &InvoiceHandler{store: draftStore, service: service, logger: logger}
}

// SubmitWarning reports one staged product that could not be saved and the
// line items dropped with it. The invoice itself was still created.
type SubmitWarning struct {
	TempID       string   `json:"temp_id"`
	ProductName  string   `json:"product_name"`
	ItemIDs      []int64  `json:"item_ids"`
	Descriptions []string `json:"descriptions"`
	Message      string   `json:"message"`
}

// SubmitResponse is the outcome of a successful submission.
type SubmitResponse struct {
	Invoice  backend.Invoice `json:"invoice"`
	Warnings []SubmitWarning `json:"warnings"`
}

func submitWarnings(warnings []*services.StagedProductPersistError) []SubmitWarning {
	out := make([]SubmitWarning, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, SubmitWarning{
			TempID:       w.TempID,
			ProductName:  w.ProductName,
			ItemIDs:      w.ItemIDs,
			Descriptions: w.Descriptions,
			Message:      w.Error(),
		})
	}
	return out
}

// Submit finalizes the draft against the backend. The draft is moved into
// Submitting under its lock, the network phase runs outside it, and the
// outcome settles the state: success leaves the draft Submitted, an invoice
// persist failure returns it to Building with nothing lost.
func (h *InvoiceHandler) Submit(c *gin.Context) {
	draftID := c.Param("id")

	var d *draft.Draft
	err := h.store.With(draftID, func(sd *draft.Draft) error {
		if err := services.Begin(sd); err != nil {
			return err
		}
		d = sd
		return nil
	})
	if err != nil {
		h.respondSubmitError(c, err)
		return
	}

	result, submitErr := h.service.Finalize(c.Request.Context(), d)

	if err := h.store.With(draftID, func(sd *draft.Draft) error {
		sd.FinishSubmit(submitErr == nil)
		return nil
	}); err != nil {
		// The session was discarded while the submission was in flight; the
		// invoice outcome still stands.
		h.logger.Warn("draft session gone after submission",
			zap.String("draft_id", draftID),
			zap.Error(err))
	}

	if submitErr != nil {
		h.respondSubmitError(c, submitErr)
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{
		Invoice:  result.Invoice,
		Warnings: submitWarnings(result.Warnings),
	})
}

func (h *InvoiceHandler) respondSubmitError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var persistErr *services.InvoicePersistError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Draft not found"})
	case errors.Is(err, draft.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "A submission is in progress for this draft"})
	case errors.Is(err, draft.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Draft has already been submitted"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Error()})
	case errors.As(err, &persistErr):
		if errors.Is(err, services.ErrNoResolvableItems) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: persistErr.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Invoice could not be saved; the draft was kept"})
	default:
		h.logger.Error("submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// GetInvoice returns one persisted invoice with its lines, for the
// read-only invoice view.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	invoice, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		var httpErr *backend.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Invoice not found"})
			return
		}
		h.logger.Error("invoice fetch failed", zap.String("invoice_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Backend is unavailable"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// NextNumberResponse carries the advisory invoice number proposal.
type NextNumberResponse struct {
	InvoiceNumber string `json:"invoice_number"`
}

// NextInvoiceNumber proposes the next free invoice number for the current
// year. Advisory only; the caller may overwrite it.
func (h *InvoiceHandler) NextInvoiceNumber(c *gin.Context) {
	number := h.service.ProposeInvoiceNumber(c.Request.Context(), time.Now())
	c.JSON(http.StatusOK, NextNumberResponse{InvoiceNumber: number})
}

// RegistryEntryView is the wire form of one business-registry hit.
type RegistryEntryView struct {
	Name               string `json:"name"`
	Street             string `json:"street"`
	City               string `json:"city"`
	PostalCode         string `json:"postal_code"`
	RegistrationNumber string `json:"registration_number"`
	TaxNumber          string `json:"tax_number"`
}

// RegistrySearchResponse lists registry entries matching the query.
type RegistrySearchResponse struct {
	Query   string              `json:"query"`
	Results []RegistryEntryView `json:"results"`
}

// SearchRegistry proxies the public business-registry lookup used to
// prefill partner details.
func (h *InvoiceHandler) SearchRegistry(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Query parameter q is required"})
		return
	}

	entries, err := h.service.SearchRegistry(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("registry search failed",
			zap.String("query", query),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Business registry is unavailable"})
		return
	}

	resp := RegistrySearchResponse{
		Query:   query,
		Results: make([]RegistryEntryView, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Results = append(resp.Results, RegistryEntryView{
			Name:               e.Name,
			Street:             e.Street,
			City:               e.City,
			PostalCode:         e.PostalCode,
			RegistrationNumber: e.RegistrationNumber,
			TaxNumber:          e.TaxNumber,
		})
	}
	c.JSON(http.StatusOK, resp)
}
