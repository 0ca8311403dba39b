package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fakturo/fakturo-api/internal/draft"
	"github.com/fakturo/fakturo-api/internal/money"
	"github.com/fakturo/fakturo-api/internal/search"
	"github.com/fakturo/fakturo-api/internal/services"
	"github.com/fakturo/fakturo-api/internal/store"
)

// ProductHandler serves the product search, staging and selection endpoints
// of a draft session. Searches go through a per-draft debouncer so a burst
// of keystrokes collapses into one backend lookup for the newest query.
type ProductHandler struct {
	store    *store.DraftStore
	service  *services.DraftService
	logger   *zap.Logger
	debounce time.Duration

	debouncers sync.Map // draft id -> *search.Debouncer[searchResult]
}

type searchResult struct {
	products  []draft.CatalogProduct
	canCreate bool
	warning   string
}

// NewProductHandler creates a product handler. A non-positive debounce falls
// back to the search package default.
func NewProductHandler(draftStore *store.DraftStore, service *services.DraftService, debounce time.Duration, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &ProductHandler{
		store:    draftStore,
		service:  service,
		logger:   logger,
		debounce: debounce,
	}
}

// ProductView is the wire form of one search result.
type ProductView struct {
	Ref       *RefPayload `json:"ref"`
	Name      string      `json:"name"`
	UnitPrice string      `json:"unit_price"`
	Unit      string      `json:"unit,omitempty"`
	VATRate   string      `json:"vat_rate"`
	Staged    bool        `json:"staged"`
}

func productView(p draft.CatalogProduct) ProductView {
	return ProductView{
		Ref:       refToPayload(p.Ref),
		Name:      p.Name,
		UnitPrice: money.Format(p.UnitPrice),
		Unit:      p.Unit,
		VATRate:   p.VATRate.String(),
		Staged:    p.Staged,
	}
}

// SearchResponse is the settled result of a product search. Superseded is
// set when a newer query arrived before this one could be answered; such a
// response carries no results and must be ignored by the caller.
type SearchResponse struct {
	Query      string        `json:"query"`
	Results    []ProductView `json:"results"`
	CanCreate  bool          `json:"can_create"`
	Superseded bool          `json:"superseded,omitempty"`
	Warning    string        `json:"warning,omitempty"`
}

// SearchProducts looks up the filtered catalog-plus-staged view for the
// query. The lookup is debounced per draft and a stale response is never
// delivered over a newer one. A backend failure degrades to staged-only
// results with a warning instead of failing the request.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	draftID := c.Param("id")
	if !h.store.Exists(draftID) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Draft not found"})
		return
	}

	outcome, delivered := h.debouncerFor(draftID).Do(c.Request.Context(), c.Query("q"))
	if !delivered {
		c.JSON(http.StatusOK, SearchResponse{
			Query:      outcome.Query,
			Results:    []ProductView{},
			Superseded: true,
		})
		return
	}
	if outcome.Err != nil {
		if errors.Is(outcome.Err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Draft not found"})
			return
		}
		h.logger.Error("product search failed",
			zap.String("draft_id", draftID),
			zap.String("query", outcome.Query),
			zap.Error(outcome.Err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	resp := SearchResponse{
		Query:     outcome.Query,
		Results:   make([]ProductView, 0, len(outcome.Result.products)),
		CanCreate: outcome.Result.canCreate,
		Warning:   outcome.Result.warning,
	}
	for _, p := range outcome.Result.products {
		resp.Results = append(resp.Results, productView(p))
	}
	c.JSON(http.StatusOK, resp)
}

// debouncerFor returns the draft's debouncer, creating it on first use. The
// lookup snapshots the draft under its session lock and runs the backend
// call outside it.
func (h *ProductHandler) debouncerFor(draftID string) *search.Debouncer[searchResult] {
	if d, ok := h.debouncers.Load(draftID); ok {
		return d.(*search.Debouncer[searchResult])
	}

	lookup := func(ctx context.Context, query string) (searchResult, error) {
		var companyID string
		var staged []draft.StagedProduct
		if err := h.store.With(draftID, func(d *draft.Draft) error {
			companyID = d.CompanyID
			staged = append([]draft.StagedProduct(nil), d.Staged...)
			return nil
		}); err != nil {
			return searchResult{}, err
		}

		products, canCreate, err := h.service.SearchProducts(ctx, companyID, staged, query)
		result := searchResult{products: products, canCreate: canCreate}
		if err != nil {
			var searchErr *services.SearchError
			if !errors.As(err, &searchErr) {
				return searchResult{}, err
			}
			result.warning = "Product catalog is unavailable; showing products staged in this draft only"
		}
		return result, nil
	}

	d, _ := h.debouncers.LoadOrStore(draftID, search.NewDebouncer(h.debounce, lookup, h.logger))
	return d.(*search.Debouncer[searchResult])
}

// Forget drops the draft's debouncer. Chained in front of the draft delete
// handler so discarded sessions do not accumulate schedulers.
func (h *ProductHandler) Forget(c *gin.Context) {
	h.debouncers.Delete(c.Param("id"))
}

// StageProductRequest carries a product to stage locally in the draft.
type StageProductRequest struct {
	Name      string           `json:"name" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price" binding:"required"`
	Unit      string           `json:"unit"`
	VATRate   *decimal.Decimal `json:"vat_rate"`
}

// StageProductResponse returns the staged product alongside the draft view.
type StageProductResponse struct {
	Staged StagedProductView `json:"staged"`
	Draft  DraftResponse     `json:"draft"`
}

// StageProduct creates a draft-local product with a temporary id. The
// company catalog is fetched before the session lock is taken so the
// duplicate-name check covers persisted products too; an unreachable
// catalog degrades to checking staged names only.
func (h *ProductHandler) StageProduct(c *gin.Context) {
	var req StageProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	vatRate := draft.DefaultVATRate
	if req.VATRate != nil {
		vatRate = *req.VATRate
	}

	catalog, err := h.service.CompanyCatalog(c.Request.Context(), h.companyID(c.Param("id")))
	if err != nil {
		h.logger.Warn("staging without catalog duplicate check",
			zap.String("draft_id", c.Param("id")),
			zap.Error(err))
		catalog = nil
	}

	var resp StageProductResponse
	err = h.store.With(c.Param("id"), func(d *draft.Draft) error {
		if d.State() == draft.StateSubmitting {
			return draft.ErrSubmitInFlight
		}
		staged, err := d.StageProduct(req.Name, *req.UnitPrice, req.Unit, vatRate, catalog)
		if err != nil {
			return err
		}
		resp = StageProductResponse{
			Staged: StagedProductView{
				TempID:    staged.TempID,
				Name:      staged.Name,
				UnitPrice: money.Format(staged.UnitPrice),
				Unit:      staged.Unit,
				VATRate:   staged.VATRate.String(),
			},
			Draft: draftResponse(d),
		}
		return nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SelectProductRequest names the product to load into the item input.
type SelectProductRequest struct {
	Ref RefPayload `json:"ref" binding:"required"`
}

// ItemInputView is the wire form of the prefilled item input.
type ItemInputView struct {
	Ref         *RefPayload `json:"ref,omitempty"`
	Description string      `json:"description"`
	Unit        string      `json:"unit,omitempty"`
	UnitPrice   string      `json:"unit_price,omitempty"`
	VATRate     string      `json:"vat_rate"`
}

// SelectProduct prefills the item input from a catalog or staged product.
// A staged reference resolves within the draft; a persisted one against the
// company catalog.
func (h *ProductHandler) SelectProduct(c *gin.Context) {
	var req SelectProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	ref := refFromPayload(&req.Ref)
	if ref.IsZero() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid product reference"})
		return
	}

	var persisted *draft.CatalogProduct
	if id, ok := ref.PersistedID(); ok {
		catalog, err := h.service.CompanyCatalog(c.Request.Context(), h.companyID(c.Param("id")))
		if err != nil {
			h.logger.Error("catalog lookup for product selection failed",
				zap.String("draft_id", c.Param("id")),
				zap.Error(err))
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Product catalog is unavailable"})
			return
		}
		for _, p := range catalog {
			if pid, ok := p.Ref.PersistedID(); ok && pid == id {
				product := p
				persisted = &product
				break
			}
		}
		if persisted == nil {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Product not found"})
			return
		}
	}

	var resp ItemInputView
	err := h.store.With(c.Param("id"), func(d *draft.Draft) error {
		if d.State() == draft.StateSubmitting {
			return draft.ErrSubmitInFlight
		}

		product := persisted
		if tempID, ok := ref.StagedID(); ok {
			staged, found := d.StagedByID(tempID)
			if !found {
				return draft.ErrUnknownStagedProduct
			}
			catalog := staged.Catalog()
			product = &catalog
		}
		if product == nil {
			return draft.ErrUnknownStagedProduct
		}

		d.SelectProduct(*product)
		resp = ItemInputView{
			Ref:         refToPayload(d.Input.Ref),
			Description: d.Input.Description,
			Unit:        d.Input.Unit,
			VATRate:     d.Input.VATRate.String(),
		}
		if d.Input.UnitPrice != nil {
			resp.UnitPrice = money.Format(*d.Input.UnitPrice)
		}
		return nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// companyID reads the draft's company without holding the lock across any
// network call.
func (h *ProductHandler) companyID(draftID string) string {
	var companyID string
	_ = h.store.With(draftID, func(d *draft.Draft) error {
		companyID = d.CompanyID
		return nil
	})
	return companyID
}

func (h *ProductHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Draft not found"})
	case errors.Is(err, draft.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "A submission is in progress for this draft"})
	case errors.Is(err, draft.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Draft has already been submitted"})
	case errors.Is(err, draft.ErrEmptyProductName),
		errors.Is(err, draft.ErrProductExists),
		errors.Is(err, draft.ErrUnknownStagedProduct):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("product operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
