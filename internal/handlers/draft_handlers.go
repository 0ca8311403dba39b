package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fakturo/fakturo-api/internal/draft"
	"github.com/fakturo/fakturo-api/internal/money"
	"github.com/fakturo/fakturo-api/internal/services"
	"github.com/fakturo/fakturo-api/internal/store"
)

// DraftHandler handles the draft session endpoints.
type DraftHandler struct {
	store   *store.DraftStore
	service *services.DraftService
	logger  *zap.Logger
}

// NewDraftHandler creates a draft handler.
func NewDraftHandler(draftStore *store.DraftStore, service *services.DraftService, logger *zap.Logger) *DraftHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &DraftHandler{store: draftStore, service: service, logger: logger}
}

// LineItemView is the wire form of a confirmed line item. Monetary values
// are rendered with two decimal places.
type LineItemView struct {
	ID          int64       `json:"id"`
	Ref         *RefPayload `json:"ref,omitempty"`
	Description string      `json:"description"`
	Quantity    string      `json:"quantity"`
	Unit        string      `json:"unit,omitempty"`
	UnitPrice   string      `json:"unit_price"`
	VATRate     string      `json:"vat_rate"`
	Amount      string      `json:"amount"`
}

// TotalsView is the wire form of the recomputed totals.
type TotalsView struct {
	Subtotal  string `json:"subtotal"`
	VATAmount string `json:"vat_amount"`
	Total     string `json:"total"`
}

// StagedProductView is the wire form of a staged product.
type StagedProductView struct {
	TempID    string `json:"temp_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Unit      string `json:"unit,omitempty"`
	VATRate   string `json:"vat_rate"`
}

// DraftResponse is the full draft view returned by the session endpoints.
type DraftResponse struct {
	ID            string              `json:"id"`
	State         string              `json:"state"`
	CompanyID     string              `json:"company_id,omitempty"`
	PartnerID     string              `json:"partner_id,omitempty"`
	InvoiceNumber string              `json:"invoice_number,omitempty"`
	IssueDate     *time.Time          `json:"issue_date,omitempty"`
	ServiceDate   *time.Time          `json:"service_date,omitempty"`
	DueDate       *time.Time          `json:"due_date,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	Items         []LineItemView      `json:"items"`
	Staged        []StagedProductView `json:"staged_products"`
	Totals        TotalsView          `json:"totals"`
}

func draftResponse(d *draft.Draft) DraftResponse {
	resp := DraftResponse{
		ID:            d.ID,
		State:         d.State().String(),
		CompanyID:     d.CompanyID,
		PartnerID:     d.PartnerID,
		InvoiceNumber: d.InvoiceNumber,
		Notes:         d.Notes,
		Items:         make([]LineItemView, 0, len(d.Items)),
		Staged:        make([]StagedProductView, 0, len(d.Staged)),
	}
	if !d.IssueDate.IsZero() {
		issue := d.IssueDate
		resp.IssueDate = &issue
	}
	if !d.ServiceDate.IsZero() {
		service := d.ServiceDate
		resp.ServiceDate = &service
	}
	if !d.DueDate.IsZero() {
		due := d.DueDate
		resp.DueDate = &due
	}
	for _, item := range d.Items {
		resp.Items = append(resp.Items, LineItemView{
			ID:          item.ID,
			Ref:         refToPayload(item.Ref),
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			Unit:        item.Unit,
			UnitPrice:   money.Format(item.UnitPrice),
			VATRate:     item.VATRate.String(),
			Amount:      money.Format(item.Amount),
		})
	}
	for _, s := range d.Staged {
		resp.Staged = append(resp.Staged, StagedProductView{
			TempID:    s.TempID,
			Name:      s.Name,
			UnitPrice: money.Format(s.UnitPrice),
			Unit:      s.Unit,
			VATRate:   s.VATRate.String(),
		})
	}
	totals := d.Totals()
	resp.Totals = TotalsView{
		Subtotal:  money.Format(money.Round2(totals.Subtotal)),
		VATAmount: money.Format(money.Round2(totals.VATAmount)),
		Total:     money.Format(money.Round2(totals.Total)),
	}
	return resp
}

// CreateDraftRequest optionally selects company and partner at open time.
type CreateDraftRequest struct {
	CompanyID string `json:"company_id"`
	PartnerID string `json:"partner_id"`
}

// CreateDraft opens a new draft session.
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	var req CreateDraftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
	}

	// The number proposal is a network call; it runs before the session
	// exists so no draft lock is ever held across it.
	number := h.service.ProposeInvoiceNumber(c.Request.Context(), time.Now())

	id := h.store.Create().ID
	var resp DraftResponse
	if err := h.store.With(id, func(d *draft.Draft) error {
		now := time.Now()
		d.CompanyID = req.CompanyID
		d.PartnerID = req.PartnerID
		d.IssueDate = now
		d.ServiceDate = now
		d.InvoiceNumber = number
		resp = draftResponse(d)
		return nil
	}); err != nil {
		respondStoreError(c, err)
		return
	}

	h.logger.Info("draft session opened", zap.String("draft_id", id))
	c.JSON(http.StatusCreated, resp)
}

// GetDraft returns the draft with recomputed totals.
func (h *DraftHandler) GetDraft(c *gin.Context) {
	var resp DraftResponse
	err := h.store.With(c.Param("id"), func(d *draft.Draft) error {
		resp = draftResponse(d)
		return nil
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteDraft discards the draft session as a whole.
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	h.store.Delete(c.Param("id"))
	c.JSON(http.StatusOK, SuccessResponse{Message: "Draft discarded"})
}

// UpdateDraftRequest carries the header fields; only present fields are
// applied.
type UpdateDraftRequest struct {
	CompanyID     *string `json:"company_id"`
	PartnerID     *string `json:"partner_id"`
	InvoiceNumber *string `json:"invoice_number"`
	IssueDate     *string `json:"issue_date"`
	ServiceDate   *string `json:"service_date"`
	DueDate       *string `json:"due_date"`
	Notes         *string `json:"notes"`
}

// UpdateDraft sets draft header fields.
func (h *DraftHandler) UpdateDraft(c *gin.Context) {
	var req UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	var resp DraftResponse
	err := h.store.With(c.Param("id"), func(d *draft.Draft) error {
		if d.State() == draft.StateSubmitting {
			return draft.ErrSubmitInFlight
		}
		if req.CompanyID != nil {
			d.CompanyID = *req.CompanyID
		}
		if req.PartnerID != nil {
			d.PartnerID = *req.PartnerID
		}
		if req.InvoiceNumber != nil {
			d.InvoiceNumber = *req.InvoiceNumber
		}
		if err := applyDate(req.IssueDate, &d.IssueDate); err != nil {
			return err
		}
		if err := applyDate(req.ServiceDate, &d.ServiceDate); err != nil {
			return err
		}
		if err := applyDate(req.DueDate, &d.DueDate); err != nil {
			return err
		}
		if req.Notes != nil {
			d.Notes = *req.Notes
		}
		resp = draftResponse(d)
		return nil
	})
	if err != nil {
		h.respondDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

var errBadDate = errors.New("invalid date format")

func applyDate(s *string, target *time.Time) error {
	if s == nil {
		return nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return errBadDate
	}
	*target = t
	return nil
}

// AddItemRequest carries a line item candidate. Quantity and unit price are
// decimals; absent means unset, which AddItem rejects.
type AddItemRequest struct {
	Ref         *RefPayload      `json:"ref"`
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Unit        string           `json:"unit"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	VATRate     *decimal.Decimal `json:"vat_rate"`
}

// AddItem confirms the candidate as a line item. Request fields merge into
// the item input, so a preceding product selection fills whatever the
// payload leaves out. Invalid input leaves the draft, the input included,
// unchanged and surfaces inline.
func (h *DraftHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	var resp DraftResponse
	err := h.store.With(c.Param("id"), func(d *draft.Draft) error {
		if d.State() == draft.StateSubmitting {
			return draft.ErrSubmitInFlight
		}
		prev := d.Input
		if req.Ref != nil {
			d.Input.Ref = refFromPayload(req.Ref)
		}
		if req.Description != "" {
			d.Input.Description = req.Description
		}
		if req.Quantity != nil {
			d.Input.Quantity = req.Quantity
		}
		if req.Unit != "" {
			d.Input.Unit = req.Unit
		}
		if req.UnitPrice != nil {
			d.Input.UnitPrice = req.UnitPrice
		}
		if req.VATRate != nil {
			d.Input.VATRate = *req.VATRate
		}
		if _, err := d.AddItem(); err != nil {
			d.Input = prev
			return err
		}
		resp = draftResponse(d)
		return nil
	})
	if err != nil {
		h.respondDraftError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RemoveItem removes a line item; removing an absent id is a no-op.
func (h *DraftHandler) RemoveItem(c *gin.Context) {
	itemID, ok := parseItemID(c.Param("itemID"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid item id"})
		return
	}

	var resp DraftResponse
	err := h.store.With(c.Param("id"), func(d *draft.Draft) error {
		if d.State() == draft.StateSubmitting {
			return draft.ErrSubmitInFlight
		}
		d.RemoveItem(itemID)
		resp = draftResponse(d)
		return nil
	})
	if err != nil {
		h.respondDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// respondDraftError maps builder errors onto HTTP statuses with inline
// messages.
func (h *DraftHandler) respondDraftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Draft not found"})
	case errors.Is(err, draft.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "A submission is in progress for this draft"})
	case errors.Is(err, draft.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Draft has already been submitted"})
	case errors.Is(err, draft.ErrEmptyDescription),
		errors.Is(err, draft.ErrNonPositiveQuantity),
		errors.Is(err, draft.ErrMissingUnitPrice),
		errors.Is(err, draft.ErrNegativeUnitPrice),
		errors.Is(err, draft.ErrInvalidVATRate),
		errors.Is(err, draft.ErrUnknownStagedProduct),
		errors.Is(err, draft.ErrEmptyProductName),
		errors.Is(err, draft.ErrProductExists),
		errors.Is(err, errBadDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("draft operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func parseItemID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
