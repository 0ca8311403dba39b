package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fakturo/fakturo-api/internal/client/backend"
	"github.com/fakturo/fakturo-api/internal/services"
)

// PartnerHandler serves the company and partner passthrough endpoints used
// by the account and recipient pickers.
type PartnerHandler struct {
	service *services.DraftService
	logger  *zap.Logger
}

// NewPartnerHandler creates a partner handler.
func NewPartnerHandler(service *services.DraftService, logger *zap.Logger) *PartnerHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &PartnerHandler{service: service, logger: logger}
}

// CompanyView is the wire form of one issuing company.
type CompanyView struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Street             string `json:"street"`
	PostalCode         string `json:"postal_code"`
	City               string `json:"city"`
	IBAN               string `json:"iban"`
	BIC                string `json:"bic"`
	RegistrationNumber string `json:"registration_number"`
	VATPayer           bool   `json:"vat_payer"`
	VATID              string `json:"vat_id,omitempty"`
	ReverseCharge      bool   `json:"reverse_charge"`
}

// CompaniesResponse lists the caller's issuing companies.
type CompaniesResponse struct {
	Companies []CompanyView `json:"companies"`
}

// ListCompanies returns the issuing companies for the company picker.
func (h *PartnerHandler) ListCompanies(c *gin.Context) {
	companies, err := h.service.ListCompanies(c.Request.Context())
	if err != nil {
		h.logger.Error("company list failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Backend is unavailable"})
		return
	}

	resp := CompaniesResponse{Companies: make([]CompanyView, 0, len(companies))}
	for _, company := range companies {
		resp.Companies = append(resp.Companies, CompanyView{
			ID:                 company.ID,
			Name:               company.CompanyName,
			Street:             company.Street,
			PostalCode:         company.PostalCode,
			City:               company.City,
			IBAN:               company.IBAN,
			BIC:                company.BIC,
			RegistrationNumber: company.RegistrationNumber,
			VATPayer:           company.VATPayer,
			VATID:              company.VATID,
			ReverseCharge:      company.ReverseCharge,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// PartnerView is the wire form of one invoice recipient.
type PartnerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	VATLiable   bool   `json:"vat_liable"`
	TaxNumber   string `json:"tax_number,omitempty"`
	PaymentDays int    `json:"payment_days"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func partnerView(p backend.Partner) PartnerView {
	return PartnerView{
		ID:          p.ID,
		Name:        p.Name,
		Street:      p.Street,
		City:        p.City,
		PostalCode:  p.PostalCode,
		VATLiable:   p.VATLiable,
		TaxNumber:   p.TaxNumber,
		PaymentDays: p.PaymentDays,
		Email:       p.Email,
		Phone:       p.Phone,
		Notes:       p.Notes,
	}
}

// PartnersResponse lists the caller's partners.
type PartnersResponse struct {
	Partners []PartnerView `json:"partners"`
}

// ListPartners returns the partners for the recipient picker.
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	partners, err := h.service.ListPartners(c.Request.Context())
	if err != nil {
		h.logger.Error("partner list failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Backend is unavailable"})
		return
	}

	resp := PartnersResponse{Partners: make([]PartnerView, 0, len(partners))}
	for _, partner := range partners {
		resp.Partners = append(resp.Partners, partnerView(partner))
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePartnerRequest carries a new partner, typically prefilled from a
// registry search hit.
type CreatePartnerRequest struct {
	Name        string `json:"name" binding:"required"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	VATLiable   bool   `json:"vat_liable"`
	TaxNumber   string `json:"tax_number"`
	PaymentDays int    `json:"payment_days"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes"`
}

// CreatePartner persists a new partner on the backend.
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	partner, err := h.service.CreatePartner(c.Request.Context(), backend.PartnerParams{
		Name:        req.Name,
		Street:      req.Street,
		City:        req.City,
		PostalCode:  req.PostalCode,
		VATLiable:   req.VATLiable,
		TaxNumber:   req.TaxNumber,
		PaymentDays: req.PaymentDays,
		Email:       req.Email,
		Phone:       req.Phone,
		Notes:       req.Notes,
	})
	if err != nil {
		var httpErr *backend.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Backend rejected the partner"})
			return
		}
		h.logger.Error("partner create failed", zap.String("name", req.Name), zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Backend is unavailable"})
		return
	}
	c.JSON(http.StatusCreated, partnerView(partner))
}
