package backend

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the backend catalog entry. The backend is observed returning
// cost and ddvPercentage both as JSON numbers and as strings; decimal.Decimal
// decodes either form.
type Product struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"companyId"`
	Name          string          `json:"name"`
	Cost          decimal.Decimal `json:"cost"`
	MeasuringUnit string          `json:"measuringUnit"`
	DDVPercentage decimal.Decimal `json:"ddvPercentage"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt,omitempty"`
}

// ProductParams is the create/update payload for a catalog product.
type ProductParams struct {
	Name          string          `json:"name"`
	Cost          decimal.Decimal `json:"cost"`
	MeasuringUnit string          `json:"measuringUnit"`
	DDVPercentage decimal.Decimal `json:"ddvPercentage"`
}

// Company is the issuer side of an invoice.
type Company struct {
	ID                 string `json:"id"`
	CompanyName        string `json:"companyName"`
	Street             string `json:"street"`
	PostalCode         string `json:"postalCode"`
	City               string `json:"city"`
	IBAN               string `json:"iban"`
	BIC                string `json:"bic"`
	RegistrationNumber string `json:"registrationNumber"`
	VATPayer           bool   `json:"vatPayer"`
	VATID              string `json:"vatId,omitempty"`
	ReverseCharge      bool   `json:"reverseCharge"`
}

// Partner is the recipient side of an invoice.
type Partner struct {
	ID          string `json:"id"`
	Name        string `json:"naziv"`
	Street      string `json:"ulica"`
	City        string `json:"kraj"`
	PostalCode  string `json:"postnaSt"`
	VATLiable   bool   `json:"ddvZavezanec"`
	TaxNumber   string `json:"davcnaSt,omitempty"`
	PaymentDays int    `json:"rokPlacila"`
	Email       string `json:"ePosta,omitempty"`
	Phone       string `json:"telefon,omitempty"`
	Notes       string `json:"opombe,omitempty"`
}

// PartnerParams is the create payload for a partner.
type PartnerParams struct {
	Name        string `json:"naziv"`
	Street      string `json:"ulica"`
	City        string `json:"kraj"`
	PostalCode  string `json:"postnaSt"`
	VATLiable   bool   `json:"ddvZavezanec"`
	TaxNumber   string `json:"davcnaSt,omitempty"`
	PaymentDays int    `json:"rokPlacila"`
	Email       string `json:"ePosta,omitempty"`
	Phone       string `json:"telefon,omitempty"`
	Notes       string `json:"opombe,omitempty"`
}

// InvoiceLine is one line on a persisted invoice. Amount denotes quantity on
// the wire, not money.
type InvoiceLine struct {
	ID        string          `json:"id,omitempty"`
	ProductID string          `json:"product_id"`
	Amount    decimal.Decimal `json:"amount"`
	Product   *Product        `json:"product,omitempty"`
}

// InvoiceSummary is the list-view shape returned by GET /invoices.
type InvoiceSummary struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	PartnerID     string    `json:"partner_id"`
	InvoiceNumber string    `json:"invoice_number"`
	IssueDate     time.Time `json:"issue_date"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
}

// Invoice is the full persisted invoice.
type Invoice struct {
	ID            string        `json:"id"`
	CompanyID     string        `json:"company_id"`
	PartnerID     string        `json:"partner_id"`
	InvoiceNumber string        `json:"invoice_number"`
	IssueDate     time.Time     `json:"issue_date"`
	ServiceDate   time.Time     `json:"service_date"`
	DueDate       time.Time     `json:"due_date"`
	Notes         string        `json:"notes,omitempty"`
	Status        string        `json:"status"`
	Lines         []InvoiceLine `json:"lines"`
	Company       *Company      `json:"company,omitempty"`
	Partner       *Partner      `json:"partner,omitempty"`
}

// InvoiceLineParams is one line of an invoice create/update payload.
type InvoiceLineParams struct {
	ProductID string          `json:"product_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// InvoiceCreateParams is the POST /invoices payload. Dates go out as full
// timestamps.
type InvoiceCreateParams struct {
	CompanyID     string              `json:"company_id"`
	PartnerID     string              `json:"partner_id"`
	InvoiceNumber string              `json:"invoice_number"`
	IssueDate     time.Time           `json:"issue_date"`
	ServiceDate   time.Time           `json:"service_date"`
	DueDate       time.Time           `json:"due_date"`
	Notes         string              `json:"notes,omitempty"`
	Lines         []InvoiceLineParams `json:"lines"`
}

// InvoiceUpdateParams is the PUT /invoices/{id} payload. Only fields that are
// present are sent; the backend treats it as a partial update.
type InvoiceUpdateParams struct {
	CompanyID     *string             `json:"company_id,omitempty"`
	PartnerID     *string             `json:"partner_id,omitempty"`
	InvoiceNumber *string             `json:"invoice_number,omitempty"`
	IssueDate     *time.Time          `json:"issue_date,omitempty"`
	ServiceDate   *time.Time          `json:"service_date,omitempty"`
	DueDate       *time.Time          `json:"due_date,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	Status        *string             `json:"status,omitempty"`
	Lines         []InvoiceLineParams `json:"lines,omitempty"`
}

// RegistryEntry is a candidate organization from the free-text company
// registry search, used to prefill the partner form.
type RegistryEntry struct {
	Name               string `json:"name"`
	Street             string `json:"street"`
	City               string `json:"city"`
	PostalCode         string `json:"postalCode"`
	RegistrationNumber string `json:"registrationNumber"`
	TaxNumber          string `json:"taxNumber"`
}
