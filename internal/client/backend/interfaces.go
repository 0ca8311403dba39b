package backend

import (
	"context"

	"go.uber.org/zap"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/backend_mock.go -package=mocks

// API is the backend contract consumed by the gateway's services. The
// concrete implementation is Client; tests use the generated mock.
type API interface {
	ListProducts(ctx context.Context, companyID string) ([]Product, error)
	CreateProduct(ctx context.Context, companyID string, params ProductParams) (Product, error)
	ListInvoices(ctx context.Context) ([]InvoiceSummary, error)
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	CreateInvoice(ctx context.Context, params InvoiceCreateParams) (Invoice, error)
	UpdateInvoice(ctx context.Context, id string, params InvoiceUpdateParams) (Invoice, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	ListPartners(ctx context.Context) ([]Partner, error)
	CreatePartner(ctx context.Context, params PartnerParams) (Partner, error)
	SearchRegistry(ctx context.Context, query string) ([]RegistryEntry, error)
}

// Client implements API against the real backend over HTTP.
type Client struct {
	http   *HTTPClient
	logger *zap.Logger
}

var _ API = (*Client)(nil)

// NewClient creates a backend client for the given base URL.
func NewClient(http *HTTPClient, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.L()
	}
	return &Client{http: http, logger: logger}
}
