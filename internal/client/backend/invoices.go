package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ListInvoices returns all invoice summaries visible to the caller.
func (c *Client) ListInvoices(ctx context.Context) ([]InvoiceSummary, error) {
	resp, err := c.http.Get(ctx, "/invoices")
	if err != nil {
		c.logger.Error("failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("backend.ListInvoices: failed to list invoices: %w", err)
	}

	var invoices []InvoiceSummary
	if err := c.http.ProcessJSONResponse(resp, &invoices); err != nil {
		return nil, fmt.Errorf("backend.ListInvoices: failed to decode invoices: %w", err)
	}
	return invoices, nil
}

// GetInvoice returns one invoice with its lines.
func (c *Client) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	resp, err := c.http.Get(ctx, fmt.Sprintf("/invoices/%s", id))
	if err != nil {
		c.logger.Error("failed to get invoice", zap.String("invoice_id", id), zap.Error(err))
		return Invoice{}, fmt.Errorf("backend.GetInvoice: failed to get invoice %s: %w", id, err)
	}

	var invoice Invoice
	if err := c.http.ProcessJSONResponse(resp, &invoice); err != nil {
		return Invoice{}, fmt.Errorf("backend.GetInvoice: failed to decode invoice: %w", err)
	}
	return invoice, nil
}

// CreateInvoice persists a new invoice.
func (c *Client) CreateInvoice(ctx context.Context, params InvoiceCreateParams) (Invoice, error) {
	c.logger.Info("creating backend invoice",
		zap.String("company_id", params.CompanyID),
		zap.String("invoice_number", params.InvoiceNumber),
		zap.Int("lines", len(params.Lines)))

	resp, err := c.http.Post(ctx, "/invoices", params)
	if err != nil {
		c.logger.Error("failed to create invoice",
			zap.String("invoice_number", params.InvoiceNumber),
			zap.Error(err))
		return Invoice{}, fmt.Errorf("backend.CreateInvoice: failed to create invoice %s: %w", params.InvoiceNumber, err)
	}

	var invoice Invoice
	if err := c.http.ProcessJSONResponse(resp, &invoice); err != nil {
		return Invoice{}, fmt.Errorf("backend.CreateInvoice: failed to decode invoice: %w", err)
	}

	c.logger.Info("created backend invoice", zap.String("invoice_id", invoice.ID))
	return invoice, nil
}

// UpdateInvoice partially updates an invoice; only fields present in params
// are sent.
func (c *Client) UpdateInvoice(ctx context.Context, id string, params InvoiceUpdateParams) (Invoice, error) {
	c.logger.Info("updating backend invoice", zap.String("invoice_id", id))

	resp, err := c.http.Put(ctx, fmt.Sprintf("/invoices/%s", id), params)
	if err != nil {
		c.logger.Error("failed to update invoice", zap.String("invoice_id", id), zap.Error(err))
		return Invoice{}, fmt.Errorf("backend.UpdateInvoice: failed to update invoice %s: %w", id, err)
	}

	var invoice Invoice
	if err := c.http.ProcessJSONResponse(resp, &invoice); err != nil {
		return Invoice{}, fmt.Errorf("backend.UpdateInvoice: failed to decode invoice: %w", err)
	}
	return invoice, nil
}
