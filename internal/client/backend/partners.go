package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ListCompanies returns the caller's issuing companies.
func (c *Client) ListCompanies(ctx context.Context) ([]Company, error) {
	resp, err := c.http.Get(ctx, "/companies")
	if err != nil {
		c.logger.Error("failed to list companies", zap.Error(err))
		return nil, fmt.Errorf("backend.ListCompanies: failed to list companies: %w", err)
	}

	var companies []Company
	if err := c.http.ProcessJSONResponse(resp, &companies); err != nil {
		return nil, fmt.Errorf("backend.ListCompanies: failed to decode companies: %w", err)
	}
	return companies, nil
}

// ListPartners returns the caller's partners.
func (c *Client) ListPartners(ctx context.Context) ([]Partner, error) {
	resp, err := c.http.Get(ctx, "/partners")
	if err != nil {
		c.logger.Error("failed to list partners", zap.Error(err))
		return nil, fmt.Errorf("backend.ListPartners: failed to list partners: %w", err)
	}

	var partners []Partner
	if err := c.http.ProcessJSONResponse(resp, &partners); err != nil {
		return nil, fmt.Errorf("backend.ListPartners: failed to decode partners: %w", err)
	}
	return partners, nil
}

// CreatePartner persists a new partner.
func (c *Client) CreatePartner(ctx context.Context, params PartnerParams) (Partner, error) {
	c.logger.Info("creating backend partner", zap.String("name", params.Name))

	resp, err := c.http.Post(ctx, "/partners", params)
	if err != nil {
		c.logger.Error("failed to create partner", zap.String("name", params.Name), zap.Error(err))
		return Partner{}, fmt.Errorf("backend.CreatePartner: failed to create partner %q: %w", params.Name, err)
	}

	var partner Partner
	if err := c.http.ProcessJSONResponse(resp, &partner); err != nil {
		return Partner{}, fmt.Errorf("backend.CreatePartner: failed to decode partner: %w", err)
	}
	return partner, nil
}

// SearchRegistry queries the external company registry by free text. The
// result is advisory only; it prefills the partner form and is never required
// for draft correctness.
func (c *Client) SearchRegistry(ctx context.Context, query string) ([]RegistryEntry, error) {
	resp, err := c.http.Get(ctx, "/companies/search/cebelca", WithQueryParam("q", query))
	if err != nil {
		c.logger.Warn("registry search failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("backend.SearchRegistry: search for %q failed: %w", query, err)
	}

	var entries []RegistryEntry
	if err := c.http.ProcessJSONResponse(resp, &entries); err != nil {
		return nil, fmt.Errorf("backend.SearchRegistry: failed to decode entries: %w", err)
	}
	return entries, nil
}
