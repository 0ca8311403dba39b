package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ListProducts returns the catalog products of the given company.
func (c *Client) ListProducts(ctx context.Context, companyID string) ([]Product, error) {
	resp, err := c.http.Get(ctx, fmt.Sprintf("/companies/%s/products", companyID))
	if err != nil {
		c.logger.Error("failed to list products",
			zap.String("company_id", companyID),
			zap.Error(err))
		return nil, fmt.Errorf("backend.ListProducts: failed to list products for company %s: %w", companyID, err)
	}

	var products []Product
	if err := c.http.ProcessJSONResponse(resp, &products); err != nil {
		return nil, fmt.Errorf("backend.ListProducts: failed to decode products: %w", err)
	}
	return products, nil
}

// CreateProduct persists a new catalog product for the company and returns
// it with its real id.
func (c *Client) CreateProduct(ctx context.Context, companyID string, params ProductParams) (Product, error) {
	c.logger.Info("creating backend product",
		zap.String("company_id", companyID),
		zap.String("name", params.Name))

	resp, err := c.http.Post(ctx, fmt.Sprintf("/companies/%s/products", companyID), params)
	if err != nil {
		c.logger.Error("failed to create product",
			zap.String("company_id", companyID),
			zap.String("name", params.Name),
			zap.Error(err))
		return Product{}, fmt.Errorf("backend.CreateProduct: failed to create product %q: %w", params.Name, err)
	}

	var product Product
	if err := c.http.ProcessJSONResponse(resp, &product); err != nil {
		return Product{}, fmt.Errorf("backend.CreateProduct: failed to decode product: %w", err)
	}

	c.logger.Info("created backend product",
		zap.String("company_id", companyID),
		zap.String("product_id", product.ID))
	return product, nil
}
