package draft

import (
	"iter"
	"strings"

	"github.com/shopspring/decimal"
)

// CatalogProduct is the search view of a product: either a persisted backend
// catalog entry or one of this draft's staged products.
type CatalogProduct struct {
	Ref       ProductRef
	Name      string
	UnitPrice decimal.Decimal
	Unit      string
	VATRate   decimal.Decimal
	Staged    bool
}

// Catalog converts a staged product to its search view.
func (s StagedProduct) Catalog() CatalogProduct {
	return CatalogProduct{
		Ref:       StagedRef(s.TempID),
		Name:      s.Name,
		UnitPrice: s.UnitPrice,
		Unit:      s.Unit,
		VATRate:   s.VATRate,
		Staged:    true,
	}
}

// Filter yields the products from the catalog and staged set whose name
// contains query case-insensitively. An empty query yields the whole
// union. The sequence is finite and restartable; each range starts over
// from the beginning.
func Filter(query string, catalog []CatalogProduct, staged []StagedProduct) iter.Seq[CatalogProduct] {
	needle := strings.ToLower(strings.TrimSpace(query))
	return func(yield func(CatalogProduct) bool) {
		for _, p := range catalog {
			if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
				continue
			}
			if !yield(p) {
				return
			}
		}
		for _, s := range staged {
			if needle != "" && !strings.Contains(strings.ToLower(s.Name), needle) {
				continue
			}
			if !yield(s.Catalog()) {
				return
			}
		}
	}
}

// CanCreateProduct reports whether a new product may be staged under this
// name: the trimmed name is non-empty and no catalog or staged product
// matches it case-insensitively.
func CanCreateProduct(query string, catalog []CatalogProduct, staged []StagedProduct) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	for _, p := range catalog {
		if strings.EqualFold(p.Name, query) {
			return false
		}
	}
	for _, s := range staged {
		if strings.EqualFold(s.Name, query) {
			return false
		}
	}
	return true
}

// FilterProducts is Filter over this draft's staged set.
func (d *Draft) FilterProducts(query string, catalog []CatalogProduct) iter.Seq[CatalogProduct] {
	return Filter(query, catalog, d.Staged)
}
