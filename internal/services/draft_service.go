// Package services orchestrates draft operations against the backend:
// submit with staged-product resolution, product search and advisory
// invoice numbering. All transport failures are converted to the error
// taxonomy here; no raw HTTP error crosses this boundary.
package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fakturo/fakturo-api/internal/client/backend"
	"github.com/fakturo/fakturo-api/internal/draft"
)

// DraftService implements the draft builder's backend-facing operations.
type DraftService struct {
	backend backend.API
	logger  *zap.Logger
}

// NewDraftService creates a draft service.
func NewDraftService(api backend.API, logger *zap.Logger) *DraftService {
	if logger == nil {
		logger = zap.L()
	}
	return &DraftService{backend: api, logger: logger}
}

// SubmitResult is the settled outcome of a submission. Warnings carry the
// staged products that failed to save, with the line items dropped because
// of them; the invoice itself was still created.
type SubmitResult struct {
	Invoice  backend.Invoice
	Warnings []*StagedProductPersistError
}

// Submit validates the draft, persists any staged products referenced by
// its items, builds the finalized payload and creates (or updates) the
// invoice. A staged product that fails to save drops its items from the
// payload and is reported as a warning; only a failure of the invoice call
// itself fails the submission, returning the draft to Building untouched.
func (s *DraftService) Submit(ctx context.Context, d *draft.Draft) (*SubmitResult, error) {
	if err := Begin(d); err != nil {
		return nil, err
	}

	result, err := s.Finalize(ctx, d)
	d.FinishSubmit(err == nil)
	return result, err
}

// Begin transitions the draft into Submitting, mapping validation failures
// into the error taxonomy. It makes no network calls; callers that manage
// the draft's lock themselves (the HTTP layer) call this under the lock and
// Finalize outside it.
func Begin(d *draft.Draft) error {
	if err := d.BeginSubmit(); err != nil {
		switch err {
		case draft.ErrSubmitInFlight, draft.ErrAlreadySubmitted:
			return err
		default:
			return &ValidationError{Reason: err}
		}
	}
	return nil
}

// Finalize runs the network phase of a submission for a draft already in
// Submitting: staged-product resolution, payload build and the invoice
// call. It does not touch the draft's state; the caller settles it with
// FinishSubmit.
func (s *DraftService) Finalize(ctx context.Context, d *draft.Draft) (*SubmitResult, error) {
	resolved, warnings := s.resolveStagedProducts(ctx, d)

	lines := make([]backend.InvoiceLineParams, 0, len(d.Items))
	for _, item := range d.Items {
		productID, ok := s.resolveItemRef(item, resolved)
		if !ok {
			continue
		}
		lines = append(lines, backend.InvoiceLineParams{
			ProductID: productID,
			Amount:    item.Quantity,
		})
	}

	if len(lines) == 0 {
		s.logger.Error("submission aborted: no resolvable line items",
			zap.String("draft_id", d.ID),
			zap.Int("warnings", len(warnings)))
		return &SubmitResult{Warnings: warnings}, &InvoicePersistError{Err: ErrNoResolvableItems}
	}

	invoice, err := s.persistInvoice(ctx, d, lines)
	if err != nil {
		s.logger.Error("invoice persist failed",
			zap.String("draft_id", d.ID),
			zap.String("invoice_number", d.InvoiceNumber),
			zap.Error(err))
		return &SubmitResult{Warnings: warnings}, &InvoicePersistError{Err: err}
	}

	s.logger.Info("draft submitted",
		zap.String("draft_id", d.ID),
		zap.String("invoice_id", invoice.ID),
		zap.Int("lines", len(lines)),
		zap.Int("dropped_products", len(warnings)))

	return &SubmitResult{Invoice: invoice, Warnings: warnings}, nil
}

// resolveStagedProducts persists every staged product actually referenced
// by an item and maps its temporary id to the real one. Individual failures
// do not abort the run; they become warnings naming the affected items.
func (s *DraftService) resolveStagedProducts(ctx context.Context, d *draft.Draft) (map[string]string, []*StagedProductPersistError) {
	referenced := make(map[string][]draft.LineItem)
	for _, item := range d.Items {
		if tempID, ok := item.Ref.StagedID(); ok {
			referenced[tempID] = append(referenced[tempID], item)
		}
	}

	resolved := make(map[string]string, len(referenced))
	var warnings []*StagedProductPersistError

	for tempID, items := range referenced {
		staged, ok := d.StagedByID(tempID)
		if !ok {
			// An item referencing a staged product outside this draft
			// violates the builder invariant; treat it as unresolvable.
			warnings = append(warnings, newStagedWarning(tempID, "", items,
				errors.Errorf("staged product %s not present in draft", tempID)))
			continue
		}

		product, err := s.backend.CreateProduct(ctx, d.CompanyID, backend.ProductParams{
			Name:          staged.Name,
			Cost:          staged.UnitPrice,
			MeasuringUnit: staged.Unit,
			DDVPercentage: staged.VATRate,
		})
		if err != nil {
			s.logger.Warn("staged product could not be saved",
				zap.String("draft_id", d.ID),
				zap.String("temp_id", tempID),
				zap.String("name", staged.Name),
				zap.Error(err))
			warnings = append(warnings, newStagedWarning(tempID, staged.Name, items,
				errors.Wrap(err, "create product")))
			continue
		}
		resolved[tempID] = product.ID
	}

	return resolved, warnings
}

func newStagedWarning(tempID, name string, items []draft.LineItem, err error) *StagedProductPersistError {
	warning := &StagedProductPersistError{
		TempID:      tempID,
		ProductName: name,
		Err:         err,
	}
	for _, item := range items {
		warning.ItemIDs = append(warning.ItemIDs, item.ID)
		warning.Descriptions = append(warning.Descriptions, item.Description)
	}
	return warning
}

// resolveItemRef maps an item to the product id the backend should see.
// Items whose staged reference did not resolve carry no id and are
// excluded; a temporary id never leaves the process.
func (s *DraftService) resolveItemRef(item draft.LineItem, resolved map[string]string) (string, bool) {
	if id, ok := item.Ref.PersistedID(); ok {
		return id, true
	}
	if tempID, ok := item.Ref.StagedID(); ok {
		id, ok := resolved[tempID]
		return id, ok
	}
	// Free-text lines have no product behind them; the backend contract
	// requires a product reference per line.
	return "", false
}

func (s *DraftService) persistInvoice(ctx context.Context, d *draft.Draft, lines []backend.InvoiceLineParams) (backend.Invoice, error) {
	if d.InvoiceID != "" {
		params := backend.InvoiceUpdateParams{
			CompanyID:     &d.CompanyID,
			PartnerID:     &d.PartnerID,
			InvoiceNumber: &d.InvoiceNumber,
			IssueDate:     &d.IssueDate,
			ServiceDate:   &d.ServiceDate,
			DueDate:       &d.DueDate,
			Notes:         &d.Notes,
			Lines:         lines,
		}
		return s.backend.UpdateInvoice(ctx, d.InvoiceID, params)
	}

	return s.backend.CreateInvoice(ctx, backend.InvoiceCreateParams{
		CompanyID:     d.CompanyID,
		PartnerID:     d.PartnerID,
		InvoiceNumber: d.InvoiceNumber,
		IssueDate:     d.IssueDate,
		ServiceDate:   d.ServiceDate,
		DueDate:       d.DueDate,
		Notes:         d.Notes,
		Lines:         lines,
	})
}

// CompanyCatalog fetches the company's products as catalog entries.
func (s *DraftService) CompanyCatalog(ctx context.Context, companyID string) ([]draft.CatalogProduct, error) {
	if companyID == "" {
		return nil, nil
	}
	products, err := s.backend.ListProducts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	catalog := make([]draft.CatalogProduct, 0, len(products))
	for _, p := range products {
		catalog = append(catalog, toCatalog(p))
	}
	return catalog, nil
}

// SearchProducts returns the union of the company catalog and the staged
// products filtered by query, plus whether a new product may be staged
// under that name. A backend failure degrades to the staged-only view with
// a SearchError; item entry via manual fields stays possible.
func (s *DraftService) SearchProducts(ctx context.Context, companyID string, staged []draft.StagedProduct, query string) ([]draft.CatalogProduct, bool, error) {
	var searchErr error
	catalog, err := s.CompanyCatalog(ctx, companyID)
	if err != nil {
		s.logger.Warn("product search degraded to staged-only results",
			zap.String("company_id", companyID),
			zap.String("query", query),
			zap.Error(err))
		searchErr = &SearchError{Query: query, Err: err}
		catalog = nil
	}

	var results []draft.CatalogProduct
	for p := range draft.Filter(query, catalog, staged) {
		results = append(results, p)
	}

	return results, draft.CanCreateProduct(query, catalog, staged), searchErr
}

// ProposeInvoiceNumber computes the advisory next invoice number from the
// existing invoices. When the list cannot be fetched the first number of
// the year is proposed, as a prefill is better than none.
func (s *DraftService) ProposeInvoiceNumber(ctx context.Context, now time.Time) string {
	summaries, err := s.backend.ListInvoices(ctx)
	if err != nil {
		s.logger.Warn("falling back to first invoice number of the year", zap.Error(err))
		return draft.NextInvoiceNumber(now, nil)
	}

	numbers := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		numbers = append(numbers, summary.InvoiceNumber)
	}
	return draft.NextInvoiceNumber(now, numbers)
}

// SearchRegistry proxies the free-text registry search used to prefill the
// partner form. Failures degrade to an empty result set.
func (s *DraftService) SearchRegistry(ctx context.Context, query string) ([]backend.RegistryEntry, error) {
	entries, err := s.backend.SearchRegistry(ctx, query)
	if err != nil {
		return nil, &SearchError{Query: query, Err: err}
	}
	return entries, nil
}

// ListCompanies returns the caller's issuing companies for the company
// picker.
func (s *DraftService) ListCompanies(ctx context.Context) ([]backend.Company, error) {
	return s.backend.ListCompanies(ctx)
}

// ListPartners returns the caller's partners for the recipient picker.
func (s *DraftService) ListPartners(ctx context.Context) ([]backend.Partner, error) {
	return s.backend.ListPartners(ctx)
}

// CreatePartner persists a new partner, typically prefilled from a
// registry entry.
func (s *DraftService) CreatePartner(ctx context.Context, params backend.PartnerParams) (backend.Partner, error) {
	return s.backend.CreatePartner(ctx, params)
}

// GetInvoice returns one persisted invoice with its lines.
func (s *DraftService) GetInvoice(ctx context.Context, id string) (backend.Invoice, error) {
	return s.backend.GetInvoice(ctx, id)
}

func toCatalog(p backend.Product) draft.CatalogProduct {
	return draft.CatalogProduct{
		Ref:       draft.PersistedRef(p.ID),
		Name:      p.Name,
		UnitPrice: p.Cost,
		Unit:      p.MeasuringUnit,
		VATRate:   p.DDVPercentage,
	}
}
