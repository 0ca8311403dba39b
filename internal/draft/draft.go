// Package draft implements the invoice draft builder: line items, inline
// product staging and totals. It is pure form state; it performs no I/O and
// holds no references to the backend client.
package draft

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fakturo/fakturo-api/internal/money"
)

// DefaultVATRate is the jurisdiction default rate the item input falls back
// to between entries.
var DefaultVATRate = decimal.NewFromInt(22)

var maxVATRate = decimal.NewFromInt(100)

// Item input validation errors. AddItem rejects the entry and leaves the
// draft untouched when any of these apply.
var (
	ErrEmptyDescription     = errors.New("item description is empty")
	ErrNonPositiveQuantity  = errors.New("item quantity must be a positive number")
	ErrMissingUnitPrice     = errors.New("item unit price is not set")
	ErrNegativeUnitPrice    = errors.New("item unit price must not be negative")
	ErrInvalidVATRate       = errors.New("vat rate must be between 0 and 100")
	ErrUnknownStagedProduct = errors.New("item references a staged product not present in this draft")
)

// Draft-level validation errors, checked before submission.
var (
	ErrMissingCompany   = errors.New("no company selected")
	ErrMissingPartner   = errors.New("no partner selected")
	ErrNoItems          = errors.New("draft has no line items")
	ErrSubmitInFlight   = errors.New("a submission is already in flight for this draft")
	ErrAlreadySubmitted = errors.New("draft has already been submitted")
)

// Product staging errors.
var (
	ErrEmptyProductName = errors.New("product name is empty")
	ErrProductExists    = errors.New("a product with this name already exists; select it instead")
)

// State tracks where a draft is in its lifecycle.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// LineItem is one confirmed entry on the draft. Immutable once added; the
// only way to change one is to remove it and add it again.
type LineItem struct {
	ID          int64
	Ref         ProductRef
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
	Amount      decimal.Decimal
}

// StagedProduct is a product defined during drafting that exists only
// client-side until submit resolves it to a real catalog entry.
type StagedProduct struct {
	TempID    string
	Name      string
	UnitPrice decimal.Decimal
	Unit      string
	VATRate   decimal.Decimal
}

const tempIDPrefix = "tmp_"

func newTempID() string {
	return tempIDPrefix + uuid.NewString()
}

// ItemInput is the staging area for the next line item. Quantity and
// UnitPrice are pointers so "unset" stays distinct from zero.
type ItemInput struct {
	Ref         ProductRef
	Description string
	Quantity    *decimal.Decimal
	Unit        string
	UnitPrice   *decimal.Decimal
	VATRate     decimal.Decimal
}

func defaultInput() ItemInput {
	return ItemInput{VATRate: DefaultVATRate}
}

// Totals is the recomputed monetary summary of a draft. It is derived from
// the items on every read and never stored on the draft.
type Totals struct {
	Subtotal  decimal.Decimal
	VATAmount decimal.Decimal
	Total     decimal.Decimal
}

// Draft is one in-progress invoice. It is owned by a single session and is
// submitted or discarded as a whole.
type Draft struct {
	ID            string
	InvoiceID     string // set when editing an existing invoice
	CompanyID     string
	PartnerID     string
	InvoiceNumber string
	IssueDate     time.Time
	ServiceDate   time.Time
	DueDate       time.Time
	Notes         string
	Items         []LineItem
	Staged        []StagedProduct
	Input         ItemInput

	nextItemID int64
	state      State
}

// New creates an empty draft with input defaults applied.
func New(id string) *Draft {
	return &Draft{
		ID:    id,
		Input: defaultInput(),
		state: StateEmpty,
	}
}

// State returns the draft's lifecycle state.
func (d *Draft) State() State {
	return d.state
}

// AddItem validates the current input and, on success, appends a line item
// with amount = quantity * unitPrice and resets the input to defaults. On
// failure the draft is left exactly as it was.
func (d *Draft) AddItem() (LineItem, error) {
	description := strings.TrimSpace(d.Input.Description)
	if description == "" {
		return LineItem{}, ErrEmptyDescription
	}
	if d.Input.Quantity == nil || !d.Input.Quantity.IsPositive() {
		return LineItem{}, ErrNonPositiveQuantity
	}
	if d.Input.UnitPrice == nil {
		return LineItem{}, ErrMissingUnitPrice
	}
	if d.Input.UnitPrice.IsNegative() {
		return LineItem{}, ErrNegativeUnitPrice
	}
	if d.Input.VATRate.IsNegative() || d.Input.VATRate.GreaterThan(maxVATRate) {
		return LineItem{}, ErrInvalidVATRate
	}
	if tempID, ok := d.Input.Ref.StagedID(); ok && d.stagedByID(tempID) == nil {
		return LineItem{}, ErrUnknownStagedProduct
	}

	quantity := *d.Input.Quantity
	unitPrice := *d.Input.UnitPrice

	d.nextItemID++
	item := LineItem{
		ID:          d.nextItemID,
		Ref:         d.Input.Ref,
		Description: description,
		Quantity:    quantity,
		Unit:        d.Input.Unit,
		UnitPrice:   unitPrice,
		VATRate:     d.Input.VATRate,
		Amount:      quantity.Mul(unitPrice),
	}
	d.Items = append(d.Items, item)
	d.Input = defaultInput()
	d.state = StateBuilding
	return item, nil
}

// RemoveItem removes the line item with the given id. Removing an absent id
// is a no-op, so the operation is idempotent.
func (d *Draft) RemoveItem(id int64) bool {
	for i, item := range d.Items {
		if item.ID == id {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			if len(d.Items) == 0 && d.state == StateBuilding {
				d.state = StateEmpty
			}
			return true
		}
	}
	return false
}

// SelectProduct populates the item input from a catalog or staged product
// and records its reference for the next AddItem.
func (d *Draft) SelectProduct(p CatalogProduct) {
	unitPrice := p.UnitPrice
	d.Input.Ref = p.Ref
	d.Input.Description = p.Name
	d.Input.Unit = p.Unit
	d.Input.UnitPrice = &unitPrice
	d.Input.VATRate = p.VATRate
}

// StageProduct creates a staged product with a fresh temporary id. It must
// only be called when CanCreate holds for the name; an exact name match in
// the catalog or the staged set is rejected.
func (d *Draft) StageProduct(name string, unitPrice decimal.Decimal, unit string, vatRate decimal.Decimal, catalog []CatalogProduct) (StagedProduct, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return StagedProduct{}, ErrEmptyProductName
	}
	if !d.CanCreate(name, catalog) {
		return StagedProduct{}, ErrProductExists
	}

	staged := StagedProduct{
		TempID:    newTempID(),
		Name:      name,
		UnitPrice: unitPrice,
		Unit:      unit,
		VATRate:   vatRate,
	}
	d.Staged = append(d.Staged, staged)
	return staged, nil
}

// CanCreate is CanCreateProduct over this draft's staged set.
func (d *Draft) CanCreate(query string, catalog []CatalogProduct) bool {
	return CanCreateProduct(query, catalog, d.Staged)
}

// Totals recomputes subtotal, VAT amount and total from the current items.
// Pure and idempotent; nothing is cached on the draft.
func (d *Draft) Totals() Totals {
	subtotal := decimal.Zero
	vatAmount := decimal.Zero
	for _, item := range d.Items {
		subtotal = subtotal.Add(item.Amount)
		vatAmount = vatAmount.Add(money.VATPortion(item.Amount, item.VATRate))
	}
	return Totals{
		Subtotal:  subtotal,
		VATAmount: vatAmount,
		Total:     subtotal.Add(vatAmount),
	}
}

// Validate checks the draft is submittable: company and partner selected,
// at least one item.
func (d *Draft) Validate() error {
	if d.CompanyID == "" {
		return ErrMissingCompany
	}
	if d.PartnerID == "" {
		return ErrMissingPartner
	}
	if len(d.Items) == 0 {
		return ErrNoItems
	}
	return nil
}

// BeginSubmit transitions the draft into Submitting. It fails without side
// effect when validation fails, a submission is already in flight, or the
// draft was already submitted.
func (d *Draft) BeginSubmit() error {
	switch d.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateSubmitted:
		return ErrAlreadySubmitted
	}
	if err := d.Validate(); err != nil {
		return err
	}
	d.state = StateSubmitting
	return nil
}

// FinishSubmit settles an in-flight submission: Submitted on success,
// back to Building on failure with all items intact.
func (d *Draft) FinishSubmit(ok bool) {
	if d.state != StateSubmitting {
		return
	}
	if ok {
		d.state = StateSubmitted
	} else {
		d.state = StateBuilding
	}
}

// StagedByID returns the staged product with the given temporary id.
func (d *Draft) StagedByID(tempID string) (StagedProduct, bool) {
	if s := d.stagedByID(tempID); s != nil {
		return *s, true
	}
	return StagedProduct{}, false
}

func (d *Draft) stagedByID(tempID string) *StagedProduct {
	for i := range d.Staged {
		if d.Staged[i].TempID == tempID {
			return &d.Staged[i]
		}
	}
	return nil
}
