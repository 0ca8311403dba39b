package services

import (
	"errors"
	"fmt"
)

// ErrNoResolvableItems is returned when every line item lost its product
// reference during staged-product resolution; no invoice call is made.
var ErrNoResolvableItems = errors.New("no line items remain after resolving product references")

// ValidationError means the draft is not submittable as-is. It is raised
// before any network call and is fully recoverable by fixing the draft.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("draft validation failed: %v", e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// StagedProductPersistError reports one staged product that failed to save
// during submit. The affected line items are excluded from the finalized
// invoice; the error names them so the omission is never silent.
type StagedProductPersistError struct {
	TempID       string
	ProductName  string
	ItemIDs      []int64
	Descriptions []string
	Err          error
}

func (e *StagedProductPersistError) Error() string {
	return fmt.Sprintf("staged product %q could not be saved; dropped line item(s) %v: %v",
		e.ProductName, e.Descriptions, e.Err)
}

func (e *StagedProductPersistError) Unwrap() error {
	return e.Err
}

// InvoicePersistError means the final invoice create/update call failed.
// The draft stays in Building with all items intact; the caller may retry.
type InvoicePersistError struct {
	Err error
}

func (e *InvoicePersistError) Error() string {
	return fmt.Sprintf("invoice could not be saved: %v", e.Err)
}

func (e *InvoicePersistError) Unwrap() error {
	return e.Err
}

// SearchError wraps a failed product-search lookup. Callers degrade to an
// empty result set; manual item entry stays available.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("product search for %q failed: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}
