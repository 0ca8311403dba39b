package draft

import "fmt"

// RefKind discriminates a ProductRef.
type RefKind int

const (
	// RefNone marks a free-text line with no product behind it.
	RefNone RefKind = iota
	// RefPersisted points at a product the backend already knows.
	RefPersisted
	// RefStaged points at a product defined during drafting that has not
	// been persisted yet.
	RefStaged
)

// ProductRef is a tagged reference to a product. A staged reference must be
// resolved to a persisted one before it may reach the backend; the tag makes
// that rule checkable instead of relying on id-string conventions.
type ProductRef struct {
	kind RefKind
	id   string
}

// PersistedRef references a backend-known product by its real id.
func PersistedRef(id string) ProductRef {
	return ProductRef{kind: RefPersisted, id: id}
}

// StagedRef references a staged product by its temporary id.
func StagedRef(tempID string) ProductRef {
	return ProductRef{kind: RefStaged, id: tempID}
}

// Kind returns the reference kind.
func (r ProductRef) Kind() RefKind {
	return r.kind
}

// IsZero reports whether the reference points at nothing.
func (r ProductRef) IsZero() bool {
	return r.kind == RefNone
}

// PersistedID returns the real product id when the reference is persisted.
func (r ProductRef) PersistedID() (string, bool) {
	if r.kind != RefPersisted {
		return "", false
	}
	return r.id, true
}

// StagedID returns the temporary id when the reference is staged.
func (r ProductRef) StagedID() (string, bool) {
	if r.kind != RefStaged {
		return "", false
	}
	return r.id, true
}

func (r ProductRef) String() string {
	switch r.kind {
	case RefPersisted:
		return fmt.Sprintf("persisted(%s)", r.id)
	case RefStaged:
		return fmt.Sprintf("staged(%s)", r.id)
	default:
		return "none"
	}
}
