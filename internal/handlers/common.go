// Package handlers exposes the draft builder over HTTP for the browser
// front end. Handlers translate between the wire shapes and the draft
// package; no business rules live here.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fakturo/fakturo-api/internal/draft"
	"github.com/fakturo/fakturo-api/internal/store"
)

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response.
type SuccessResponse struct {
	Message string `json:"message"`
}

// RefPayload is the wire form of a product reference. The type tag keeps
// temporary and persisted ids from ever being confused.
type RefPayload struct {
	Type string `json:"type" binding:"omitempty,oneof=persisted staged"`
	ID   string `json:"id"`
}

func refFromPayload(p *RefPayload) draft.ProductRef {
	if p == nil || p.ID == "" {
		return draft.ProductRef{}
	}
	switch p.Type {
	case "persisted":
		return draft.PersistedRef(p.ID)
	case "staged":
		return draft.StagedRef(p.ID)
	default:
		return draft.ProductRef{}
	}
}

func refToPayload(r draft.ProductRef) *RefPayload {
	if id, ok := r.PersistedID(); ok {
		return &RefPayload{Type: "persisted", ID: id}
	}
	if id, ok := r.StagedID(); ok {
		return &RefPayload{Type: "staged", ID: id}
	}
	return nil
}

// parseDate accepts the date-only form the date pickers produce as well as
// a full timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Draft not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}
