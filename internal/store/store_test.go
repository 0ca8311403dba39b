package store_test

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/fakturo-api/internal/draft"
	"github.com/fakturo/fakturo-api/internal/store"
)

func TestDraftStore_Lifecycle(t *testing.T) {
	s := store.NewDraftStore()

	d := s.Create()
	require.NotEmpty(t, d.ID)
	assert.True(t, s.Exists(d.ID))

	err := s.With(d.ID, func(got *draft.Draft) error {
		assert.Same(t, d, got)
		got.Notes = "hello"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", d.Notes)

	s.Delete(d.ID)
	assert.False(t, s.Exists(d.ID))
	assert.ErrorIs(t, s.With(d.ID, func(*draft.Draft) error { return nil }), store.ErrNotFound)

	// Deleting again is a no-op.
	s.Delete(d.ID)
}

func TestDraftStore_WithPropagatesError(t *testing.T) {
	s := store.NewDraftStore()
	d := s.Create()

	boom := errors.New("boom")
	assert.ErrorIs(t, s.With(d.ID, func(*draft.Draft) error { return boom }), boom)
}

func TestDraftStore_UnknownID(t *testing.T) {
	s := store.NewDraftStore()
	assert.ErrorIs(t, s.With("nope", func(*draft.Draft) error { return nil }), store.ErrNotFound)
	assert.False(t, s.Exists("nope"))
}

func TestDraftStore_IndependentLocks(t *testing.T) {
	// Holding one draft's lock must not block access to another draft.
	s := store.NewDraftStore()
	a := s.Create()
	b := s.Create()

	aHeld := make(chan struct{})
	releaseA := make(chan struct{})
	go func() {
		_ = s.With(a.ID, func(*draft.Draft) error {
			close(aHeld)
			<-releaseA
			return nil
		})
	}()

	<-aHeld
	done := make(chan struct{})
	go func() {
		_ = s.With(b.ID, func(*draft.Draft) error { return nil })
		close(done)
	}()
	<-done
	close(releaseA)
}

func TestDraftStore_ConcurrentAccess(t *testing.T) {
	s := store.NewDraftStore()
	d := s.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.With(d.ID, func(dd *draft.Draft) error {
				dd.Notes += "x"
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Len(t, d.Notes, 50)
}
