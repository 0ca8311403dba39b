package draft_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/fakturo-api/internal/draft"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func validInput() draft.ItemInput {
	return draft.ItemInput{
		Description: "Consulting",
		Quantity:    decPtr("1"),
		UnitPrice:   decPtr("100"),
		VATRate:     dec("22"),
	}
}

func TestDraft_AddItem(t *testing.T) {
	tests := []struct {
		name    string
		input   func() draft.ItemInput
		wantErr error
	}{
		{
			name:  "valid input",
			input: validInput,
		},
		{
			name: "whitespace description rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.Description = "   "
				return in
			},
			wantErr: draft.ErrEmptyDescription,
		},
		{
			name: "unset quantity rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.Quantity = nil
				return in
			},
			wantErr: draft.ErrNonPositiveQuantity,
		},
		{
			name: "zero quantity rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.Quantity = decPtr("0")
				return in
			},
			wantErr: draft.ErrNonPositiveQuantity,
		},
		{
			name: "negative quantity rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.Quantity = decPtr("-1")
				return in
			},
			wantErr: draft.ErrNonPositiveQuantity,
		},
		{
			name: "unset unit price rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.UnitPrice = nil
				return in
			},
			wantErr: draft.ErrMissingUnitPrice,
		},
		{
			name: "zero unit price accepted",
			input: func() draft.ItemInput {
				in := validInput()
				in.UnitPrice = decPtr("0")
				return in
			},
		},
		{
			name: "negative unit price rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.UnitPrice = decPtr("-0.01")
				return in
			},
			wantErr: draft.ErrNegativeUnitPrice,
		},
		{
			name: "VAT rate above 100 rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.VATRate = dec("101")
				return in
			},
			wantErr: draft.ErrInvalidVATRate,
		},
		{
			name: "negative VAT rate rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.VATRate = dec("-1")
				return in
			},
			wantErr: draft.ErrInvalidVATRate,
		},
		{
			name: "reference to unknown staged product rejected",
			input: func() draft.ItemInput {
				in := validInput()
				in.Ref = draft.StagedRef("tmp_missing")
				return in
			},
			wantErr: draft.ErrUnknownStagedProduct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft.New("d1")
			d.Input = tt.input()

			item, err := d.AddItem()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				// A rejected entry leaves the draft untouched.
				assert.Empty(t, d.Items)
				assert.Equal(t, draft.StateEmpty, d.State())
				assert.Equal(t, tt.input(), d.Input)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(1), item.ID)
			require.Len(t, d.Items, 1)
			assert.Equal(t, draft.StateBuilding, d.State())
			// Input resets to defaults after a confirmed item.
			assert.Empty(t, d.Input.Description)
			assert.Nil(t, d.Input.Quantity)
			assert.True(t, d.Input.VATRate.Equal(draft.DefaultVATRate))
		})
	}
}

func TestDraft_AddItem_AmountAndIDs(t *testing.T) {
	d := draft.New("d1")

	d.Input = draft.ItemInput{
		Description: "Hosting",
		Quantity:    decPtr("2"),
		UnitPrice:   decPtr("10"),
		VATRate:     dec("22"),
	}
	first, err := d.AddItem()
	require.NoError(t, err)
	assert.True(t, first.Amount.Equal(dec("20")), "amount = quantity * unit price")

	d.Input = draft.ItemInput{
		Description: "Domain",
		Quantity:    decPtr("1"),
		UnitPrice:   decPtr("5"),
		VATRate:     dec("0"),
	}
	second, err := d.AddItem()
	require.NoError(t, err)

	// Item ids keep increasing even after removals.
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	d.RemoveItem(second.ID)
	d.Input = draft.ItemInput{
		Description: "Support",
		Quantity:    decPtr("1"),
		UnitPrice:   decPtr("1"),
		VATRate:     dec("22"),
	}
	third, err := d.AddItem()
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID)
}

func TestDraft_Totals(t *testing.T) {
	d := draft.New("d1")

	// 2 x 10.00 at 22% and 1 x 5.00 at 0%.
	d.Input = draft.ItemInput{
		Description: "Hosting",
		Quantity:    decPtr("2"),
		UnitPrice:   decPtr("10.00"),
		VATRate:     dec("22"),
	}
	_, err := d.AddItem()
	require.NoError(t, err)

	d.Input = draft.ItemInput{
		Description: "Domain",
		Quantity:    decPtr("1"),
		UnitPrice:   decPtr("5.00"),
		VATRate:     dec("0"),
	}
	_, err = d.AddItem()
	require.NoError(t, err)

	totals := d.Totals()
	assert.True(t, totals.Subtotal.Equal(dec("25.00")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.VATAmount.Equal(dec("4.40")), "vat = %s", totals.VATAmount)
	assert.True(t, totals.Total.Equal(dec("29.40")), "total = %s", totals.Total)

	// Recomputed on every read, so removing an item is reflected immediately.
	d.RemoveItem(d.Items[1].ID)
	totals = d.Totals()
	assert.True(t, totals.Subtotal.Equal(dec("20.00")))
	assert.True(t, totals.Total.Equal(dec("24.40")))
}

func TestDraft_Totals_Empty(t *testing.T) {
	d := draft.New("d1")
	totals := d.Totals()
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.VATAmount.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestDraft_RemoveItem_Idempotent(t *testing.T) {
	d := draft.New("d1")
	d.Input = validInput()
	item, err := d.AddItem()
	require.NoError(t, err)

	assert.True(t, d.RemoveItem(item.ID))
	assert.False(t, d.RemoveItem(item.ID), "second removal is a no-op")
	assert.Empty(t, d.Items)
	assert.Equal(t, draft.StateEmpty, d.State(), "removing the last item returns the draft to empty")
}

func TestDraft_SelectProduct(t *testing.T) {
	d := draft.New("d1")
	d.SelectProduct(draft.CatalogProduct{
		Ref:       draft.PersistedRef("p-42"),
		Name:      "Hosting",
		UnitPrice: dec("10.00"),
		Unit:      "month",
		VATRate:   dec("22"),
	})

	assert.Equal(t, "Hosting", d.Input.Description)
	assert.Equal(t, "month", d.Input.Unit)
	require.NotNil(t, d.Input.UnitPrice)
	assert.True(t, d.Input.UnitPrice.Equal(dec("10.00")))
	id, ok := d.Input.Ref.PersistedID()
	require.True(t, ok)
	assert.Equal(t, "p-42", id)

	// Quantity stays for the user to fill in.
	assert.Nil(t, d.Input.Quantity)
}

func TestDraft_StageProduct(t *testing.T) {
	d := draft.New("d1")
	catalog := []draft.CatalogProduct{{Name: "Hosting", Ref: draft.PersistedRef("p-1")}}

	staged, err := d.StageProduct("New Service", dec("50"), "h", dec("22"), catalog)
	require.NoError(t, err)
	assert.True(t, len(staged.TempID) > 4 && staged.TempID[:4] == "tmp_", "temp id = %s", staged.TempID)

	got, ok := d.StagedByID(staged.TempID)
	require.True(t, ok)
	assert.Equal(t, staged, got)

	// The temp id is usable as an item reference right away.
	d.Input = draft.ItemInput{
		Ref:         draft.StagedRef(staged.TempID),
		Description: staged.Name,
		Quantity:    decPtr("1"),
		UnitPrice:   decPtr("50"),
		VATRate:     dec("22"),
	}
	_, err = d.AddItem()
	require.NoError(t, err)

	tests := []struct {
		name    string
		product string
		wantErr error
	}{
		{name: "name clashing with catalog", product: "Hosting", wantErr: draft.ErrProductExists},
		{name: "name clashing with staged, case-insensitive", product: "new service", wantErr: draft.ErrProductExists},
		{name: "empty name", product: "  ", wantErr: draft.ErrEmptyProductName},
		{name: "fresh name", product: "Another"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.StageProduct(tt.product, dec("1"), "", dec("22"), catalog)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDraft_SubmitLifecycle(t *testing.T) {
	d := draft.New("d1")
	d.CompanyID = "c1"
	d.PartnerID = "p1"

	// Nothing to invoice yet.
	assert.ErrorIs(t, d.BeginSubmit(), draft.ErrNoItems)
	assert.Equal(t, draft.StateEmpty, d.State())

	d.Input = validInput()
	_, err := d.AddItem()
	require.NoError(t, err)

	require.NoError(t, d.BeginSubmit())
	assert.Equal(t, draft.StateSubmitting, d.State())
	assert.ErrorIs(t, d.BeginSubmit(), draft.ErrSubmitInFlight)

	// Failure returns to Building with the items intact.
	d.FinishSubmit(false)
	assert.Equal(t, draft.StateBuilding, d.State())
	assert.Len(t, d.Items, 1)

	require.NoError(t, d.BeginSubmit())
	d.FinishSubmit(true)
	assert.Equal(t, draft.StateSubmitted, d.State())
	assert.ErrorIs(t, d.BeginSubmit(), draft.ErrAlreadySubmitted)
}

func TestDraft_Validate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(d *draft.Draft)
		wantErr error
	}{
		{
			name:    "missing company",
			setup:   func(d *draft.Draft) { d.PartnerID = "p1" },
			wantErr: draft.ErrMissingCompany,
		},
		{
			name:    "missing partner",
			setup:   func(d *draft.Draft) { d.CompanyID = "c1" },
			wantErr: draft.ErrMissingPartner,
		},
		{
			name: "no items",
			setup: func(d *draft.Draft) {
				d.CompanyID = "c1"
				d.PartnerID = "p1"
			},
			wantErr: draft.ErrNoItems,
		},
		{
			name: "complete",
			setup: func(d *draft.Draft) {
				d.CompanyID = "c1"
				d.PartnerID = "p1"
				d.Input = validInput()
				_, err := d.AddItem()
				require.NoError(t, err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft.New("d1")
			tt.setup(d)
			err := d.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
