package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func newTestRef(t *testing.T) *Ref {
	t.Helper()
	ref, err := NewRef(RefParams{
		SubscriptionID:    3,
		ExternalInvoiceID: "in_123",
		Number:            "INV-1",
		Status:            "open",
		Balance:           decimal.RequireFromString("15"),
		Amount:            decimal.RequireFromString("15"),
		Currency:          "EUR",
		BilledFrom:        testNow.AddDate(0, 0, -1),
		BilledUntil:       testNow,
	}, testNow)
	require.NoError(t, err)
	return ref
}

func TestNewRef_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params RefParams
		errMsg string
	}{
		{"missing subscription", RefParams{ExternalInvoiceID: "x"}, "subscription ID is required"},
		{"missing external id", RefParams{SubscriptionID: 1}, "external invoice ID is required"},
		{"inverted window", RefParams{SubscriptionID: 1, ExternalInvoiceID: "x", BilledFrom: testNow, BilledUntil: testNow.Add(-time.Hour)}, "billed until must not precede"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRef(tt.params, testNow)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRef_Cursor(t *testing.T) {
	ref := newTestRef(t)
	assert.Equal(t, testNow, ref.Cursor())

	legacy, err := ReconstructRef(RefParams{ID: 1, SubscriptionID: 1, ExternalInvoiceID: "x", CreatedAt: testNow.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(-time.Hour), legacy.Cursor())
}

func TestRef_ApplyDetails(t *testing.T) {
	t.Run("no changes", func(t *testing.T) {
		ref := newTestRef(t)
		c := ref.ApplyDetails(Details{Status: "open", Number: "INV-1", Balance: decimal.RequireFromString("15.00")}, testNow)
		assert.True(t, c.IsEmpty())
	})

	t.Run("status and balance changed", func(t *testing.T) {
		ref := newTestRef(t)
		later := testNow.Add(time.Hour)

		c := ref.ApplyDetails(Details{Status: "paid", Number: "INV-1", Balance: decimal.Zero, ClientLinkURL: "https://pay/1"}, later)

		require.NotNil(t, c.Status)
		assert.Equal(t, "paid", *c.Status)
		require.NotNil(t, c.Balance)
		assert.True(t, c.Balance.IsZero())
		require.NotNil(t, c.ClientLinkURL)
		assert.Nil(t, c.Number)
		assert.Equal(t, "paid", ref.Status())
		assert.Equal(t, later, ref.UpdatedAt())
	})

	t.Run("empty strings keep known values", func(t *testing.T) {
		ref := newTestRef(t)
		c := ref.ApplyDetails(Details{Balance: decimal.RequireFromString("15")}, testNow)
		assert.True(t, c.IsEmpty())
		assert.Equal(t, "INV-1", ref.Number())
	})
}

func TestOpenPosition_LinkInvoice(t *testing.T) {
	pos, err := NewOpenPosition(1, 2, "extra storage", testNow, testNow)
	require.NoError(t, err)
	assert.False(t, pos.IsBilled())

	require.NoError(t, pos.LinkInvoice(9))
	assert.True(t, pos.IsBilled())
	assert.Error(t, pos.LinkInvoice(10))

	_, err = NewOpenPosition(0, 2, "", testNow, testNow)
	assert.Error(t, err)
}
