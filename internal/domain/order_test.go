package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens map[string]bool

func (s staticTokens) Known(symbol string) bool {
	_, ok := s[symbol]
	return ok
}

func (s staticTokens) Native(symbol string) bool { return s[symbol] }

var registry = staticTokens{"ETH": true, "TUSDT": false}

func TestOrderTermsNormalize(t *testing.T) {
	terms, err := OrderTerms{TokenToSell: " eth", TokenToBuy: "tusdt ", AmountToSell: 1, AmountToBuy: 2}.Normalize(registry)
	require.NoError(t, err)
	assert.Equal(t, "ETH", terms.TokenToSell)
	assert.Equal(t, "TUSDT", terms.TokenToBuy)
}

func TestOrderTermsRejected(t *testing.T) {
	tests := map[string]OrderTerms{
		"missing token": {TokenToSell: "", TokenToBuy: "ETH", AmountToSell: 1, AmountToBuy: 1},
		"same token":    {TokenToSell: "eth", TokenToBuy: "ETH", AmountToSell: 1, AmountToBuy: 1},
		"zero sell":     {TokenToSell: "ETH", TokenToBuy: "TUSDT", AmountToSell: 0, AmountToBuy: 1},
		"negative buy":  {TokenToSell: "ETH", TokenToBuy: "TUSDT", AmountToSell: 1, AmountToBuy: -5},
		"unknown token": {TokenToSell: "DOGE", TokenToBuy: "TUSDT", AmountToSell: 1, AmountToBuy: 1},
	}
	for name, terms := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := terms.Normalize(registry)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestOrderAttachEscrowOnce(t *testing.T) {
	o := testOrder()
	require.True(t, o.Open())

	require.NoError(t, o.AttachEscrow("escrow-1", t0.Add(time.Second)))
	assert.False(t, o.Open())
	assert.Equal(t, OrderPending, o.Status)

	err := o.AttachEscrow("escrow-2", t0.Add(2*time.Second))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "escrow-1", o.EscrowID)
}

func TestOrderFinishIsIdempotent(t *testing.T) {
	o := testOrder()
	assert.True(t, o.MarkCompleted(t0))
	assert.False(t, o.MarkCancelled(t0))
	assert.Equal(t, OrderCompleted, o.Status)
}

func TestOrderFilterOnlyOpen(t *testing.T) {
	o := testOrder()
	f := OrderFilter{Status: OrderPending, OnlyOpen: true}
	assert.True(t, f.Match(*o))

	o.EscrowID = "escrow-1"
	assert.False(t, f.Match(*o))
	assert.True(t, OrderFilter{Maker: maker.ID}.Match(*o))
}

func TestCursorAdmits(t *testing.T) {
	c := Cursor{CreatedAt: t0, ID: "m"}

	assert.True(t, c.Admits(t0.Add(-time.Second), "z"))
	assert.False(t, c.Admits(t0.Add(time.Second), "a"))
	assert.True(t, c.Admits(t0, "a"))
	assert.False(t, c.Admits(t0, "m"))
	assert.False(t, c.Admits(t0, "z"))
}

func TestFundingValidate(t *testing.T) {
	assert.NoError(t, Funding{}.Validate("TUSDT", 10, registry))
	assert.NoError(t, Funding{Attached: 10}.Validate("ETH", 10, registry))
	assert.ErrorIs(t, Funding{Attached: 9}.Validate("ETH", 10, registry), ErrInvalidInput)
	assert.ErrorIs(t, Funding{Attached: -1}.Validate("ETH", 10, registry), ErrInvalidInput)
	assert.ErrorIs(t, Funding{Attached: 10}.Validate("TUSDT", 10, registry), ErrInvalidInput)
}

func TestSortKeys(t *testing.T) {
	keys := []LockKey{OrderKey("1"), AccountKey("b"), EscrowKey("x"), AccountKey("a"), OrderKey("1")}
	got := SortKeys(keys)

	assert.Equal(t, []LockKey{"account:a", "account:b", "escrow:x", "order:1"}, got)
	assert.Len(t, keys, 5)
}
