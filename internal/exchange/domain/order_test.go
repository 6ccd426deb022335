package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderSideOpposite(t *testing.T) {
	assert.Equal(t, OrderSideSell, OrderSideBuy.Opposite())
	assert.Equal(t, OrderSideBuy, OrderSideSell.Opposite())
}

func TestNewOrderIsOpen(t *testing.T) {
	order := NewOrder(1, "BTC", OrderSideBuy,
		decimal.RequireFromString("100"), decimal.RequireFromString("2"))

	assert.True(t, order.IsOpen())
	assert.True(t, order.IsBuy())
	assert.True(t, order.EscrowValue().Equal(decimal.RequireFromString("200")))
}

func TestOrderFill(t *testing.T) {
	order := NewOrder(1, "BTC", OrderSideSell,
		decimal.RequireFromString("100"), decimal.RequireFromString("1"))

	require.NoError(t, order.Fill())
	assert.Equal(t, OrderStatusFilled, order.Status)

	// 终态不可再次变更
	assert.ErrorIs(t, order.Fill(), ErrStaleOrder)
	assert.ErrorIs(t, order.Cancel(), ErrOrderNotCancellable)
}

func TestOrderCancel(t *testing.T) {
	order := NewOrder(1, "BTC", OrderSideBuy,
		decimal.RequireFromString("100"), decimal.RequireFromString("1"))

	require.NoError(t, order.Cancel())
	assert.Equal(t, OrderStatusCancelled, order.Status)

	assert.ErrorIs(t, order.Cancel(), ErrOrderNotCancellable)
	assert.ErrorIs(t, order.Fill(), ErrStaleOrder)
}
