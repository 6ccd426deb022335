package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAccountCreditDebit(t *testing.T) {
	account := NewAccount("user-1")
	account.Credit(dec("100"))
	assert.True(t, account.Balance.Equal(dec("100")))

	require.NoError(t, account.Debit(dec("40")))
	assert.True(t, account.Balance.Equal(dec("60")))

	// 余额不足时借记失败且余额不变
	assert.ErrorIs(t, account.Debit(dec("60.000000000000000001")), ErrInsufficientFunds)
	assert.True(t, account.Balance.Equal(dec("60")))

	assert.True(t, account.CanAfford(dec("60")))
	assert.False(t, account.CanAfford(dec("61")))
}

func TestAssetHoldingLockUnlock(t *testing.T) {
	holding := NewAssetHolding(1, "BTC")
	holding.CreditAmount(dec("10"))

	require.NoError(t, holding.Lock(dec("6")))
	assert.True(t, holding.Available().Equal(dec("4")))
	assert.True(t, holding.Amount.Equal(dec("10")))

	// 可用不足
	assert.ErrorIs(t, holding.Lock(dec("5")), ErrInsufficientAssets)

	require.NoError(t, holding.Unlock(dec("2")))
	assert.True(t, holding.Available().Equal(dec("6")))

	assert.ErrorIs(t, holding.Unlock(dec("5")), ErrInsufficientLockedAsset)
}

func TestAssetHoldingDebitLocked(t *testing.T) {
	holding := NewAssetHolding(1, "BTC")
	holding.CreditAmount(dec("10"))
	require.NoError(t, holding.Lock(dec("4")))

	require.NoError(t, holding.DebitLocked(dec("3")))
	assert.True(t, holding.Amount.Equal(dec("7")))
	assert.True(t, holding.LockedAmount.Equal(dec("1")))

	// 锁定不足意味着记账损坏
	assert.ErrorIs(t, holding.DebitLocked(dec("2")), ErrInsufficientLockedAsset)
	assert.True(t, holding.Amount.Equal(dec("7")))
	assert.True(t, holding.LockedAmount.Equal(dec("1")))
}
