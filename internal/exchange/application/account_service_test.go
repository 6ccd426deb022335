package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
)

func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.accountSvc.CreateAccount(ctx, "user-1")
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.True(t, account.Balance.IsZero())

	_, err = env.accountSvc.CreateAccount(ctx, "")
	assert.Error(t, err)
}

func TestDeposit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.newFundedAccount(t, "user-1", "0")

	updated, err := env.accountSvc.Deposit(ctx, account.ID, dec("250.5"))
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(dec("250.5")))

	_, err = env.accountSvc.Deposit(ctx, account.ID, dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = env.accountSvc.Deposit(ctx, 99999, dec("10"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	// 入金流水与余额变动同事务落库
	page, err := env.accountSvc.GetLedger(ctx, account.ID, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, domain.LedgerEntryDeposit, page.Entries[0].Type)
	assert.True(t, page.Entries[0].BalanceAfter.Equal(dec("250.5")))
}

func TestDepositAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.newFundedAccount(t, "user-1", "0")

	holding, err := env.accountSvc.DepositAsset(ctx, account.ID, "BTC", dec("3"))
	require.NoError(t, err)
	assert.True(t, holding.Amount.Equal(dec("3")))
	assert.True(t, holding.LockedAmount.IsZero())

	// 再次入金累加到同一持仓
	holding, err = env.accountSvc.DepositAsset(ctx, account.ID, "BTC", dec("2"))
	require.NoError(t, err)
	assert.True(t, holding.Amount.Equal(dec("5")))

	_, err = env.accountSvc.DepositAsset(ctx, account.ID, "BTC", dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = env.accountSvc.DepositAsset(ctx, 99999, "BTC", dec("1"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.newFundedAccount(t, "user-1", "100")
	env.fundAsset(t, account.ID, "BTC", "2")
	env.fundAsset(t, account.ID, "ETH", "7")

	profile, err := env.accountSvc.GetProfile(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, profile.Account.Balance.Equal(dec("100")))
	require.Len(t, profile.Holdings, 2)
	// 持仓按标的字典序返回
	assert.Equal(t, "BTC", profile.Holdings[0].Symbol)
	assert.Equal(t, "ETH", profile.Holdings[1].Symbol)

	_, err = env.accountSvc.GetProfile(ctx, 99999)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestGetLedgerPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.newFundedAccount(t, "user-1", "0")

	for i := 0; i < 5; i++ {
		_, err := env.accountSvc.Deposit(ctx, account.ID, dec("10"))
		require.NoError(t, err)
	}

	page, err := env.accountSvc.GetLedger(ctx, account.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Entries, 2)
	// 新流水在前
	assert.True(t, page.Entries[0].BalanceAfter.Equal(dec("50")))

	page, err = env.accountSvc.GetLedger(ctx, account.ID, 2, 4)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.True(t, page.Entries[0].BalanceAfter.Equal(dec("10")))
}
