package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/internal/exchange/infrastructure/persistence/mysql"
	"github.com/wyfcoding/exchange/pkg/idgen"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// capturePublisher 记录发布的事件，供断言提交后发布语义
type capturePublisher struct {
	created   []domain.OrderCreatedEvent
	matched   []domain.OrderMatchedEvent
	cancelled []domain.OrderCancelledEvent
}

func (p *capturePublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	p.created = append(p.created, event)
	return nil
}

func (p *capturePublisher) PublishOrderMatched(ctx context.Context, event domain.OrderMatchedEvent) error {
	p.matched = append(p.matched, event)
	return nil
}

func (p *capturePublisher) PublishOrderCancelled(ctx context.Context, event domain.OrderCancelledEvent) error {
	p.cancelled = append(p.cancelled, event)
	return nil
}

type testEnv struct {
	db         *gorm.DB
	orders     domain.OrderRepository
	accounts   domain.AccountRepository
	assets     domain.AssetRepository
	ledger     domain.LedgerRepository
	publisher  *capturePublisher
	settlement *SettlementService
	orderSvc   *OrderService
	accountSvc *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// 内存库每个连接各自独立，收敛到单连接
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&domain.Account{},
		&domain.AssetHolding{},
		&domain.Order{},
		&domain.LedgerEntry{},
	))

	idGen, err := idgen.New(1)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := &capturePublisher{}

	orders := mysql.NewOrderRepository(gdb)
	accounts := mysql.NewAccountRepository(gdb)
	assets := mysql.NewAssetRepository(gdb)
	ledger := mysql.NewLedgerRepository(gdb)

	settlement := NewSettlementService(
		orders, accounts, assets, ledger,
		publisher, idGen, domain.DefaultCommissionRate, nil, log,
	)
	orderSvc := NewOrderService(
		orders, accounts, assets, ledger,
		settlement, publisher, idGen, []string{"BTC", "ETH"}, nil, log,
	)
	accountSvc := NewAccountService(accounts, assets, ledger, idGen, log)

	return &testEnv{
		db:         gdb,
		orders:     orders,
		accounts:   accounts,
		assets:     assets,
		ledger:     ledger,
		publisher:  publisher,
		settlement: settlement,
		orderSvc:   orderSvc,
		accountSvc: accountSvc,
	}
}

// newFundedAccount 开户并入金现金
func (e *testEnv) newFundedAccount(t *testing.T, userID, cash string) *domain.Account {
	t.Helper()
	account, err := e.accountSvc.CreateAccount(context.Background(), userID)
	require.NoError(t, err)
	if cash != "" && cash != "0" {
		account, err = e.accountSvc.Deposit(context.Background(), account.ID, dec(cash))
		require.NoError(t, err)
	}
	return account
}

// fundAsset 资产入金
func (e *testEnv) fundAsset(t *testing.T, accountID uint, symbol, qty string) {
	t.Helper()
	_, err := e.accountSvc.DepositAsset(context.Background(), accountID, symbol, dec(qty))
	require.NoError(t, err)
}

// balanceOf 重新读取账户余额
func (e *testEnv) balanceOf(t *testing.T, accountID uint) decimal.Decimal {
	t.Helper()
	account, err := e.accounts.Get(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance
}

// holdingOf 重新读取持仓
func (e *testEnv) holdingOf(t *testing.T, accountID uint, symbol string) *domain.AssetHolding {
	t.Helper()
	var holding domain.AssetHolding
	require.NoError(t, e.db.Where("account_id = ? AND symbol = ?", accountID, symbol).First(&holding).Error)
	return &holding
}

// orderOf 重新读取订单
func (e *testEnv) orderOf(t *testing.T, orderID uint) *domain.Order {
	t.Helper()
	order, err := e.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	return order
}

// ledgerCount 账本流水总数
func (e *testEnv) ledgerCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&domain.LedgerEntry{}).Count(&count).Error)
	return count
}
