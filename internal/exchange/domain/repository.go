package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 持久化新订单
	Create(ctx context.Context, order *Order) error
	// Get 获取订单，不加锁
	Get(ctx context.Context, id uint) (*Order, error)
	// GetWithLock 悲观锁获取订单，不存在时返回 ErrOrderNotFound
	GetWithLock(ctx context.Context, id uint) (*Order, error)
	// GetPairWithLock 按 ID 升序加锁获取两个订单，避免反向撮合路径的锁序死锁；
	// 缺失的一侧返回 nil
	GetPairWithLock(ctx context.Context, idA, idB uint) (*Order, *Order, error)
	// FindBestMatchWithLock 为给定方向/价格的新订单寻找最优对手挂单并加锁：
	// 买单匹配价格不高于限价的卖单，价低者优先、同价先挂者优先；
	// 卖单对称。无可成交挂单时返回 nil。
	FindBestMatchWithLock(ctx context.Context, symbol string, side OrderSide, price decimal.Decimal) (*Order, error)
	// Update 保存订单变更
	Update(ctx context.Context, order *Order) error
	// ListOpen 列出 OPEN 订单，symbol 为空时不过滤
	ListOpen(ctx context.Context, symbol string) ([]*Order, error)
	// WithTx 在同一事务上下文中执行回调
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// AccountRepository 账户仓储接口
type AccountRepository interface {
	// Create 持久化新账户
	Create(ctx context.Context, account *Account) error
	// Get 获取账户，不加锁
	Get(ctx context.Context, id uint) (*Account, error)
	// GetWithLock 悲观锁获取账户，不存在时返回 ErrAccountNotFound
	GetWithLock(ctx context.Context, id uint) (*Account, error)
	// GetPairWithLock 按 ID 升序加锁获取两个账户；两个 ID 相同时返回同一实体。
	// 缺失的一侧返回 nil
	GetPairWithLock(ctx context.Context, idA, idB uint) (*Account, *Account, error)
	// Update 保存账户变更
	Update(ctx context.Context, account *Account) error
	// WithTx 在同一事务上下文中执行回调
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// AssetRepository 持仓仓储接口
type AssetRepository interface {
	// GetWithLock 悲观锁获取持仓，不存在时返回 ErrAssetNotFound
	GetWithLock(ctx context.Context, accountID uint, symbol string) (*AssetHolding, error)
	// GetOrCreateWithLock 悲观锁获取持仓，不存在时创建空持仓（买方首次买入）
	GetOrCreateWithLock(ctx context.Context, accountID uint, symbol string) (*AssetHolding, error)
	// ListByAccount 列出账户全部持仓
	ListByAccount(ctx context.Context, accountID uint) ([]*AssetHolding, error)
	// Update 保存持仓变更
	Update(ctx context.Context, holding *AssetHolding) error
}

// LedgerRepository 现金账本仓储接口
type LedgerRepository interface {
	// Save 追加流水
	Save(ctx context.Context, entry *LedgerEntry) error
	// ListByAccount 分页列出账户流水
	ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*LedgerEntry, int64, error)
}
