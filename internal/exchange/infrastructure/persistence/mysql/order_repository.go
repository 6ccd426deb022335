package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/pkg/logger"
	"gorm.io/gorm"
)

// orderRepositoryImpl 是 domain.OrderRepository 的 GORM 实现
type orderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepositoryImpl{db: db}
}

// WithTx 在同一事务上下文中执行回调
func (r *orderRepositoryImpl) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := runInTx(ctx, r.db, fn); err != nil {
		if isLockContention(err) {
			return fmt.Errorf("%w: %v", domain.ErrLockTimeout, err)
		}
		return err
	}
	return nil
}

// Create 持久化新订单
func (r *orderRepositoryImpl) Create(ctx context.Context, order *domain.Order) error {
	if err := getDB(ctx, r.db).WithContext(ctx).Create(order).Error; err != nil {
		logger.Error(ctx, "Failed to create order", "account_id", order.AccountID, "error", err)
		return err
	}
	return nil
}

// Get 获取订单，不加锁
func (r *orderRepositoryImpl) Get(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	if err := getDB(ctx, r.db).WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetWithLock 悲观锁获取订单
func (r *orderRepositoryImpl) GetWithLock(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	// SELECT * FROM orders WHERE id = ? FOR UPDATE
	if err := lockForUpdate(getDB(ctx, r.db).WithContext(ctx)).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetPairWithLock 按 ID 升序加锁获取两个订单
// 固定的全局锁序是并发结算互为反向时不产生死锁环的前提
func (r *orderRepositoryImpl) GetPairWithLock(ctx context.Context, idA, idB uint) (*domain.Order, *domain.Order, error) {
	lo, hi := sortPair(idA, idB)

	var rows []*domain.Order
	if err := lockForUpdate(getDB(ctx, r.db).WithContext(ctx)).
		Where("id IN ?", []uint{lo, hi}).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	byID := make(map[uint]*domain.Order, len(rows))
	for _, o := range rows {
		byID[o.ID] = o
	}
	return byID[idA], byID[idB], nil
}

// FindBestMatchWithLock 为新订单寻找最优对手挂单并加锁
// 价格优先于时间：买单先取最低卖价，同价取最早挂出；卖单对称
func (r *orderRepositoryImpl) FindBestMatchWithLock(ctx context.Context, symbol string, side domain.OrderSide, price decimal.Decimal) (*domain.Order, error) {
	query := getDB(ctx, r.db).WithContext(ctx).
		Where("symbol = ? AND status = ?", symbol, domain.OrderStatusOpen)

	if side == domain.OrderSideBuy {
		query = query.
			Where("side = ? AND price <= ?", domain.OrderSideSell, price).
			Order("price ASC, created_at ASC, id ASC")
	} else {
		query = query.
			Where("side = ? AND price >= ?", domain.OrderSideBuy, price).
			Order("price DESC, created_at ASC, id ASC")
	}

	var order domain.Order
	if err := lockForUpdate(query).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Update 保存订单变更
func (r *orderRepositoryImpl) Update(ctx context.Context, order *domain.Order) error {
	if err := getDB(ctx, r.db).WithContext(ctx).Save(order).Error; err != nil {
		logger.Error(ctx, "Failed to update order", "order_id", order.ID, "error", err)
		return err
	}
	return nil
}

// ListOpen 列出 OPEN 订单
func (r *orderRepositoryImpl) ListOpen(ctx context.Context, symbol string) ([]*domain.Order, error) {
	query := getDB(ctx, r.db).WithContext(ctx).
		Where("status = ?", domain.OrderStatusOpen)
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}

	var orders []*domain.Order
	if err := query.Order("created_at ASC, id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
