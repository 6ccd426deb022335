package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/pkg/logger"
	"gorm.io/gorm"
)

// assetRepositoryImpl 是 domain.AssetRepository 的 GORM 实现
type assetRepositoryImpl struct {
	db *gorm.DB
}

// NewAssetRepository 创建持仓仓储
func NewAssetRepository(db *gorm.DB) domain.AssetRepository {
	return &assetRepositoryImpl{db: db}
}

// GetWithLock 悲观锁获取持仓
func (r *assetRepositoryImpl) GetWithLock(ctx context.Context, accountID uint, symbol string) (*domain.AssetHolding, error) {
	var holding domain.AssetHolding
	if err := lockForUpdate(getDB(ctx, r.db).WithContext(ctx)).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, err
	}
	return &holding, nil
}

// GetOrCreateWithLock 悲观锁获取持仓，不存在时创建空持仓
// 插入后重新加锁读取，保证拿到的是带行锁的持久化实体
func (r *assetRepositoryImpl) GetOrCreateWithLock(ctx context.Context, accountID uint, symbol string) (*domain.AssetHolding, error) {
	holding, err := r.GetWithLock(ctx, accountID, symbol)
	if err == nil {
		return holding, nil
	}
	if !errors.Is(err, domain.ErrAssetNotFound) {
		return nil, err
	}

	fresh := domain.NewAssetHolding(accountID, symbol)
	if err := getDB(ctx, r.db).WithContext(ctx).Create(fresh).Error; err != nil {
		// 并发创建同一 (account_id, symbol) 会触发唯一键冲突，回读即可
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetWithLock(ctx, accountID, symbol)
		}
		logger.Error(ctx, "Failed to create asset holding", "account_id", accountID, "symbol", symbol, "error", err)
		return nil, err
	}
	return r.GetWithLock(ctx, accountID, symbol)
}

// ListByAccount 列出账户全部持仓
func (r *assetRepositoryImpl) ListByAccount(ctx context.Context, accountID uint) ([]*domain.AssetHolding, error) {
	var holdings []*domain.AssetHolding
	if err := getDB(ctx, r.db).WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("symbol ASC").
		Find(&holdings).Error; err != nil {
		return nil, err
	}
	return holdings, nil
}

// Update 保存持仓变更
func (r *assetRepositoryImpl) Update(ctx context.Context, holding *domain.AssetHolding) error {
	if err := getDB(ctx, r.db).WithContext(ctx).Save(holding).Error; err != nil {
		logger.Error(ctx, "Failed to update asset holding", "holding_id", holding.ID, "error", err)
		return err
	}
	return nil
}
