package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/pkg/logger"
	"gorm.io/gorm"
)

// accountRepositoryImpl 是 domain.AccountRepository 的 GORM 实现
type accountRepositoryImpl struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &accountRepositoryImpl{db: db}
}

// WithTx 在同一事务上下文中执行回调
func (r *accountRepositoryImpl) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := runInTx(ctx, r.db, fn); err != nil {
		if isLockContention(err) {
			return fmt.Errorf("%w: %v", domain.ErrLockTimeout, err)
		}
		return err
	}
	return nil
}

// Create 持久化新账户
func (r *accountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	if err := getDB(ctx, r.db).WithContext(ctx).Create(account).Error; err != nil {
		logger.Error(ctx, "Failed to create account", "user_id", account.UserID, "error", err)
		return err
	}
	return nil
}

// Get 获取账户，不加锁
func (r *accountRepositoryImpl) Get(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	if err := getDB(ctx, r.db).WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetWithLock 悲观锁获取账户
func (r *accountRepositoryImpl) GetWithLock(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	if err := lockForUpdate(getDB(ctx, r.db).WithContext(ctx)).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetPairWithLock 按 ID 升序加锁获取两个账户
// 自成交时两个 ID 相同，返回同一实体，避免同一行的两份内存副本互相覆盖
func (r *accountRepositoryImpl) GetPairWithLock(ctx context.Context, idA, idB uint) (*domain.Account, *domain.Account, error) {
	if idA == idB {
		account, err := r.GetWithLock(ctx, idA)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, nil, nil
			}
			return nil, nil, err
		}
		return account, account, nil
	}

	lo, hi := sortPair(idA, idB)

	var rows []*domain.Account
	if err := lockForUpdate(getDB(ctx, r.db).WithContext(ctx)).
		Where("id IN ?", []uint{lo, hi}).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	byID := make(map[uint]*domain.Account, len(rows))
	for _, a := range rows {
		byID[a.ID] = a
	}
	return byID[idA], byID[idB], nil
}

// Update 保存账户变更
func (r *accountRepositoryImpl) Update(ctx context.Context, account *domain.Account) error {
	if err := getDB(ctx, r.db).WithContext(ctx).Save(account).Error; err != nil {
		logger.Error(ctx, "Failed to update account", "account_id", account.ID, "error", err)
		return err
	}
	return nil
}
