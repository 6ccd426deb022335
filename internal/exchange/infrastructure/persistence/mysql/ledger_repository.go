package mysql

import (
	"context"

	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/pkg/logger"
	"gorm.io/gorm"
)

// ledgerRepositoryImpl 是 domain.LedgerRepository 的 GORM 实现
type ledgerRepositoryImpl struct {
	db *gorm.DB
}

// NewLedgerRepository 创建现金账本仓储
func NewLedgerRepository(db *gorm.DB) domain.LedgerRepository {
	return &ledgerRepositoryImpl{db: db}
}

// Save 追加流水
func (r *ledgerRepositoryImpl) Save(ctx context.Context, entry *domain.LedgerEntry) error {
	if err := getDB(ctx, r.db).WithContext(ctx).Create(entry).Error; err != nil {
		logger.Error(ctx, "Failed to save ledger entry",
			"account_id", entry.AccountID, "type", entry.Type, "error", err)
		return err
	}
	return nil
}

// ListByAccount 分页列出账户流水，新流水在前
func (r *ledgerRepositoryImpl) ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*domain.LedgerEntry, int64, error) {
	db := getDB(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&domain.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*domain.LedgerEntry
	if err := db.Where("account_id = ?", accountID).
		Order("id DESC").Limit(limit).Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
