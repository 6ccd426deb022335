package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssetHolding 资产持仓实体，按 (account_id, symbol) 唯一
// amount 为持有总量，locked_amount 为被未成交卖单占用的部分，
// 可卖数量 = amount - locked_amount，不变式 0 ≤ locked_amount ≤ amount。
// 持仓行首次贷记时惰性创建，之后不删除（总量可以归零）。
type AssetHolding struct {
	gorm.Model
	// 账户 ID
	AccountID uint `gorm:"column:account_id;uniqueIndex:idx_account_symbol;not null" json:"account_id"`
	// 交易标的
	Symbol string `gorm:"column:symbol;type:varchar(20);uniqueIndex:idx_account_symbol;not null" json:"symbol"`
	// 持有总量
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(32,18);default:0;not null" json:"amount"`
	// 锁定数量
	LockedAmount decimal.Decimal `gorm:"column:locked_amount;type:decimal(32,18);default:0;not null" json:"locked_amount"`
}

// TableName 表名
func (AssetHolding) TableName() string {
	return "asset_holdings"
}

// NewAssetHolding 创建空持仓
func NewAssetHolding(accountID uint, symbol string) *AssetHolding {
	return &AssetHolding{
		AccountID:    accountID,
		Symbol:       symbol,
		Amount:       decimal.Zero,
		LockedAmount: decimal.Zero,
	}
}

// Available 可卖数量
func (h *AssetHolding) Available() decimal.Decimal {
	return h.Amount.Sub(h.LockedAmount)
}

// Lock 锁定数量用于卖单占用，总量不变
// 可用数量不足时返回 ErrInsufficientAssets
func (h *AssetHolding) Lock(amount decimal.Decimal) error {
	if h.Available().LessThan(amount) {
		return ErrInsufficientAssets
	}
	h.LockedAmount = h.LockedAmount.Add(amount)
	return nil
}

// Unlock 释放锁定数量（卖单取消），总量不变
// 锁定数量不足意味着记账损坏，返回 ErrInsufficientLockedAsset
func (h *AssetHolding) Unlock(amount decimal.Decimal) error {
	if h.LockedAmount.LessThan(amount) {
		return ErrInsufficientLockedAsset
	}
	h.LockedAmount = h.LockedAmount.Sub(amount)
	return nil
}

// CreditAmount 贷记持仓总量（买入成交、资产入金）
func (h *AssetHolding) CreditAmount(amount decimal.Decimal) {
	h.Amount = h.Amount.Add(amount)
}

// DebitLocked 从锁定部分扣减并同步减少总量（卖出成交交割）
// 锁定数量不足意味着记账损坏，返回 ErrInsufficientLockedAsset，不得重试
func (h *AssetHolding) DebitLocked(amount decimal.Decimal) error {
	if h.LockedAmount.LessThan(amount) {
		return ErrInsufficientLockedAsset
	}
	h.LockedAmount = h.LockedAmount.Sub(amount)
	h.Amount = h.Amount.Sub(amount)
	return nil
}
