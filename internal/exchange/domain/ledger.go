package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntryType 账本流水类型
type LedgerEntryType string

const (
	// LedgerEntryDeposit 入金
	LedgerEntryDeposit LedgerEntryType = "DEPOSIT"
	// LedgerEntryOrderEscrow 买单托管占用
	LedgerEntryOrderEscrow LedgerEntryType = "ORDER_ESCROW"
	// LedgerEntryEscrowRelease 买单取消释放托管
	LedgerEntryEscrowRelease LedgerEntryType = "ESCROW_RELEASE"
	// LedgerEntryFillRefund 成交时返还的价格改善差额
	LedgerEntryFillRefund LedgerEntryType = "FILL_REFUND"
	// LedgerEntryFillShortfall 成交时补扣的差额（兜底分支）
	LedgerEntryFillShortfall LedgerEntryType = "FILL_SHORTFALL"
	// LedgerEntryTradeProceeds 卖方成交所得
	LedgerEntryTradeProceeds LedgerEntryType = "TRADE_PROCEEDS"
)

// LedgerEntry 现金账本流水
// 与引起余额变动的工作单元在同一事务内落库
type LedgerEntry struct {
	gorm.Model
	// 流水 ID (业务主键)
	EntryID int64 `gorm:"column:entry_id;uniqueIndex;not null" json:"entry_id"`
	// 账户 ID
	AccountID uint `gorm:"column:account_id;index;not null" json:"account_id"`
	// 流水类型
	Type LedgerEntryType `gorm:"column:type;type:varchar(20);not null" json:"type"`
	// 变动金额（借记为负）
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(32,18);not null" json:"amount"`
	// 变动后余额
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;type:decimal(32,18);not null" json:"balance_after"`
	// 关联单据（订单 ID / 成交 ID）
	ReferenceID string `gorm:"column:reference_id;type:varchar(64);index" json:"reference_id"`
}

// TableName 表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// NewLedgerEntry 创建账本流水
func NewLedgerEntry(entryID int64, accountID uint, typ LedgerEntryType, amount, balanceAfter decimal.Decimal, referenceID string) *LedgerEntry {
	return &LedgerEntry{
		EntryID:      entryID,
		AccountID:    accountID,
		Type:         typ,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		ReferenceID:  referenceID,
	}
}
