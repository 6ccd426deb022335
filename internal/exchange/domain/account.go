package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account 资金账户实体
// 余额只在持有行锁的工作单元内变更，任何时刻不为负
type Account struct {
	gorm.Model
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(32);index;not null" json:"user_id"`
	// 现金余额
	Balance decimal.Decimal `gorm:"column:balance;type:decimal(32,18);default:0;not null" json:"balance"`
}

// TableName 表名
func (Account) TableName() string {
	return "accounts"
}

// NewAccount 创建资金账户
func NewAccount(userID string) *Account {
	return &Account{
		UserID:  userID,
		Balance: decimal.Zero,
	}
}

// Credit 贷记现金（入金、退款、卖出所得）
// 调用方必须已持有该账户的行锁
func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// Debit 借记现金（托管、补扣差额）
// 借记会使余额为负时返回 ErrInsufficientFunds，余额不变
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// CanAfford 余额是否足以覆盖给定金额
func (a *Account) CanAfford(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
