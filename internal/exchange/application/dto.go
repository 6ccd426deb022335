// Package application 订单生命周期、撮合结算与账户操作的应用服务
package application

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
)

// PlaceOrderCommand 下单命令
type PlaceOrderCommand struct {
	AccountID uint
	Symbol    string
	Side      domain.OrderSide
	Price     decimal.Decimal
	Amount    decimal.Decimal
}

// ProfileDTO 账户概览：现金余额加全部持仓
type ProfileDTO struct {
	Account  *domain.Account        `json:"account"`
	Holdings []*domain.AssetHolding `json:"holdings"`
}

// LedgerPage 账本流水分页结果
type LedgerPage struct {
	Entries []*domain.LedgerEntry `json:"entries"`
	Total   int64                 `json:"total"`
}
