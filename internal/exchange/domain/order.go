package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderSide 订单方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Opposite 返回对手方向
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// Order 限价订单实体
// FILLED 与 CANCELLED 为终态，进入终态后不再变更
type Order struct {
	gorm.Model
	// 账户 ID
	AccountID uint `gorm:"column:account_id;index;not null" json:"account_id"`
	// 交易标的
	Symbol string `gorm:"column:symbol;type:varchar(20);index;not null" json:"symbol"`
	// 买卖方向
	Side OrderSide `gorm:"column:side;type:varchar(10);not null" json:"side"`
	// 限价
	Price decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null" json:"price"`
	// 数量
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(32,18);not null" json:"amount"`
	// 订单状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// NewOrder 创建 OPEN 状态的限价订单
func NewOrder(accountID uint, symbol string, side OrderSide, price, amount decimal.Decimal) *Order {
	return &Order{
		AccountID: accountID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Status:    OrderStatusOpen,
	}
}

// IsOpen 是否处于 OPEN 状态
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusOpen
}

// IsBuy 是否为买单
func (o *Order) IsBuy() bool {
	return o.Side == OrderSideBuy
}

// EscrowValue 下单时托管的资金额（限价 × 数量）
func (o *Order) EscrowValue() decimal.Decimal {
	return o.Price.Mul(o.Amount)
}

// Fill 标记订单成交
func (o *Order) Fill() error {
	if o.Status != OrderStatusOpen {
		return ErrStaleOrder
	}
	o.Status = OrderStatusFilled
	return nil
}

// Cancel 标记订单取消
func (o *Order) Cancel() error {
	if o.Status != OrderStatusOpen {
		return ErrOrderNotCancellable
	}
	o.Status = OrderStatusCancelled
	return nil
}
