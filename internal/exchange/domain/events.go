package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSnapshot 订单快照，事件载荷中不携带活动引用
type OrderSnapshot struct {
	ID        uint            `json:"id"`
	AccountID uint            `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Side      OrderSide       `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// SnapshotOf 生成订单快照
func SnapshotOf(o *Order) OrderSnapshot {
	return OrderSnapshot{
		ID:        o.ID,
		AccountID: o.AccountID,
		Symbol:    o.Symbol,
		Side:      o.Side,
		Price:     o.Price,
		Amount:    o.Amount,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	Order     OrderSnapshot `json:"order"`
	Timestamp time.Time     `json:"timestamp"`
}

// OrderMatchedEvent 订单撮合成交事件
type OrderMatchedEvent struct {
	TradeID         int64           `json:"trade_id"`
	BuyOrder        OrderSnapshot   `json:"buy_order"`
	SellOrder       OrderSnapshot   `json:"sell_order"`
	ExecutionPrice  decimal.Decimal `json:"execution_price"`
	ExecutionAmount decimal.Decimal `json:"execution_amount"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Commission      decimal.Decimal `json:"commission"`
	Timestamp       time.Time       `json:"timestamp"`
}

// OrderCancelledEvent 订单取消事件
type OrderCancelledEvent struct {
	Order     OrderSnapshot `json:"order"`
	Timestamp time.Time     `json:"timestamp"`
}

// EventPublisher 领域事件发布接口
// 实现负责投递到外部订阅方；核心在工作单元提交之后调用，
// 发布失败只记录日志，不影响已提交的业务结果。
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error
	PublishOrderMatched(ctx context.Context, event OrderMatchedEvent) error
	PublishOrderCancelled(ctx context.Context, event OrderCancelledEvent) error
}
