package domain

import "github.com/shopspring/decimal"

// DefaultCommissionRate 默认佣金费率，由买方承担
var DefaultCommissionRate = decimal.RequireFromString("0.015")

// ExecutionTerms 单次撮合的成交条款，逐笔计算，不落库
type ExecutionTerms struct {
	// 成交价：挂单方（maker，先挂出的订单）的限价
	Price decimal.Decimal
	// 成交数量：双方数量的较小值
	Amount decimal.Decimal
	// 成交总额 = 成交价 × 成交数量
	TotalValue decimal.Decimal
	// 佣金 = 费率 × 成交总额，仅向买方收取
	Commission decimal.Decimal
}

// ComputeExecutionTerms 计算成交条款
// 成交价取先挂出一方（创建时间更早，相同时 ID 更小）的限价，
// 价格时间优先原则下先到的订单获得自己的报价。
func ComputeExecutionTerms(buy, sell *Order, commissionRate decimal.Decimal) ExecutionTerms {
	maker := buy
	if sell.CreatedAt.Before(buy.CreatedAt) ||
		(sell.CreatedAt.Equal(buy.CreatedAt) && sell.ID < buy.ID) {
		maker = sell
	}

	price := maker.Price
	amount := decimal.Min(buy.Amount, sell.Amount)
	totalValue := price.Mul(amount)

	return ExecutionTerms{
		Price:      price,
		Amount:     amount,
		TotalValue: totalValue,
		Commission: commissionRate.Mul(totalValue),
	}
}

// RequiredPayment 买方本次成交应付总额（成交总额 + 佣金）
func (t ExecutionTerms) RequiredPayment() decimal.Decimal {
	return t.TotalValue.Add(t.Commission)
}
