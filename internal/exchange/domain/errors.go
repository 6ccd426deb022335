// Package domain 撮合与账本的领域模型
package domain

import "errors"

// 业务规则错误：面向调用方，预期内，不重试
var (
	// ErrInvalidOrder 订单参数非法（标的、方向、价格或数量）
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInvalidAmount 金额或数量非正
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidRequest 请求参数非法
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInsufficientBalance 下买单时余额不足
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAssetNotFound 下卖单时持仓不存在
	ErrAssetNotFound = errors.New("asset not found")
	// ErrInsufficientAssets 下卖单时可用持仓不足
	ErrInsufficientAssets = errors.New("insufficient assets")
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotCancellable 订单不处于可取消状态
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")
	// ErrAccountNotFound 账户不存在
	ErrAccountNotFound = errors.New("account not found")
)

// 并发竞争错误：争用下预期出现，整个操作可安全重试
var (
	// ErrStaleOrder 结算时订单已被并发撮合消耗，不再是 OPEN
	ErrStaleOrder = errors.New("order is no longer open")
	// ErrOrderVanished 结算时重新加锁发现订单已不存在
	ErrOrderVanished = errors.New("order vanished before settlement")
	// ErrLockTimeout 行锁等待超时或死锁被数据库回滚
	ErrLockTimeout = errors.New("lock wait timeout")
)

// 完整性错误：意味着记账或上游逻辑缺陷，必须以最高级别记录，不得静默吞掉
var (
	// ErrInsufficientFunds 借记会使余额为负
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientLockedAsset 卖方锁定持仓少于成交数量，视为账本损坏
	ErrInsufficientLockedAsset = errors.New("insufficient locked asset")
	// ErrPriceCrossViolation 结算时买价低于卖价，上游撮合逻辑错误
	ErrPriceCrossViolation = errors.New("buy price is less than sell price")
	// ErrSideMismatch 结算入参方向错置（买方位不是买单或卖方位不是卖单）
	ErrSideMismatch = errors.New("order side mismatch in settlement")
	// ErrAccountMissing 结算中途账户缺失
	ErrAccountMissing = errors.New("account missing during settlement")
	// ErrInsufficientFundsAtSettlement 结算补扣差额时余额不足（兜底分支）
	ErrInsufficientFundsAtSettlement = errors.New("insufficient balance for trade execution and commission")
)

// IsRetryable 判断错误是否属于可整体重试的并发竞争类
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleOrder) ||
		errors.Is(err, ErrOrderVanished) ||
		errors.Is(err, ErrLockTimeout)
}

// IsIntegrityViolation 判断错误是否属于完整性缺陷类
func IsIntegrityViolation(err error) bool {
	return errors.Is(err, ErrInsufficientLockedAsset) ||
		errors.Is(err, ErrPriceCrossViolation) ||
		errors.Is(err, ErrSideMismatch) ||
		errors.Is(err, ErrAccountMissing) ||
		errors.Is(err, ErrInsufficientFundsAtSettlement)
}
