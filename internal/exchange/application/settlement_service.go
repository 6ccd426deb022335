package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/pkg/idgen"
	"github.com/wyfcoding/exchange/pkg/metrics"
)

// SettlementService 撮合结算引擎
// 一次结算在单个工作单元内完成现金交割、资产交割与订单终态落库，
// 任一步失败则整体回滚，成交事件在提交之后才对外发布。
type SettlementService struct {
	orderRepo      domain.OrderRepository
	accountRepo    domain.AccountRepository
	assetRepo      domain.AssetRepository
	ledgerRepo     domain.LedgerRepository
	publisher      domain.EventPublisher
	idGen          *idgen.Generator
	commissionRate decimal.Decimal
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	orderRepo domain.OrderRepository,
	accountRepo domain.AccountRepository,
	assetRepo domain.AssetRepository,
	ledgerRepo domain.LedgerRepository,
	publisher domain.EventPublisher,
	idGen *idgen.Generator,
	commissionRate decimal.Decimal,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SettlementService {
	if commissionRate.IsZero() {
		commissionRate = domain.DefaultCommissionRate
	}
	return &SettlementService{
		orderRepo:      orderRepo,
		accountRepo:    accountRepo,
		assetRepo:      assetRepo,
		ledgerRepo:     ledgerRepo,
		publisher:      publisher,
		idGen:          idGen,
		commissionRate: commissionRate,
		metrics:        m,
		logger:         logger,
	}
}

// Settle 在独立工作单元中结算一对订单并发布成交事件
func (s *SettlementService) Settle(ctx context.Context, buyOrderID, sellOrderID uint) error {
	var event *domain.OrderMatchedEvent
	err := s.orderRepo.WithTx(ctx, func(txCtx context.Context) error {
		ev, err := s.ExecuteLocked(txCtx, buyOrderID, sellOrderID)
		if err != nil {
			return err
		}
		event = ev
		return nil
	})
	if err != nil {
		return err
	}

	s.finalize(ctx, event)
	return nil
}

// ExecuteLocked 在调用方已开启的工作单元内执行结算
// 返回待发布的成交事件，由调用方在事务提交后发布。
func (s *SettlementService) ExecuteLocked(ctx context.Context, buyOrderID, sellOrderID uint) (*domain.OrderMatchedEvent, error) {
	// 按 ID 升序重新加锁双方订单，防止与反向撮合路径形成锁序死锁
	buy, sell, err := s.orderRepo.GetPairWithLock(ctx, buyOrderID, sellOrderID)
	if err != nil {
		return nil, err
	}
	if buy == nil || sell == nil {
		return nil, domain.ErrOrderVanished
	}
	// 并发撮合可能已消耗其中一方，属预期竞争
	if !buy.IsOpen() || !sell.IsOpen() {
		return nil, domain.ErrStaleOrder
	}
	// 方向错置意味着调用方把两个 ID 传反了，继续会按卖单计算买方托管
	if !buy.IsBuy() || sell.IsBuy() {
		return nil, domain.ErrSideMismatch
	}
	if buy.Price.LessThan(sell.Price) {
		return nil, domain.ErrPriceCrossViolation
	}

	terms := domain.ComputeExecutionTerms(buy, sell, s.commissionRate)
	tradeID := s.idGen.Next()
	tradeRef := strconv.FormatInt(tradeID, 10)

	buyer, seller, err := s.accountRepo.GetPairWithLock(ctx, buy.AccountID, sell.AccountID)
	if err != nil {
		return nil, err
	}
	if buyer == nil || seller == nil {
		return nil, domain.ErrAccountMissing
	}

	if err := s.settleBuyerCash(ctx, buy, buyer, terms, tradeRef); err != nil {
		return nil, err
	}

	// 卖方全额收取成交总额，佣金只向买方收取
	seller.Credit(terms.TotalValue)
	if err := s.ledgerRepo.Save(ctx, domain.NewLedgerEntry(
		s.idGen.Next(), seller.ID, domain.LedgerEntryTradeProceeds,
		terms.TotalValue, seller.Balance, tradeRef,
	)); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Update(ctx, buyer); err != nil {
		return nil, err
	}
	// 自成交时双方是同一实体，避免对同一行的两次覆盖写
	if seller != buyer {
		if err := s.accountRepo.Update(ctx, seller); err != nil {
			return nil, err
		}
	}

	if err := s.transferAsset(ctx, buy, sell, terms.Amount); err != nil {
		return nil, err
	}

	if err := buy.Fill(); err != nil {
		return nil, err
	}
	if err := sell.Fill(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, buy); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, sell); err != nil {
		return nil, err
	}

	return &domain.OrderMatchedEvent{
		TradeID:         tradeID,
		BuyOrder:        domain.SnapshotOf(buy),
		SellOrder:       domain.SnapshotOf(sell),
		ExecutionPrice:  terms.Price,
		ExecutionAmount: terms.Amount,
		TotalValue:      terms.TotalValue,
		Commission:      terms.Commission,
		Timestamp:       time.Now(),
	}, nil
}

// settleBuyerCash 对账买方托管资金
// 下单时按限价全额托管，成交价或成交数量更优的差额此刻返还；
// 托管不足的补扣分支只是兜底，正常托管逻辑下不应触发。
func (s *SettlementService) settleBuyerCash(ctx context.Context, buy *domain.Order, buyer *domain.Account, terms domain.ExecutionTerms, tradeRef string) error {
	escrowed := buy.EscrowValue()
	required := terms.RequiredPayment()
	diff := escrowed.Sub(required)

	switch {
	case diff.IsPositive():
		buyer.Credit(diff)
		return s.ledgerRepo.Save(ctx, domain.NewLedgerEntry(
			s.idGen.Next(), buyer.ID, domain.LedgerEntryFillRefund,
			diff, buyer.Balance, tradeRef,
		))
	case diff.IsNegative():
		shortfall := diff.Neg()
		if err := buyer.Debit(shortfall); err != nil {
			return fmt.Errorf("%w: shortfall %s exceeds balance %s",
				domain.ErrInsufficientFundsAtSettlement, shortfall, buyer.Balance)
		}
		return s.ledgerRepo.Save(ctx, domain.NewLedgerEntry(
			s.idGen.Next(), buyer.ID, domain.LedgerEntryFillShortfall,
			shortfall.Neg(), buyer.Balance, tradeRef,
		))
	default:
		return nil
	}
}

// transferAsset 资产交割：卖方锁定持仓出，买方持仓入
// 卖单整体进入终态，成交数量之外多锁定的部分一并释放。
// 持仓行按账户 ID 升序加锁，买方持仓惰性创建。
func (s *SettlementService) transferAsset(ctx context.Context, buy, sell *domain.Order, amount decimal.Decimal) error {
	if buy.AccountID == sell.AccountID {
		holding, err := s.assetRepo.GetWithLock(ctx, sell.AccountID, sell.Symbol)
		if err != nil {
			return fmt.Errorf("%w: seller holding missing: %v", domain.ErrInsufficientLockedAsset, err)
		}
		if err := s.releaseSellerLock(holding, sell, amount); err != nil {
			return err
		}
		holding.CreditAmount(amount)
		return s.assetRepo.Update(ctx, holding)
	}

	var buyerHolding, sellerHolding *domain.AssetHolding
	var err error
	if buy.AccountID < sell.AccountID {
		if buyerHolding, err = s.assetRepo.GetOrCreateWithLock(ctx, buy.AccountID, buy.Symbol); err != nil {
			return err
		}
		if sellerHolding, err = s.assetRepo.GetWithLock(ctx, sell.AccountID, sell.Symbol); err != nil {
			return fmt.Errorf("%w: seller holding missing: %v", domain.ErrInsufficientLockedAsset, err)
		}
	} else {
		if sellerHolding, err = s.assetRepo.GetWithLock(ctx, sell.AccountID, sell.Symbol); err != nil {
			return fmt.Errorf("%w: seller holding missing: %v", domain.ErrInsufficientLockedAsset, err)
		}
		if buyerHolding, err = s.assetRepo.GetOrCreateWithLock(ctx, buy.AccountID, buy.Symbol); err != nil {
			return err
		}
	}

	if err := s.releaseSellerLock(sellerHolding, sell, amount); err != nil {
		return err
	}
	buyerHolding.CreditAmount(amount)

	if err := s.assetRepo.Update(ctx, sellerHolding); err != nil {
		return err
	}
	return s.assetRepo.Update(ctx, buyerHolding)
}

// releaseSellerLock 扣减卖方锁定持仓，并释放卖单超出成交数量的锁定余量
func (s *SettlementService) releaseSellerLock(holding *domain.AssetHolding, sell *domain.Order, amount decimal.Decimal) error {
	if err := holding.DebitLocked(amount); err != nil {
		return err
	}
	if leftover := sell.Amount.Sub(amount); leftover.IsPositive() {
		if err := holding.Unlock(leftover); err != nil {
			return err
		}
	}
	return nil
}

// finalize 提交后记指标并发布成交事件，发布失败只记录日志
func (s *SettlementService) finalize(ctx context.Context, event *domain.OrderMatchedEvent) {
	if s.metrics != nil {
		s.metrics.TradesTotal.Inc()
		s.metrics.CommissionTotal.Add(event.Commission.InexactFloat64())
	}

	if err := s.publisher.PublishOrderMatched(ctx, *event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish order matched event",
			"trade_id", event.TradeID,
			"buy_order_id", event.BuyOrder.ID,
			"sell_order_id", event.SellOrder.ID,
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "Trade settled",
		"trade_id", event.TradeID,
		"buy_order_id", event.BuyOrder.ID,
		"sell_order_id", event.SellOrder.ID,
		"price", event.ExecutionPrice,
		"amount", event.ExecutionAmount,
		"commission", event.Commission,
	)
}
