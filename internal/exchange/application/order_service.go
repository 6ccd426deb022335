package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/pkg/idgen"
	"github.com/wyfcoding/exchange/pkg/metrics"
)

// OrderService 订单生命周期服务
// 下单是显式的两步协议：先在一个工作单元内完成资金或持仓的预留与落库，
// 提交后再在第二个工作单元内尝试撮合，撮合失败不影响已提交的下单结果。
type OrderService struct {
	orderRepo   domain.OrderRepository
	accountRepo domain.AccountRepository
	assetRepo   domain.AssetRepository
	ledgerRepo  domain.LedgerRepository
	settlement  *SettlementService
	publisher   domain.EventPublisher
	idGen       *idgen.Generator
	symbols     map[string]struct{}
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewOrderService 创建订单服务，symbols 为可交易标的白名单，为空时不限制
func NewOrderService(
	orderRepo domain.OrderRepository,
	accountRepo domain.AccountRepository,
	assetRepo domain.AssetRepository,
	ledgerRepo domain.LedgerRepository,
	settlement *SettlementService,
	publisher domain.EventPublisher,
	idGen *idgen.Generator,
	symbols []string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *OrderService {
	whitelist := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		whitelist[s] = struct{}{}
	}
	return &OrderService{
		orderRepo:   orderRepo,
		accountRepo: accountRepo,
		assetRepo:   assetRepo,
		ledgerRepo:  ledgerRepo,
		settlement:  settlement,
		publisher:   publisher,
		idGen:       idGen,
		symbols:     whitelist,
		metrics:     m,
		logger:      logger,
	}
}

// PlaceOrder 下限价单
// 预留步骤失败直接返回错误；预留提交后的撮合尝试失败只记录日志，订单保持 OPEN。
func (s *OrderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	if err := s.validate(cmd); err != nil {
		return nil, err
	}

	order := domain.NewOrder(cmd.AccountID, cmd.Symbol, cmd.Side, cmd.Price, cmd.Amount)

	err := s.orderRepo.WithTx(ctx, func(txCtx context.Context) error {
		if cmd.Side == domain.OrderSideBuy {
			return s.reserveBuy(txCtx, order)
		}
		return s.reserveSell(txCtx, order)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersPlacedTotal.Inc()
	}
	if err := s.publisher.PublishOrderCreated(ctx, domain.OrderCreatedEvent{
		Order:     domain.SnapshotOf(order),
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish order created event",
			"order_id", order.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "Order placed",
		"order_id", order.ID,
		"account_id", order.AccountID,
		"symbol", order.Symbol,
		"side", order.Side,
		"price", order.Price,
		"amount", order.Amount,
	)

	s.attemptMatch(ctx, order)
	return order, nil
}

// reserveBuy 买单预留：托管 限价 × 数量 的现金
func (s *OrderService) reserveBuy(ctx context.Context, order *domain.Order) error {
	account, err := s.accountRepo.GetWithLock(ctx, order.AccountID)
	if err != nil {
		return err
	}

	escrow := order.EscrowValue()
	if !account.CanAfford(escrow) {
		return fmt.Errorf("%w: need %s, balance %s",
			domain.ErrInsufficientBalance, escrow, account.Balance)
	}
	if err := account.Debit(escrow); err != nil {
		return err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return err
	}
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return err
	}
	return s.ledgerRepo.Save(ctx, domain.NewLedgerEntry(
		s.idGen.Next(), account.ID, domain.LedgerEntryOrderEscrow,
		escrow.Neg(), account.Balance, strconv.FormatUint(uint64(order.ID), 10),
	))
}

// reserveSell 卖单预留：锁定持仓中对应数量
func (s *OrderService) reserveSell(ctx context.Context, order *domain.Order) error {
	holding, err := s.assetRepo.GetWithLock(ctx, order.AccountID, order.Symbol)
	if err != nil {
		return err
	}
	if err := holding.Lock(order.Amount); err != nil {
		return fmt.Errorf("%w: need %s, available %s",
			err, order.Amount, holding.Available())
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return err
	}
	return s.assetRepo.Update(ctx, holding)
}

// attemptMatch 在独立工作单元中为新订单寻找最优对手方并结算
// 失败只按类别记录日志：完整性缺陷最高级别，并发竞争仅告警。
func (s *OrderService) attemptMatch(ctx context.Context, order *domain.Order) {
	var event *domain.OrderMatchedEvent
	err := s.orderRepo.WithTx(ctx, func(txCtx context.Context) error {
		match, err := s.orderRepo.FindBestMatchWithLock(txCtx, order.Symbol, order.Side, order.Price)
		if err != nil {
			return err
		}
		if match == nil {
			return nil
		}

		buyID, sellID := order.ID, match.ID
		if !order.IsBuy() {
			buyID, sellID = match.ID, order.ID
		}
		ev, err := s.settlement.ExecuteLocked(txCtx, buyID, sellID)
		if err != nil {
			return err
		}
		event = ev
		return nil
	})
	if err != nil {
		switch {
		case domain.IsIntegrityViolation(err):
			s.logger.ErrorContext(ctx, "Integrity violation during match attempt",
				"order_id", order.ID, "error", err)
		case domain.IsRetryable(err):
			s.logger.WarnContext(ctx, "Match attempt lost a race, order stays open",
				"order_id", order.ID, "error", err)
		default:
			s.logger.ErrorContext(ctx, "Match attempt failed, order stays open",
				"order_id", order.ID, "error", err)
		}
		return
	}
	if event != nil {
		s.settlement.finalize(ctx, event)
	}
}

// CancelOrder 取消 OPEN 订单并归还下单时的预留
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint) (*domain.Order, error) {
	var cancelled *domain.Order
	err := s.orderRepo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.GetWithLock(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}

		if order.IsBuy() {
			account, err := s.accountRepo.GetWithLock(txCtx, order.AccountID)
			if err != nil {
				return err
			}
			account.Credit(order.EscrowValue())
			if err := s.accountRepo.Update(txCtx, account); err != nil {
				return err
			}
			if err := s.ledgerRepo.Save(txCtx, domain.NewLedgerEntry(
				s.idGen.Next(), account.ID, domain.LedgerEntryEscrowRelease,
				order.EscrowValue(), account.Balance, strconv.FormatUint(uint64(order.ID), 10),
			)); err != nil {
				return err
			}
		} else {
			holding, err := s.assetRepo.GetWithLock(txCtx, order.AccountID, order.Symbol)
			if err != nil {
				return err
			}
			if err := holding.Unlock(order.Amount); err != nil {
				return err
			}
			if err := s.assetRepo.Update(txCtx, holding); err != nil {
				return err
			}
		}

		if err := s.orderRepo.Update(txCtx, order); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCancelledTotal.Inc()
	}
	if err := s.publisher.PublishOrderCancelled(ctx, domain.OrderCancelledEvent{
		Order:     domain.SnapshotOf(cancelled),
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish order cancelled event",
			"order_id", cancelled.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "Order cancelled", "order_id", cancelled.ID)
	return cancelled, nil
}

// GetOrder 查询订单
func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*domain.Order, error) {
	return s.orderRepo.Get(ctx, orderID)
}

// ListOpenOrders 列出 OPEN 订单，symbol 为空时不过滤
func (s *OrderService) ListOpenOrders(ctx context.Context, symbol string) ([]*domain.Order, error) {
	return s.orderRepo.ListOpen(ctx, symbol)
}

// validate 下单参数校验，在任何锁获取之前完成
func (s *OrderService) validate(cmd PlaceOrderCommand) error {
	if cmd.Side != domain.OrderSideBuy && cmd.Side != domain.OrderSideSell {
		return fmt.Errorf("%w: side %q", domain.ErrInvalidOrder, cmd.Side)
	}
	if !cmd.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidOrder)
	}
	if !cmd.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidOrder)
	}
	if cmd.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidOrder)
	}
	if len(s.symbols) > 0 {
		if _, ok := s.symbols[cmd.Symbol]; !ok {
			return fmt.Errorf("%w: symbol %q is not tradable", domain.ErrInvalidOrder, cmd.Symbol)
		}
	}
	return nil
}
