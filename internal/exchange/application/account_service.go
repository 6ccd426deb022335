package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/pkg/idgen"
)

// AccountService 账户开立、入金与查询服务
type AccountService struct {
	accountRepo domain.AccountRepository
	assetRepo   domain.AssetRepository
	ledgerRepo  domain.LedgerRepository
	idGen       *idgen.Generator
	logger      *slog.Logger
}

// NewAccountService 创建账户服务
func NewAccountService(
	accountRepo domain.AccountRepository,
	assetRepo domain.AssetRepository,
	ledgerRepo domain.LedgerRepository,
	idGen *idgen.Generator,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		assetRepo:   assetRepo,
		ledgerRepo:  ledgerRepo,
		idGen:       idGen,
		logger:      logger,
	}
}

// CreateAccount 开立资金账户，初始余额为零
func (s *AccountService) CreateAccount(ctx context.Context, userID string) (*domain.Account, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}

	account := domain.NewAccount(userID)
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Account created", "account_id", account.ID, "user_id", userID)
	return account, nil
}

// Deposit 现金入金，余额变动与账本流水在同一工作单元内落库
func (s *AccountService) Deposit(ctx context.Context, accountID uint, amount decimal.Decimal) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit must be positive", domain.ErrInvalidAmount)
	}

	var account *domain.Account
	err := s.accountRepo.WithTx(ctx, func(txCtx context.Context) error {
		acc, err := s.accountRepo.GetWithLock(txCtx, accountID)
		if err != nil {
			return err
		}
		acc.Credit(amount)
		if err := s.accountRepo.Update(txCtx, acc); err != nil {
			return err
		}
		if err := s.ledgerRepo.Save(txCtx, domain.NewLedgerEntry(
			s.idGen.Next(), acc.ID, domain.LedgerEntryDeposit,
			amount, acc.Balance, strconv.FormatUint(uint64(acc.ID), 10),
		)); err != nil {
			return err
		}
		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Cash deposited", "account_id", accountID, "amount", amount)
	return account, nil
}

// DepositAsset 资产入金，持仓不存在时惰性创建
func (s *AccountService) DepositAsset(ctx context.Context, accountID uint, symbol string, amount decimal.Decimal) (*domain.AssetHolding, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit must be positive", domain.ErrInvalidAmount)
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidRequest)
	}
	if _, err := s.accountRepo.Get(ctx, accountID); err != nil {
		return nil, err
	}

	var holding *domain.AssetHolding
	err := s.accountRepo.WithTx(ctx, func(txCtx context.Context) error {
		h, err := s.assetRepo.GetOrCreateWithLock(txCtx, accountID, symbol)
		if err != nil {
			return err
		}
		h.CreditAmount(amount)
		if err := s.assetRepo.Update(txCtx, h); err != nil {
			return err
		}
		holding = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Asset deposited",
		"account_id", accountID, "symbol", symbol, "amount", amount)
	return holding, nil
}

// GetProfile 账户概览：现金余额加全部持仓
func (s *AccountService) GetProfile(ctx context.Context, accountID uint) (*ProfileDTO, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.assetRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &ProfileDTO{Account: account, Holdings: holdings}, nil
}

// GetLedger 分页查询账户账本流水
func (s *AccountService) GetLedger(ctx context.Context, accountID uint, limit, offset int) (*LedgerPage, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := s.accountRepo.Get(ctx, accountID); err != nil {
		return nil, err
	}

	entries, total, err := s.ledgerRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &LedgerPage{Entries: entries, Total: total}, nil
}
