package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const referenceTTL = 24 * time.Hour

// LedgerServiceImpl implements ports.LedgerService. Every mutation runs
// inside one database transaction: the reference duplicate check, the row
// locks, the balance writes and the ledger inserts commit together or not
// at all.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	refCache   ports.ReferenceCache
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	refCache ports.ReferenceCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		refCache:   refCache,
		transactor: transactor,
		log:        log,
	}
}

// CreateWallet inserts a new wallet with a zero balance. Currency allow-list
// enforcement lives in the boundary DTO; here only shape is checked.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, currency string) (*domain.Wallet, error) {
	if len(currency) != 3 {
		return nil, apperror.ErrUnsupportedCurrency(currency)
	}

	wallet := domain.NewWallet(currency)
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("currency", wallet.Currency).
		Msg("wallet created")

	return wallet, nil
}

// GetWallet fetches a wallet and its full ordered ledger history.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, id uuid.UUID) (*ports.WalletDetail, error) {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	txns, err := s.txRepo.ListByWallet(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallet transactions: %w", err))
	}

	return &ports.WalletDetail{Wallet: *wallet, Transactions: txns}, nil
}

// Fund credits a wallet and records a FUND ledger entry. A repeated
// reference is an idempotent no-op returning the wallet's current state;
// the repeated request's amount is deliberately not compared against the
// original.
func (s *LedgerServiceImpl) Fund(ctx context.Context, req ports.FundRequest) (*domain.Wallet, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	// Layer 1: best-effort cache fast path. Errors fall through to the DB.
	if req.Reference != "" {
		seen, err := s.refCache.Seen(ctx, req.Reference)
		if err != nil {
			s.log.Warn().Err(err).Str("reference", req.Reference).Msg("reference cache check failed, falling through to DB")
		} else if seen {
			return s.currentWallet(ctx, req.WalletID)
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Layer 2: authoritative duplicate check inside the transaction.
	if req.Reference != "" {
		existing, err := s.txRepo.GetByReference(ctx, dbTx, req.Reference)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("reference check: %w", err))
		}
		if existing != nil {
			return s.currentWallet(ctx, req.WalletID)
		}
	}

	// Lock & get wallet
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, req.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	now := time.Now().UTC()
	newBalance := wallet.Balance + req.Amount

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := &domain.Transaction{
		ID:        uuid.New(),
		WalletID:  wallet.ID,
		Amount:    req.Amount,
		Type:      domain.TransactionTypeFund,
		Reference: optionalReference(req.Reference),
		CreatedAt: now,
	}
	if err := s.txRepo.Create(ctx, dbTx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			// Lost the race against a concurrent retry carrying the same
			// reference. Their commit already applied the credit.
			_ = dbTx.Rollback(ctx)
			return s.currentWallet(ctx, req.WalletID)
		}
		return nil, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.markReference(ctx, req.Reference)

	wallet.Balance = newBalance
	wallet.UpdatedAt = now

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Int64("amount", req.Amount).
		Int64("balance", wallet.Balance).
		Msg("wallet funded")

	return wallet, nil
}

// Transfer moves funds between two wallets, recording a TRANSFER_OUT and a
// TRANSFER_IN entry atomically. A repeated reference yields a duplicate
// result with no balance change.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.TransferResult, error) {
	// Fail fast, before any store access.
	if req.FromWalletID == req.ToWalletID {
		return nil, apperror.ErrSameWalletTransfer()
	}
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	outRef := domain.OutboundReference(req.Reference)

	if req.Reference != "" {
		seen, err := s.refCache.Seen(ctx, outRef)
		if err != nil {
			s.log.Warn().Err(err).Str("reference", req.Reference).Msg("reference cache check failed, falling through to DB")
		} else if seen {
			return duplicateResult(req.Reference), nil
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if req.Reference != "" {
		existing, err := s.txRepo.GetByReference(ctx, dbTx, outRef)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("reference check: %w", err))
		}
		if existing != nil {
			return duplicateResult(req.Reference), nil
		}
	}

	// Lock both wallets in a stable order so two opposing transfers cannot
	// deadlock.
	firstID, secondID := req.FromWalletID, req.ToWalletID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}

	first, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, firstID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	second, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, secondID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if first == nil || second == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	sender, receiver := first, second
	if sender.ID != req.FromWalletID {
		sender, receiver = receiver, sender
	}

	if !sender.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, sender.ID, sender.Balance-req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit sender: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, receiver.ID, receiver.Balance+req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit receiver: %w", err))
	}

	now := time.Now().UTC()
	entries := []*domain.Transaction{
		{
			ID:        uuid.New(),
			WalletID:  sender.ID,
			Amount:    req.Amount,
			Type:      domain.TransactionTypeTransferOut,
			Reference: transferReference(req.Reference, domain.OutboundReference),
			CreatedAt: now,
		},
		{
			ID:        uuid.New(),
			WalletID:  receiver.ID,
			Amount:    req.Amount,
			Type:      domain.TransactionTypeTransferIn,
			Reference: transferReference(req.Reference, domain.InboundReference),
			CreatedAt: now,
		},
	}
	if err := s.txRepo.CreateMany(ctx, dbTx, entries); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			// A concurrent retry with the same reference committed first.
			return duplicateResult(req.Reference), nil
		}
		return nil, apperror.InternalError(fmt.Errorf("create ledger entries: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if req.Reference != "" {
		s.markReference(ctx, outRef)
	}

	s.log.Info().
		Str("from_wallet_id", req.FromWalletID.String()).
		Str("to_wallet_id", req.ToWalletID.String()).
		Int64("amount", req.Amount).
		Msg("transfer completed")

	return &domain.TransferResult{
		Status:       domain.TransferStatusSuccess,
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		Amount:       req.Amount,
	}, nil
}

// currentWallet returns the wallet's committed state, used for the
// idempotent duplicate-fund response.
func (s *LedgerServiceImpl) currentWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// markReference records an applied reference in the cache (best-effort).
func (s *LedgerServiceImpl) markReference(ctx context.Context, reference string) {
	if reference == "" {
		return
	}
	if err := s.refCache.Mark(ctx, reference, referenceTTL); err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("failed to mark reference in cache")
	}
}

func duplicateResult(reference string) *domain.TransferResult {
	return &domain.TransferResult{
		Status:    domain.TransferStatusDuplicate,
		Reference: reference,
	}
}

func optionalReference(reference string) *string {
	if reference == "" {
		return nil
	}
	return &reference
}

func transferReference(reference string, derive func(string) string) *string {
	if reference == "" {
		return nil
	}
	derived := derive(reference)
	return &derived
}
