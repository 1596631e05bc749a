package ports

import (
	"context"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
)

// FundRequest carries the parameters of a funding operation.
// Reference is an optional idempotency key ("" = none).
type FundRequest struct {
	WalletID  uuid.UUID
	Amount    int64
	Reference string
}

// TransferRequest carries the parameters of a wallet-to-wallet transfer.
type TransferRequest struct {
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	Amount       int64
	Reference    string
}

// WalletDetail is a wallet together with its ordered ledger history.
type WalletDetail struct {
	Wallet       domain.Wallet
	Transactions []domain.Transaction
}

// LedgerService is the transactional ledger core. Every mutation executes
// inside one database transaction and either commits fully or leaves no
// trace.
type LedgerService interface {
	CreateWallet(ctx context.Context, currency string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*WalletDetail, error)
	Fund(ctx context.Context, req FundRequest) (*domain.Wallet, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.TransferResult, error)
}

// ReferenceCache is a best-effort duplicate fast path for idempotency
// references. The database check inside the ledger transaction stays
// authoritative; cache failures must never fail an operation.
type ReferenceCache interface {
	Seen(ctx context.Context, reference string) (bool, error)
	Mark(ctx context.Context, reference string, ttl time.Duration) error
}
