package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeFund        TransactionType = "FUND"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
)

// Transaction is an immutable ledger entry. Amount is the magnitude of the
// movement; the direction is implied by Type. Reference is a caller-supplied
// idempotency key, unique across all entries when present.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	Amount    int64           `json:"amount"`
	Type      TransactionType `json:"type"`
	Reference *string         `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransferStatus is the outcome of a transfer request.
type TransferStatus string

const (
	TransferStatusSuccess   TransferStatus = "success"
	TransferStatusDuplicate TransferStatus = "duplicate"
)

// TransferResult describes a completed or deduplicated transfer.
type TransferResult struct {
	Status       TransferStatus `json:"status"`
	FromWalletID uuid.UUID      `json:"from_wallet_id,omitempty"`
	ToWalletID   uuid.UUID      `json:"to_wallet_id,omitempty"`
	Amount       int64          `json:"amount,omitempty"`
	Reference    string         `json:"reference,omitempty"`
}

// ErrDuplicateReference is returned by transaction repositories when an
// insert collides with the unique constraint on reference. The ledger core
// converts it into the idempotent duplicate response.
var ErrDuplicateReference = errors.New("ledger reference already used")

// OutboundReference derives the reference stored on the TRANSFER_OUT leg.
func OutboundReference(reference string) string {
	return reference + "-out"
}

// InboundReference derives the reference stored on the TRANSFER_IN leg.
func InboundReference(reference string) string {
	return reference + "-in"
}
