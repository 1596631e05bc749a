package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a monetary balance in minor currency units (e.g. cents).
// The balance is never negative after a committed operation.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	Currency  string    `json:"currency"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWallet creates a wallet with a zero balance.
func NewWallet(currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		Currency:  currency,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanDebit reports whether the wallet holds at least amount.
func (w *Wallet) CanDebit(amount int64) bool {
	return w.Balance >= amount
}
