package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a ledger entry within a database transaction. A collision
// with the unique constraint on reference surfaces as
// domain.ErrDuplicateReference.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, amount, type, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.WalletID, t.Amount, t.Type, t.Reference, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateMany inserts several ledger entries in one statement so a transfer's
// two legs land atomically.
func (r *TransactionRepo) CreateMany(ctx context.Context, tx pgx.Tx, transactions []*domain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO transactions (id, wallet_id, amount, type, reference, created_at) VALUES `)
	args := make([]any, 0, len(transactions)*6)
	for i, t := range transactions {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, t.ID, t.WalletID, t.Amount, t.Type, t.Reference, t.CreatedAt)
	}

	_, err := tx.Exec(ctx, sb.String(), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

// GetByReference fetches a ledger entry by its idempotency reference.
// It runs inside the caller's transaction so the duplicate check and the
// mutation share one atomic scope.
func (r *TransactionRepo) GetByReference(ctx context.Context, tx pgx.Tx, reference string) (*domain.Transaction, error) {
	query := `SELECT id, wallet_id, amount, type, reference, created_at
		FROM transactions WHERE reference = $1`

	t := &domain.Transaction{}
	err := tx.QueryRow(ctx, query, reference).Scan(
		&t.ID, &t.WalletID, &t.Amount, &t.Type, &t.Reference, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by reference: %w", err)
	}
	return t, nil
}

// ListByWallet fetches a wallet's full ledger history in insertion order.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT id, wallet_id, amount, type, reference, created_at
		FROM transactions WHERE wallet_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Type, &t.Reference, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
