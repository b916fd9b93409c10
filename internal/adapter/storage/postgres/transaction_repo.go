package postgres

import (
	"context"
	"fmt"
	"time"

	"silverhand-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// TransactionRepo implements ports.TransactionRepository. Records are
// append-only; only the status, processed_at and failure_reason columns
// ever change after insert.
type TransactionRepo struct {
	pool Pool
}

func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

func (r *TransactionRepo) Append(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (id, seq, wallet_address, direction, counterparty, amount, fee, status, link_id, failure_reason, timestamp, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		tx.ID, tx.Seq, tx.WalletAddress, tx.Direction, tx.Counterparty,
		tx.Amount, tx.Fee, tx.Status, tx.LinkID, tx.FailureReason,
		tx.Timestamp, tx.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, processedAt time.Time, reason *string) error {
	query := `UPDATE transactions SET status=$1, processed_at=$2, failure_reason=$3 WHERE id=$4`

	tag, err := r.pool.Exec(ctx, query, status, processedAt, reason, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not found", id)
	}
	return nil
}

func (r *TransactionRepo) All(ctx context.Context, walletAddress string) ([]domain.Transaction, error) {
	query := `SELECT id, seq, wallet_address, direction, counterparty, amount, fee, status, link_id, failure_reason, timestamp, processed_at
		FROM transactions WHERE wallet_address = $1 ORDER BY seq ASC`

	rows, err := r.pool.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.Seq, &tx.WalletAddress, &tx.Direction, &tx.Counterparty,
			&tx.Amount, &tx.Fee, &tx.Status, &tx.LinkID, &tx.FailureReason,
			&tx.Timestamp, &tx.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
