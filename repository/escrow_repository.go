package repository

import (
	"context"
	"fmt"

	"stakearena/database"
	"stakearena/domain/entities"

	"github.com/jackc/pgx/v5"
)

// EscrowRepository implements the credit movement ledger
type EscrowRepository struct {
	q Queryable
}

// NewEscrowRepository creates a new escrow repository
func NewEscrowRepository(db *database.DB) *EscrowRepository {
	return &EscrowRepository{q: db.Pool}
}

// newEscrowRepository creates a new escrow repository bound to a transaction
func newEscrowRepository(tx Queryable) *EscrowRepository {
	return &EscrowRepository{q: tx}
}

// Record creates a new ledger entry
func (r *EscrowRepository) Record(ctx context.Context, entry *entities.EscrowEntry) error {
	query := `
		INSERT INTO escrow_entries (
			user_id, match_id, balance_before, balance_after,
			change_amount, transaction_type, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.MatchID,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.ChangeAmount,
		entry.TransactionType,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record escrow entry for user %d: %w", entry.UserID, err)
	}
	return nil
}

// GetByUser returns the newest ledger entries for a user
func (r *EscrowRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.EscrowEntry, error) {
	query := `
		SELECT id, user_id, match_id, balance_before, balance_after,
		       change_amount, transaction_type, metadata, created_at
		FROM escrow_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// GetByMatch returns all ledger entries tied to a match
func (r *EscrowRepository) GetByMatch(ctx context.Context, matchID int64) ([]*entities.EscrowEntry, error) {
	query := `
		SELECT id, user_id, match_id, balance_before, balance_after,
		       change_amount, transaction_type, metadata, created_at
		FROM escrow_entries
		WHERE match_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow entries for match %d: %w", matchID, err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*entities.EscrowEntry, error) {
	var entries []*entities.EscrowEntry
	for rows.Next() {
		var entry entities.EscrowEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.MatchID,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.ChangeAmount,
			&entry.TransactionType,
			&entry.Metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escrow entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escrow entries: %w", err)
	}
	return entries, nil
}
