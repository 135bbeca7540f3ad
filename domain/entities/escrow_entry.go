package entities

import "time"

// EscrowEntry represents one historical credit movement. Every debit, payout,
// refund and transfer in the system writes exactly one entry, making the
// ledger the audit trail for the conservation invariant.
type EscrowEntry struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	MatchID         *int64          `db:"match_id"`
	BalanceBefore   int64           `db:"balance_before"`
	BalanceAfter    int64           `db:"balance_after"`
	ChangeAmount    int64           `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	Metadata        map[string]any  `db:"metadata"`
	CreatedAt       time.Time       `db:"created_at"`
}

// IsPositiveChange returns true if the change amount is positive
func (e *EscrowEntry) IsPositiveChange() bool {
	return e.ChangeAmount > 0
}

// IsNegativeChange returns true if the change amount is negative
func (e *EscrowEntry) IsNegativeChange() bool {
	return e.ChangeAmount < 0
}
