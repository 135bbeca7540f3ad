package entities

// TransactionType represents the type of credit movement
type TransactionType string

// All transaction types supported by the system
const (
	// Match settlement transactions
	TransactionTypeMatchStake  TransactionType = "match_stake"
	TransactionTypeMatchPayout TransactionType = "match_payout"
	TransactionTypeMatchRefund TransactionType = "match_refund"

	// Transfer transactions
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"

	// System transactions
	TransactionTypeInitial     TransactionType = "initial"
	TransactionTypeAdminAdjust TransactionType = "admin_adjust"
)

// IsMatchRelated returns true if the transaction moves a match stake or prize
func (tt TransactionType) IsMatchRelated() bool {
	return tt == TransactionTypeMatchStake ||
		tt == TransactionTypeMatchPayout ||
		tt == TransactionTypeMatchRefund
}

// IsTransferType returns true if the transaction type represents a transfer
func (tt TransactionType) IsTransferType() bool {
	return tt == TransactionTypeTransferIn || tt == TransactionTypeTransferOut
}

// IsSystemGenerated returns true if the transaction type is system-generated
func (tt TransactionType) IsSystemGenerated() bool {
	return tt == TransactionTypeInitial || tt == TransactionTypeAdminAdjust
}
