package entities

import "errors"

// Rejection errors: user-correctable, surfaced verbatim, no state mutated.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTeamFull            = errors.New("side is already full")
	ErrAlreadyJoined       = errors.New("user already joined this match")
	ErrInteractionLocked   = errors.New("user is locked by an unresolved match")
	ErrInvalidCode         = errors.New("invalid or unusable invite code")
	ErrInvalidEvidenceLink = errors.New("evidence link is not a valid YouTube URL")
	ErrLobbyNotReady       = errors.New("lobby is not full and ready")
)

// Conflict errors: a race or stale client view, retryable, no state mutated.
var (
	ErrInvalidTransition = errors.New("operation not legal in current match status")
	ErrAlreadySettled    = errors.New("match is already settled")
)

// Integrity errors: referenced records are missing or the ledger would be
// driven negative. The operation aborts entirely.
var (
	ErrNotFound = errors.New("record not found")
)

// IsRejection reports whether err is a user-correctable rejection
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrTeamFull) ||
		errors.Is(err, ErrAlreadyJoined) ||
		errors.Is(err, ErrInteractionLocked) ||
		errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrInvalidEvidenceLink) ||
		errors.Is(err, ErrLobbyNotReady)
}

// IsConflict reports whether err indicates a race or stale view
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrAlreadySettled)
}
