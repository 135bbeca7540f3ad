package interfaces

import (
	"context"

	"stakearena/domain/entities"
)

// CreateMatchParams carries the createMatch inputs
type CreateMatchParams struct {
	CreatorID int64
	GameID    string
	Wager     int64
	TeamSize  entities.TeamSize
	Region    string
	Platform  string
	Privacy   entities.MatchPrivacy
	TeamID    *int64
}

// MatchService defines the match registry operations
type MatchService interface {
	// CreateMatch validates and opens a match, auto-placing the creator on
	// side A and escrowing their stake
	CreateMatch(ctx context.Context, params CreateMatchParams) (*entities.Match, error)

	// JoinTeam adds a user to one side, debiting their stake. Filling a
	// public match flips it to in-progress.
	JoinTeam(ctx context.Context, matchID, userID int64, side entities.Side) (*entities.Match, error)

	// JoinByInviteCode resolves a private lobby by code and joins the
	// smaller side
	JoinByInviteCode(ctx context.Context, code string, userID int64) (*entities.Match, error)

	// MarkReady idempotently marks a private-lobby participant ready
	MarkReady(ctx context.Context, matchID, userID int64) error

	// StartPrivateMatch flips a full, all-ready lobby to in-progress
	StartPrivateMatch(ctx context.Context, matchID, userID int64) (*entities.Match, error)

	// ReportResult settles an in-progress match with the given winner:
	// ELO updates, prize payout, participant unlock
	ReportResult(ctx context.Context, matchID, reporterID int64, winner entities.Side) (*entities.Match, error)

	// GetMatch retrieves a match by ID
	GetMatch(ctx context.Context, matchID int64) (*entities.Match, error)

	// ListMatches returns matches matching the filter
	ListMatches(ctx context.Context, filter MatchFilter) ([]*entities.Match, error)
}

// DisputeService defines the dispute state machine operations
type DisputeService interface {
	// OpenDispute moves an in-progress match into evidence collection and
	// locks every participant
	OpenDispute(ctx context.Context, matchID, initiatorID int64) (*entities.Match, error)

	// SubmitEvidence records a participant's evidence, unlocks the
	// submitter, and advances the dispute sub-state
	SubmitEvidence(ctx context.Context, matchID, userID int64, youtubeLink, message string) (*entities.Match, error)

	// ExpireDeadline auto-resolves a match whose dispute deadline lapsed:
	// the sole evidence-bearing side wins, or the match refunds
	ExpireDeadline(ctx context.Context, matchID int64) error

	// AdminForceSettle forces a winner (or refund when winner is nil) from
	// any dispute-path status, optionally penalizing the losing side's
	// disciplinary rating
	AdminForceSettle(ctx context.Context, matchID int64, winner *entities.Side, ratingPenalty int) (*entities.Match, error)
}

// EscrowService defines the credit ledger operations
type EscrowService interface {
	// Debit subtracts credits, rejecting any movement that would drive the
	// balance negative, and records a ledger entry
	Debit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, matchID *int64) (*entities.EscrowEntry, error)

	// Credit adds credits and records a ledger entry
	Credit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, matchID *int64) (*entities.EscrowEntry, error)

	// History returns the newest ledger entries for a user
	History(ctx context.Context, userID int64, limit int) ([]*entities.EscrowEntry, error)
}

// LockService defines the matchmaking lock manager
type LockService interface {
	// Lock sets the cached lock flag for each user
	Lock(ctx context.Context, userIDs ...int64) error

	// Unlock clears the cached lock flag for each user
	Unlock(ctx context.Context, userIDs ...int64) error

	// CanStartInteraction reports whether a user may create, join, or
	// dispute a wagered match. Derived from match state, never from the
	// cached flag alone.
	CanStartInteraction(ctx context.Context, userID int64) (bool, error)

	// Recompute re-derives a user's lock from match state and writes the
	// flag through, returning the derived value
	Recompute(ctx context.Context, userID int64) (bool, error)
}

// TeamService defines team roster operations
type TeamService interface {
	// CreateTeam creates a captained team. The captain is always on the
	// roster, listed or not.
	CreateTeam(ctx context.Context, name string, captainID int64, memberIDs []int64) (*entities.Team, error)

	// GetTeam retrieves a team with its roster and per-game ratings
	GetTeam(ctx context.Context, teamID int64) (*entities.Team, error)
}

// UserService defines user account operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates one with the
	// configured starting credits
	GetOrCreateUser(ctx context.Context, username string) (*entities.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID int64) (*entities.User, error)

	// TransferBetweenUsers moves credits from sender to recipient
	TransferBetweenUsers(ctx context.Context, fromUserID, toUserID int64, amount int64) error
}
