package interfaces

import (
	"context"
	"time"

	"stakearena/domain/entities"
	"stakearena/domain/events"
)

// MatchFilter narrows ListMatches queries
type MatchFilter struct {
	Status   *entities.MatchStatus
	GameID   *string
	Region   *string
	MinWager *int64
	MaxWager *int64
	Limit    int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user with their per-game ELO map, nil if missing
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByIDForUpdate retrieves a user locking the row for the transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error)

	// Create creates a new user with the initial credits
	Create(ctx context.Context, username string, initialCredits int64) (*entities.User, error)

	// GetByUsername retrieves a user by username, nil if missing
	GetByUsername(ctx context.Context, username string) (*entities.User, error)

	// UpdateCredits updates a user's credit balance
	UpdateCredits(ctx context.Context, userID int64, newCredits int64) error

	// UpdateRating updates a user's disciplinary rating
	UpdateRating(ctx context.Context, userID int64, newRating int) error

	// SetMatchmakingLocked writes the cached lock flag
	SetMatchmakingLocked(ctx context.Context, userID int64, locked bool) error

	// UpsertElo writes a user's per-game ELO
	UpsertElo(ctx context.Context, userID int64, gameID string, elo int) error
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// GetByID retrieves a team with roster and ELO map, nil if missing
	GetByID(ctx context.Context, id int64) (*entities.Team, error)

	// Create creates a team and its initial roster
	Create(ctx context.Context, team *entities.Team) error

	// UpdateRecord writes a team's win/loss counters
	UpdateRecord(ctx context.Context, teamID int64, wins, losses int) error

	// UpsertElo writes a team's per-game ELO
	UpsertElo(ctx context.Context, teamID int64, gameID string, elo int) error
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	// Create persists a new match and any pre-seeded participants
	Create(ctx context.Context, match *entities.Match) error

	// GetByID retrieves a match with participants and evidence, nil if missing
	GetByID(ctx context.Context, id int64) (*entities.Match, error)

	// GetByIDForUpdate retrieves a match locking the match row for the
	// transaction, so racing mutations serialize per match
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Match, error)

	// GetByInviteCode resolves a private lobby by its invite code
	GetByInviteCode(ctx context.Context, code string) (*entities.Match, error)

	// Update writes the match's mutable columns (status, prize pool, winner,
	// deadline, timestamps). The write is guarded by the status the match had
	// when it was read; a lost race surfaces as entities.ErrInvalidTransition.
	Update(ctx context.Context, match *entities.Match, expectedStatus entities.MatchStatus) error

	// AddParticipant appends a user to a side
	AddParticipant(ctx context.Context, p *entities.MatchParticipant) error

	// SetParticipantReady idempotently marks a lobby participant ready
	SetParticipantReady(ctx context.Context, matchID, userID int64) error

	// AddEvidence inserts a dispute submission; returns false when the user
	// already has one (first submission wins, never overwritten)
	AddEvidence(ctx context.Context, e *entities.Evidence) (bool, error)

	// List returns matches matching the filter, newest first
	List(ctx context.Context, filter MatchFilter) ([]*entities.Match, error)

	// GetExpiredDisputes returns matches whose dispute deadline has lapsed
	// and whose status still allows auto-resolution
	GetExpiredDisputes(ctx context.Context, now time.Time) ([]*entities.Match, error)

	// GetNextDisputeDeadline returns the earliest pending dispute deadline,
	// nil when no match is awaiting auto-resolution
	GetNextDisputeDeadline(ctx context.Context) (*time.Time, error)

	// CountLockInducingByUser derives the matchmaking lock from match state:
	// matches the user participates in with a lock-inducing status, excluding
	// disputes the user has already submitted evidence for
	CountLockInducingByUser(ctx context.Context, userID int64) (int, error)
}

// EscrowRepository defines the interface for the credit movement ledger
type EscrowRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *entities.EscrowEntry) error

	// GetByUser returns the newest ledger entries for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.EscrowEntry, error)

	// GetByMatch returns all ledger entries tied to a match
	GetByMatch(ctx context.Context, matchID int64) ([]*entities.EscrowEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding database
// transaction commits. Flush publishes the buffer, Discard drops it.
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
