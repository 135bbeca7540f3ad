package events

import "stakearena/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeMatchCreated      EventType = "match_created"
	EventTypeMatchStarted      EventType = "match_started"
	EventTypeMatchSettled      EventType = "match_settled"
	EventTypeDisputeOpened     EventType = "dispute_opened"
	EventTypeEvidenceSubmitted EventType = "evidence_submitted"
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeUserCreated       EventType = "user_created"
	EventTypeTeamCreated       EventType = "team_created"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// MatchCreatedEvent represents a newly opened match
type MatchCreatedEvent struct {
	MatchID   int64
	GameID    string
	CreatorID int64
	Wager     int64
	TeamSize  int
	Privacy   string
}

func (e MatchCreatedEvent) Type() EventType {
	return EventTypeMatchCreated
}

// MatchStartedEvent represents a match flipping to in-progress
type MatchStartedEvent struct {
	MatchID   int64
	GameID    string
	PrizePool int64
}

func (e MatchStartedEvent) Type() EventType {
	return EventTypeMatchStarted
}

// MatchSettledEvent represents a match reaching a terminal status
type MatchSettledEvent struct {
	MatchID    int64
	GameID     string
	Status     entities.MatchStatus
	WinnerSide *entities.Side
	PrizePool  int64
}

func (e MatchSettledEvent) Type() EventType {
	return EventTypeMatchSettled
}

// DisputeOpenedEvent represents a participant contesting a result
type DisputeOpenedEvent struct {
	MatchID     int64
	InitiatorID int64
	Deadline    int64 // unix seconds
}

func (e DisputeOpenedEvent) Type() EventType {
	return EventTypeDisputeOpened
}

// EvidenceSubmittedEvent represents a dispute evidence submission
type EvidenceSubmittedEvent struct {
	MatchID   int64
	UserID    int64
	NewStatus entities.MatchStatus
}

func (e EvidenceSubmittedEvent) Type() EventType {
	return EventTypeEvidenceSubmitted
}

// BalanceChangeEvent represents a credit movement that occurred
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	TransactionType entities.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID         int64
	Username       string
	InitialCredits int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// TeamCreatedEvent represents a new team registration
type TeamCreatedEvent struct {
	TeamID    int64
	Name      string
	CaptainID int64
	MemberIDs []int64
}

func (e TeamCreatedEvent) Type() EventType {
	return EventTypeTeamCreated
}
