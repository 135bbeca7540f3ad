package application

import (
	"context"

	"stakearena/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations.
// Every state-mutating engine operation runs inside one unit of work so that
// the match row lock, the credit movements, and the cached lock flags commit
// or roll back together, with buffered events flushed only on commit.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() interfaces.UserRepository
	TeamRepository() interfaces.TeamRepository
	MatchRepository() interfaces.MatchRepository
	EscrowRepository() interfaces.EscrowRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
