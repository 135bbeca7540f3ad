package infrastructure

import (
	"stakearena/application"
	"stakearena/database"
	"stakearena/domain/interfaces"
	"stakearena/repository"
)

// NewUnitOfWorkFactory creates a factory whose units of work buffer events in
// a per-transaction publisher and flush them to the real publisher on commit
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) application.UnitOfWorkFactory {
	return repository.NewUnitOfWorkFactory(db, func() interfaces.TransactionalEventPublisher {
		return NewTransactionalPublisher(eventPublisher)
	})
}
