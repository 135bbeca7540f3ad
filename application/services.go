package application

import (
	"stakearena/domain/interfaces"
	"stakearena/domain/services"
)

// ServiceSet bundles the domain services wired to one unit of work. A set is
// built per operation, after Begin, so every service shares the same
// transaction and transactional event buffer.
type ServiceSet struct {
	Users    interfaces.UserService
	Teams    interfaces.TeamService
	Matches  interfaces.MatchService
	Disputes interfaces.DisputeService
	Escrow   interfaces.EscrowService
	Locks    interfaces.LockService
}

// NewServiceSet wires the domain services against an already-begun unit of work
func NewServiceSet(uow UnitOfWork) *ServiceSet {
	userRepo := uow.UserRepository()
	teamRepo := uow.TeamRepository()
	matchRepo := uow.MatchRepository()
	escrowRepo := uow.EscrowRepository()
	bus := uow.EventBus()

	escrow := services.NewEscrowService(userRepo, escrowRepo, bus)
	rating := services.NewRatingService(userRepo, teamRepo)
	locks := services.NewLockService(userRepo, matchRepo)

	return &ServiceSet{
		Users:    services.NewUserService(userRepo, escrowRepo, bus),
		Teams:    services.NewTeamService(teamRepo, userRepo, bus),
		Matches:  services.NewMatchService(matchRepo, userRepo, teamRepo, escrow, rating, locks, bus),
		Disputes: services.NewDisputeService(matchRepo, userRepo, escrow, rating, locks, bus),
		Escrow:   escrow,
		Locks:    locks,
	}
}
