package services

import (
	"context"
	"fmt"

	"stakearena/domain/entities"
	"stakearena/domain/interfaces"
	"stakearena/domain/utils"
)

type escrowService struct {
	userRepo       interfaces.UserRepository
	escrowRepo     interfaces.EscrowRepository
	eventPublisher interfaces.EventPublisher
}

// NewEscrowService creates a new escrow service
func NewEscrowService(userRepo interfaces.UserRepository, escrowRepo interfaces.EscrowRepository, eventPublisher interfaces.EventPublisher) interfaces.EscrowService {
	return &escrowService{
		userRepo:       userRepo,
		escrowRepo:     escrowRepo,
		eventPublisher: eventPublisher,
	}
}

// Debit subtracts credits from a user. A debit that would drive the balance
// negative is rejected before any mutation.
func (s *escrowService) Debit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, matchID *int64) (*entities.EscrowEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	user, err := s.userRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, entities.ErrNotFound)
	}
	if !user.CanAfford(amount) {
		return nil, fmt.Errorf("user %d has %d credits, needs %d: %w",
			userID, user.Credits, amount, entities.ErrInsufficientFunds)
	}

	return s.apply(ctx, user, -amount, txType, matchID)
}

// Credit adds credits to a user
func (s *escrowService) Credit(ctx context.Context, userID int64, amount int64, txType entities.TransactionType, matchID *int64) (*entities.EscrowEntry, error) {
	if amount < 0 {
		return nil, fmt.Errorf("credit amount must not be negative, got %d", amount)
	}

	user, err := s.userRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, entities.ErrNotFound)
	}

	return s.apply(ctx, user, amount, txType, matchID)
}

// History returns the newest ledger entries for a user
func (s *escrowService) History(ctx context.Context, userID int64, limit int) ([]*entities.EscrowEntry, error) {
	entries, err := s.escrowRepo.GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow history: %w", err)
	}
	return entries, nil
}

func (s *escrowService) apply(ctx context.Context, user *entities.User, change int64, txType entities.TransactionType, matchID *int64) (*entities.EscrowEntry, error) {
	newBalance := user.Credits + change
	if err := s.userRepo.UpdateCredits(ctx, user.ID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update credits for user %d: %w", user.ID, err)
	}

	entry := &entities.EscrowEntry{
		UserID:          user.ID,
		MatchID:         matchID,
		BalanceBefore:   user.Credits,
		BalanceAfter:    newBalance,
		ChangeAmount:    change,
		TransactionType: txType,
	}
	if err := utils.RecordEscrowChange(ctx, s.escrowRepo, s.eventPublisher, entry); err != nil {
		return nil, err
	}

	user.Credits = newBalance
	return entry, nil
}
