package services

import (
	"context"
	"fmt"

	"stakearena/config"
	"stakearena/domain/entities"
	"stakearena/domain/interfaces"
	"stakearena/domain/utils"

	log "github.com/sirupsen/logrus"
)

type userService struct {
	userRepo       interfaces.UserRepository
	escrowRepo     interfaces.EscrowRepository
	eventPublisher interfaces.EventPublisher
}

// NewUserService creates a new user service
func NewUserService(userRepo interfaces.UserRepository, escrowRepo interfaces.EscrowRepository, eventPublisher interfaces.EventPublisher) interfaces.UserService {
	return &userService{
		userRepo:       userRepo,
		escrowRepo:     escrowRepo,
		eventPublisher: eventPublisher,
	}
}

// GetOrCreateUser retrieves an existing user or creates one with the
// configured starting credits
func (s *userService) GetOrCreateUser(ctx context.Context, username string) (*entities.User, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	starting := config.Get().StartingCredits
	user, err = s.userRepo.Create(ctx, username, starting)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	entry := &entities.EscrowEntry{
		UserID:          user.ID,
		BalanceBefore:   0,
		BalanceAfter:    starting,
		ChangeAmount:    starting,
		TransactionType: entities.TransactionTypeInitial,
		Metadata:        map[string]any{"username": username},
	}
	if err := utils.RecordEscrowChange(ctx, s.escrowRepo, s.eventPublisher, entry); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":   user.ID,
		"username": username,
		"credits":  starting,
	}).Info("User created")

	return user, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, entities.ErrNotFound)
	}
	return user, nil
}

// TransferBetweenUsers moves credits from sender to recipient
func (s *userService) TransferBetweenUsers(ctx context.Context, fromUserID, toUserID int64, amount int64) error {
	if fromUserID == toUserID {
		return fmt.Errorf("cannot transfer credits to yourself")
	}
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}

	// Lock rows in a stable order so concurrent opposing transfers cannot
	// deadlock.
	firstID, secondID := fromUserID, toUserID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := s.userRepo.GetByIDForUpdate(ctx, firstID)
	if err != nil {
		return fmt.Errorf("failed to get user %d: %w", firstID, err)
	}
	second, err := s.userRepo.GetByIDForUpdate(ctx, secondID)
	if err != nil {
		return fmt.Errorf("failed to get user %d: %w", secondID, err)
	}
	if first == nil || second == nil {
		return fmt.Errorf("transfer party: %w", entities.ErrNotFound)
	}

	sender, recipient := first, second
	if sender.ID != fromUserID {
		sender, recipient = second, first
	}
	if !sender.CanAfford(amount) {
		return fmt.Errorf("sender has %d credits, needs %d: %w",
			sender.Credits, amount, entities.ErrInsufficientFunds)
	}

	if err := s.userRepo.UpdateCredits(ctx, sender.ID, sender.Credits-amount); err != nil {
		return fmt.Errorf("failed to debit sender: %w", err)
	}
	if err := s.userRepo.UpdateCredits(ctx, recipient.ID, recipient.Credits+amount); err != nil {
		return fmt.Errorf("failed to credit recipient: %w", err)
	}

	outEntry := &entities.EscrowEntry{
		UserID:          sender.ID,
		BalanceBefore:   sender.Credits,
		BalanceAfter:    sender.Credits - amount,
		ChangeAmount:    -amount,
		TransactionType: entities.TransactionTypeTransferOut,
		Metadata:        map[string]any{"recipient": recipient.ID},
	}
	if err := utils.RecordEscrowChange(ctx, s.escrowRepo, s.eventPublisher, outEntry); err != nil {
		return err
	}

	inEntry := &entities.EscrowEntry{
		UserID:          recipient.ID,
		BalanceBefore:   recipient.Credits,
		BalanceAfter:    recipient.Credits + amount,
		ChangeAmount:    amount,
		TransactionType: entities.TransactionTypeTransferIn,
		Metadata:        map[string]any{"sender": sender.ID},
	}
	return utils.RecordEscrowChange(ctx, s.escrowRepo, s.eventPublisher, inEntry)
}
