package utils

import (
	"context"
	"fmt"

	"stakearena/domain/entities"
	"stakearena/domain/events"
	"stakearena/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordEscrowChange records a ledger entry and emits the matching events.
// This is the single entry point for all credit movements in the system.
func RecordEscrowChange(ctx context.Context, escrowRepo interfaces.EscrowRepository, eventPublisher interfaces.EventPublisher, entry *entities.EscrowEntry) error {
	if err := escrowRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record escrow entry: %w", err)
	}

	event := events.BalanceChangeEvent{
		UserID:          entry.UserID,
		OldBalance:      entry.BalanceBefore,
		NewBalance:      entry.BalanceAfter,
		TransactionType: entry.TransactionType,
		ChangeAmount:    entry.ChangeAmount,
	}
	log.WithFields(log.Fields{
		"userID":          event.UserID,
		"oldBalance":      event.OldBalance,
		"newBalance":      event.NewBalance,
		"transactionType": event.TransactionType,
		"changeAmount":    event.ChangeAmount,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	// Also emit user created event if this is initial credits
	if entry.TransactionType == entities.TransactionTypeInitial {
		if username, ok := entry.Metadata["username"].(string); ok {
			userCreatedEvent := events.UserCreatedEvent{
				UserID:         entry.UserID,
				Username:       username,
				InitialCredits: entry.BalanceAfter,
			}
			if err := eventPublisher.Publish(userCreatedEvent); err != nil {
				log.WithError(err).Error("Failed to publish user created event")
			}
		}
	}

	return nil
}
