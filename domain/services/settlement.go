package services

import (
	"context"
	"fmt"
	"time"

	"stakearena/config"
	"stakearena/domain/entities"
	"stakearena/domain/events"
	"stakearena/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// settler finalizes matches: it distributes the prize pool, applies ratings,
// writes the terminal status, and releases matchmaking locks. Both the match
// registry's report path and every dispute outcome funnel through it, so
// settlement is exactly-once regardless of which path wins a race.
type settler struct {
	matchRepo      interfaces.MatchRepository
	escrow         interfaces.EscrowService
	rating         *RatingService
	locks          interfaces.LockService
	eventPublisher interfaces.EventPublisher
}

// settle distributes the prize pool and moves the match to a terminal status.
// A nil winner refunds every participant their stake. The caller must hold
// the match row lock; a match already terminal reports ErrAlreadySettled and
// mutates nothing.
func (s *settler) settle(ctx context.Context, match *entities.Match, winner *entities.Side) error {
	if match.Status.IsTerminal() {
		return fmt.Errorf("match %d: %w", match.ID, entities.ErrAlreadySettled)
	}
	if !match.Status.IsLockInducing() {
		return fmt.Errorf("match %d in status %s cannot settle: %w",
			match.ID, match.Status, entities.ErrInvalidTransition)
	}

	// Nobody to pay on the winning side: settle as a refund, no rating change.
	if winner != nil && len(match.SidePlayers(*winner)) == 0 {
		winner = nil
	}

	prevStatus := match.Status
	pool := match.PrizePool
	now := time.Now()

	if winner != nil {
		if err := s.rating.ApplyMatchResult(ctx, match, *winner); err != nil {
			return fmt.Errorf("failed to apply ratings for match %d: %w", match.ID, err)
		}

		feeBps := int64(config.Get().PlatformFeeBps)
		payout := pool * (10000 - feeBps) / 10000
		winnerIDs := match.SidePlayers(*winner)
		share := payout / int64(len(winnerIDs))
		for _, uid := range winnerIDs {
			if _, err := s.escrow.Credit(ctx, uid, share, entities.TransactionTypeMatchPayout, &match.ID); err != nil {
				return fmt.Errorf("failed to pay out user %d: %w", uid, err)
			}
		}

		w := *winner
		match.WinnerSide = &w
		match.Status = entities.MatchStatusCompleted
	} else {
		for _, p := range match.Participants {
			if _, err := s.escrow.Credit(ctx, p.UserID, match.Wager, entities.TransactionTypeMatchRefund, &match.ID); err != nil {
				return fmt.Errorf("failed to refund user %d: %w", p.UserID, err)
			}
		}
		match.Status = entities.MatchStatusRefunded
	}

	// The pool has been fully distributed (fee retained by the platform).
	match.PrizePool = 0
	match.SettledAt = &now
	match.DisputeDeadline = nil

	if err := s.matchRepo.Update(ctx, match, prevStatus); err != nil {
		return fmt.Errorf("failed to finalize match %d: %w", match.ID, err)
	}

	// The match is terminal now; re-derive every participant's lock so the
	// cached flag follows the status change in the same transaction.
	for _, p := range match.Participants {
		if _, err := s.locks.Recompute(ctx, p.UserID); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"matchID":   match.ID,
		"status":    match.Status,
		"prizePool": pool,
	}).Info("Match settled")

	if err := s.eventPublisher.Publish(events.MatchSettledEvent{
		MatchID:    match.ID,
		GameID:     match.GameID,
		Status:     match.Status,
		WinnerSide: match.WinnerSide,
		PrizePool:  pool,
	}); err != nil {
		log.WithError(err).Error("Failed to publish match settled event")
	}

	return nil
}
