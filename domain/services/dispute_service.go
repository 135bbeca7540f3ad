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

type disputeService struct {
	matchRepo      interfaces.MatchRepository
	userRepo       interfaces.UserRepository
	locks          interfaces.LockService
	eventPublisher interfaces.EventPublisher
	settler        *settler
}

// NewDisputeService creates a new dispute state machine service
func NewDisputeService(
	matchRepo interfaces.MatchRepository,
	userRepo interfaces.UserRepository,
	escrow interfaces.EscrowService,
	rating *RatingService,
	locks interfaces.LockService,
	eventPublisher interfaces.EventPublisher,
) interfaces.DisputeService {
	return &disputeService{
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		locks:          locks,
		eventPublisher: eventPublisher,
		settler: &settler{
			matchRepo:      matchRepo,
			escrow:         escrow,
			rating:         rating,
			locks:          locks,
			eventPublisher: eventPublisher,
		},
	}
}

// OpenDispute moves an in-progress match into evidence collection. Every
// participant stays matchmaking-locked until they submit evidence or the
// match settles.
func (s *disputeService) OpenDispute(ctx context.Context, matchID, initiatorID int64) (*entities.Match, error) {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	if match.Status != entities.MatchStatusInProgress {
		return nil, fmt.Errorf("match %d in status %s cannot be disputed: %w",
			matchID, match.Status, entities.ErrInvalidTransition)
	}
	if !match.IsParticipant(initiatorID) {
		return nil, fmt.Errorf("user %d is not in match %d: %w", initiatorID, matchID, entities.ErrNotFound)
	}

	deadline := time.Now().Add(config.Get().DisputeWindow)
	match.Status = entities.MatchStatusDisputed
	match.DisputeDeadline = &deadline
	if err := s.matchRepo.Update(ctx, match, entities.MatchStatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to open dispute: %w", err)
	}

	ids := make([]int64, 0, len(match.Participants))
	for _, p := range match.Participants {
		ids = append(ids, p.UserID)
	}
	if err := s.locks.Lock(ctx, ids...); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"matchID":     match.ID,
		"initiatorID": initiatorID,
		"deadline":    deadline.UTC(),
	}).Info("Dispute opened")

	if err := s.eventPublisher.Publish(events.DisputeOpenedEvent{
		MatchID:     match.ID,
		InitiatorID: initiatorID,
		Deadline:    deadline.Unix(),
	}); err != nil {
		log.WithError(err).Error("Failed to publish dispute opened event")
	}

	return match, nil
}

// SubmitEvidence records a participant's evidence and advances the dispute.
// The submitter's own matchmaking lock lifts immediately, independent of the
// match outcome. A repeat submission by the same user is ignored.
func (s *disputeService) SubmitEvidence(ctx context.Context, matchID, userID int64, youtubeLink, message string) (*entities.Match, error) {
	if !entities.IsValidYoutubeLink(youtubeLink) {
		return nil, fmt.Errorf("link %q: %w", youtubeLink, entities.ErrInvalidEvidenceLink)
	}

	match, err := s.matchRepo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	if match.Status != entities.MatchStatusDisputed && match.Status != entities.MatchStatusAwaitingOpponentEvidence {
		return nil, fmt.Errorf("match %d in status %s does not accept evidence: %w",
			matchID, match.Status, entities.ErrInvalidTransition)
	}
	side, ok := match.SideOf(userID)
	if !ok {
		return nil, fmt.Errorf("user %d is not in match %d: %w", userID, matchID, entities.ErrNotFound)
	}

	// First submission wins; a second submission by the same user changes
	// nothing, including the deadline.
	if match.EvidenceFrom(userID) != nil {
		return match, nil
	}
	sideRepresented := match.SideHasEvidence(side)

	evidence := &entities.Evidence{
		MatchID:     matchID,
		UserID:      userID,
		YoutubeLink: youtubeLink,
		Message:     message,
		SubmittedAt: time.Now(),
	}
	inserted, err := s.matchRepo.AddEvidence(ctx, evidence)
	if err != nil {
		return nil, fmt.Errorf("failed to record evidence: %w", err)
	}
	if inserted {
		match.Evidence = append(match.Evidence, evidence)
	}

	if err := s.locks.Unlock(ctx, userID); err != nil {
		return nil, err
	}

	prevStatus := match.Status
	if match.SideHasEvidence(side.Opponent()) {
		// Both sides represented: the deadline no longer drives resolution,
		// a human settles from here.
		match.Status = entities.MatchStatusAwaitingAdminReview
		match.DisputeDeadline = nil
	} else {
		match.Status = entities.MatchStatusAwaitingOpponentEvidence
		// Only a side's first submission starts the grace window. Teammates
		// submitting afterwards must not keep extending the opponent's clock.
		if !sideRepresented {
			grace := time.Now().Add(config.Get().EvidenceGraceWindow)
			match.DisputeDeadline = &grace
		}
	}
	if err := s.matchRepo.Update(ctx, match, prevStatus); err != nil {
		return nil, fmt.Errorf("failed to advance dispute: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID": match.ID,
		"userID":  userID,
		"status":  match.Status,
	}).Info("Dispute evidence submitted")

	if err := s.eventPublisher.Publish(events.EvidenceSubmittedEvent{
		MatchID:   match.ID,
		UserID:    userID,
		NewStatus: match.Status,
	}); err != nil {
		log.WithError(err).Error("Failed to publish evidence submitted event")
	}

	return match, nil
}

// ExpireDeadline auto-resolves a match whose dispute deadline lapsed. If the
// match already moved on (a racing submission or settlement won), this is a
// no-op.
func (s *disputeService) ExpireDeadline(ctx context.Context, matchID int64) error {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	if !match.Status.CanAutoResolve() || !match.DeadlineLapsed(time.Now()) {
		return nil
	}

	aHas := match.SideHasEvidence(entities.SideA)
	bHas := match.SideHasEvidence(entities.SideB)

	var winner *entities.Side
	switch {
	case aHas && bHas:
		// Unreachable through submitEvidence, which moves the match to admin
		// review as soon as both sides are represented. Guard anyway.
		prevStatus := match.Status
		match.Status = entities.MatchStatusAwaitingAdminReview
		match.DisputeDeadline = nil
		return s.matchRepo.Update(ctx, match, prevStatus)
	case aHas:
		side := entities.SideA
		winner = &side
	case bHas:
		side := entities.SideB
		winner = &side
	}

	log.WithFields(log.Fields{
		"matchID":  match.ID,
		"deadline": match.DisputeDeadline,
		"refund":   winner == nil,
	}).Info("Dispute deadline lapsed, auto-resolving")

	return s.settler.settle(ctx, match, winner)
}

// AdminForceSettle forces a winner, or a refund when winner is nil, from any
// dispute-path status. The optional rating penalty hits the losing side's
// disciplinary score; it never touches ELO.
func (s *disputeService) AdminForceSettle(ctx context.Context, matchID int64, winner *entities.Side, ratingPenalty int) (*entities.Match, error) {
	if winner != nil && !winner.Valid() {
		return nil, fmt.Errorf("unknown side %q", *winner)
	}
	if ratingPenalty < 0 {
		return nil, fmt.Errorf("rating penalty must not be negative")
	}

	match, err := s.matchRepo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	if match.Status.IsTerminal() {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrAlreadySettled)
	}
	if !match.Status.IsDisputePath() {
		return nil, fmt.Errorf("match %d in status %s cannot be force-settled: %w",
			matchID, match.Status, entities.ErrInvalidTransition)
	}

	if err := s.settler.settle(ctx, match, winner); err != nil {
		return nil, err
	}

	if ratingPenalty > 0 && match.WinnerSide != nil {
		for _, uid := range match.SidePlayers(match.WinnerSide.Opponent()) {
			user, err := s.userRepo.GetByID(ctx, uid)
			if err != nil {
				return nil, fmt.Errorf("failed to get user %d: %w", uid, err)
			}
			if user == nil {
				return nil, fmt.Errorf("user %d: %w", uid, entities.ErrNotFound)
			}
			if err := s.userRepo.UpdateRating(ctx, uid, user.Rating-ratingPenalty); err != nil {
				return nil, fmt.Errorf("failed to penalize user %d: %w", uid, err)
			}
		}
	}

	return match, nil
}
