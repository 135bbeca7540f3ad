package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stakearena/domain/entities"
	"stakearena/domain/events"
	"stakearena/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type matchService struct {
	matchRepo      interfaces.MatchRepository
	userRepo       interfaces.UserRepository
	teamRepo       interfaces.TeamRepository
	escrow         interfaces.EscrowService
	rating         *RatingService
	locks          interfaces.LockService
	eventPublisher interfaces.EventPublisher
	settler        *settler
}

// NewMatchService creates a new match registry service
func NewMatchService(
	matchRepo interfaces.MatchRepository,
	userRepo interfaces.UserRepository,
	teamRepo interfaces.TeamRepository,
	escrow interfaces.EscrowService,
	rating *RatingService,
	locks interfaces.LockService,
	eventPublisher interfaces.EventPublisher,
) interfaces.MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		teamRepo:       teamRepo,
		escrow:         escrow,
		rating:         rating,
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

// CreateMatch validates and opens a match. Public matches open immediately
// with the creator on side A; private matches start as an invite-code lobby
// with the creator pre-marked ready. The creator's stake seeds the prize pool.
func (s *matchService) CreateMatch(ctx context.Context, params interfaces.CreateMatchParams) (*entities.Match, error) {
	if params.Wager <= 0 {
		return nil, fmt.Errorf("wager must be positive")
	}
	if !params.TeamSize.Valid() {
		return nil, fmt.Errorf("unsupported team size %d", params.TeamSize)
	}
	if params.Privacy != entities.MatchPrivacyPublic && params.Privacy != entities.MatchPrivacyPrivate {
		return nil, fmt.Errorf("unknown privacy %q", params.Privacy)
	}
	if params.GameID == "" {
		return nil, fmt.Errorf("game ID cannot be empty")
	}

	free, err := s.locks.CanStartInteraction(ctx, params.CreatorID)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, fmt.Errorf("user %d: %w", params.CreatorID, entities.ErrInteractionLocked)
	}

	creator, err := s.userRepo.GetByID(ctx, params.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("creator %d: %w", params.CreatorID, entities.ErrNotFound)
	}
	if !creator.CanAfford(params.Wager) {
		return nil, fmt.Errorf("creator has %d credits, needs %d: %w",
			creator.Credits, params.Wager, entities.ErrInsufficientFunds)
	}

	if params.TeamID != nil {
		if err := s.validateTeamFor(ctx, *params.TeamID, params.CreatorID); err != nil {
			return nil, err
		}
	}

	match := &entities.Match{
		GameID:    params.GameID,
		Wager:     params.Wager,
		TeamSize:  params.TeamSize,
		Privacy:   params.Privacy,
		Region:    params.Region,
		Platform:  params.Platform,
		PrizePool: params.Wager,
		TeamAID:   params.TeamID,
	}

	ready := false
	if params.Privacy == entities.MatchPrivacyPrivate {
		match.Status = entities.MatchStatusLobby
		code := newInviteCode()
		match.InviteCode = &code
		ready = true
	} else {
		match.Status = entities.MatchStatusOpen
	}
	match.Participants = []*entities.MatchParticipant{{
		UserID: params.CreatorID,
		Side:   entities.SideA,
		Ready:  ready,
	}}

	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if _, err := s.escrow.Debit(ctx, params.CreatorID, params.Wager, entities.TransactionTypeMatchStake, &match.ID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"matchID":  match.ID,
		"gameID":   match.GameID,
		"wager":    match.Wager,
		"teamSize": match.TeamSize,
		"privacy":  match.Privacy,
	}).Info("Match created")

	if err := s.eventPublisher.Publish(events.MatchCreatedEvent{
		MatchID:   match.ID,
		GameID:    match.GameID,
		CreatorID: params.CreatorID,
		Wager:     match.Wager,
		TeamSize:  match.TeamSize.PlayersPerSide(),
		Privacy:   string(match.Privacy),
	}); err != nil {
		log.WithError(err).Error("Failed to publish match created event")
	}

	return match, nil
}

// JoinTeam adds a user to one side of a joinable match, escrowing their stake
func (s *matchService) JoinTeam(ctx context.Context, matchID, userID int64, side entities.Side) (*entities.Match, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("unknown side %q", side)
	}

	match, err := s.matchRepo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	if match.Status != entities.MatchStatusOpen && match.Status != entities.MatchStatusLobby {
		return nil, fmt.Errorf("match %d is not joinable in status %s: %w",
			matchID, match.Status, entities.ErrInvalidTransition)
	}

	if match.IsParticipant(userID) {
		return nil, fmt.Errorf("user %d: %w", userID, entities.ErrAlreadyJoined)
	}
	if match.SideFull(side) {
		return nil, fmt.Errorf("side %s of match %d: %w", side, matchID, entities.ErrTeamFull)
	}

	free, err := s.locks.CanStartInteraction(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, fmt.Errorf("user %d: %w", userID, entities.ErrInteractionLocked)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, entities.ErrNotFound)
	}
	if !user.CanAfford(match.Wager) {
		return nil, fmt.Errorf("user has %d credits, needs %d: %w",
			user.Credits, match.Wager, entities.ErrInsufficientFunds)
	}

	if _, err := s.escrow.Debit(ctx, userID, match.Wager, entities.TransactionTypeMatchStake, &match.ID); err != nil {
		return nil, err
	}

	participant := &entities.MatchParticipant{
		MatchID: match.ID,
		UserID:  userID,
		Side:    side,
	}
	if err := s.matchRepo.AddParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	match.Participants = append(match.Participants, participant)
	match.PrizePool += match.Wager

	prevStatus := match.Status
	if match.Status == entities.MatchStatusOpen && match.IsFull() {
		now := time.Now()
		match.Status = entities.MatchStatusInProgress
		match.StartedAt = &now
	}
	if err := s.matchRepo.Update(ctx, match, prevStatus); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	if match.Status == entities.MatchStatusInProgress {
		if err := s.onMatchStarted(ctx, match); err != nil {
			return nil, err
		}
	}

	return match, nil
}

// JoinByInviteCode resolves a private lobby by code and joins the smaller side
func (s *matchService) JoinByInviteCode(ctx context.Context, code string, userID int64) (*entities.Match, error) {
	match, err := s.matchRepo.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invite code: %w", err)
	}
	if match == nil || match.Status != entities.MatchStatusLobby || match.IsFull() {
		return nil, entities.ErrInvalidCode
	}
	return s.JoinTeam(ctx, match.ID, userID, match.SmallerSide())
}

// MarkReady idempotently marks a private-lobby participant ready
func (s *matchService) MarkReady(ctx context.Context, matchID, userID int64) error {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	if match.Privacy != entities.MatchPrivacyPrivate || match.Status != entities.MatchStatusLobby {
		return fmt.Errorf("match %d is not a private lobby: %w", matchID, entities.ErrInvalidTransition)
	}
	if !match.IsParticipant(userID) {
		return fmt.Errorf("user %d is not in match %d: %w", userID, matchID, entities.ErrNotFound)
	}
	if err := s.matchRepo.SetParticipantReady(ctx, matchID, userID); err != nil {
		return fmt.Errorf("failed to mark ready: %w", err)
	}
	return nil
}

// StartPrivateMatch flips a full, all-ready lobby to in-progress
func (s *matchService) StartPrivateMatch(ctx context.Context, matchID, userID int64) (*entities.Match, error) {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	if match.Status != entities.MatchStatusLobby {
		return nil, fmt.Errorf("match %d is not a lobby: %w", matchID, entities.ErrInvalidTransition)
	}
	if !match.IsParticipant(userID) {
		return nil, fmt.Errorf("user %d is not in match %d: %w", userID, matchID, entities.ErrNotFound)
	}
	if !match.IsFull() || !match.AllReady() {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrLobbyNotReady)
	}

	now := time.Now()
	match.Status = entities.MatchStatusInProgress
	match.StartedAt = &now
	if err := s.matchRepo.Update(ctx, match, entities.MatchStatusLobby); err != nil {
		return nil, fmt.Errorf("failed to start match: %w", err)
	}

	if err := s.onMatchStarted(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// ReportResult settles an in-progress match with the reported winner
func (s *matchService) ReportResult(ctx context.Context, matchID, reporterID int64, winner entities.Side) (*entities.Match, error) {
	if !winner.Valid() {
		return nil, fmt.Errorf("unknown side %q", winner)
	}

	match, err := s.matchRepo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	if match.Status != entities.MatchStatusInProgress {
		return nil, fmt.Errorf("match %d in status %s cannot report a result: %w",
			matchID, match.Status, entities.ErrInvalidTransition)
	}
	if !match.IsParticipant(reporterID) {
		return nil, fmt.Errorf("user %d is not in match %d: %w", reporterID, matchID, entities.ErrNotFound)
	}

	if err := s.settler.settle(ctx, match, &winner); err != nil {
		return nil, err
	}
	return match, nil
}

// GetMatch retrieves a match by ID
func (s *matchService) GetMatch(ctx context.Context, matchID int64) (*entities.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, entities.ErrNotFound)
	}
	return match, nil
}

// ListMatches returns matches matching the filter
func (s *matchService) ListMatches(ctx context.Context, filter interfaces.MatchFilter) ([]*entities.Match, error) {
	matches, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// onMatchStarted locks every participant and announces the start. Called
// after the match row has flipped to in-progress.
func (s *matchService) onMatchStarted(ctx context.Context, match *entities.Match) error {
	ids := make([]int64, 0, len(match.Participants))
	for _, p := range match.Participants {
		ids = append(ids, p.UserID)
	}
	if err := s.locks.Lock(ctx, ids...); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"matchID":   match.ID,
		"prizePool": match.PrizePool,
	}).Info("Match started")

	if err := s.eventPublisher.Publish(events.MatchStartedEvent{
		MatchID:   match.ID,
		GameID:    match.GameID,
		PrizePool: match.PrizePool,
	}); err != nil {
		log.WithError(err).Error("Failed to publish match started event")
	}
	return nil
}

func (s *matchService) validateTeamFor(ctx context.Context, teamID, userID int64) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return fmt.Errorf("team %d: %w", teamID, entities.ErrNotFound)
	}
	if !team.HasMember(userID) {
		return fmt.Errorf("user %d is not on team %d", userID, teamID)
	}
	return nil
}

// newInviteCode returns a short join code for private lobbies
func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
