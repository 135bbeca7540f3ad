package services

import (
	"context"
	"fmt"
	"math"

	"stakearena/domain/entities"
	"stakearena/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ratingKFactor is the fixed K used for every ELO adjustment.
const ratingKFactor = 32

// RatingService computes and applies ELO adjustments for settled matches
type RatingService struct {
	userRepo interfaces.UserRepository
	teamRepo interfaces.TeamRepository
}

// NewRatingService creates a new RatingService
func NewRatingService(userRepo interfaces.UserRepository, teamRepo interfaces.TeamRepository) *RatingService {
	return &RatingService{
		userRepo: userRepo,
		teamRepo: teamRepo,
	}
}

// ComputeEloDelta returns the rating adjustments for the winning and losing
// sides given their average ELO. The deltas are symmetric: the winner gains
// exactly what the loser gives up.
func (s *RatingService) ComputeEloDelta(winnerElo, loserElo int) (deltaWinner, deltaLoser int) {
	expected := 1.0 / (1.0 + math.Pow(10, float64(loserElo-winnerElo)/400.0))
	deltaWinner = int(math.Round(ratingKFactor * (1.0 - expected)))
	return deltaWinner, -deltaWinner
}

// SideAverageElo averages a side's per-game ELO, defaulting unrated players
func (s *RatingService) SideAverageElo(gameID string, players []*entities.User) int {
	if len(players) == 0 {
		return entities.DefaultElo
	}
	sum := 0
	for _, p := range players {
		sum += p.EloFor(gameID)
	}
	return int(math.Round(float64(sum) / float64(len(players))))
}

// ApplyMatchResult adjusts every participant's own per-game ELO by the side
// delta, and mirrors the delta onto any team associated with a side of a
// non-solo match, together with a win/loss increment.
//
// An empty winning side is a no-op: that degenerate case must be caught
// upstream and settled as a refund, never as a rating change.
func (s *RatingService) ApplyMatchResult(ctx context.Context, match *entities.Match, winner entities.Side) error {
	winnerIDs := match.SidePlayers(winner)
	loserIDs := match.SidePlayers(winner.Opponent())
	if len(winnerIDs) == 0 {
		return nil
	}

	winners, err := s.loadUsers(ctx, winnerIDs)
	if err != nil {
		return err
	}
	losers, err := s.loadUsers(ctx, loserIDs)
	if err != nil {
		return err
	}

	deltaWinner, deltaLoser := s.ComputeEloDelta(
		s.SideAverageElo(match.GameID, winners),
		s.SideAverageElo(match.GameID, losers),
	)

	log.WithFields(log.Fields{
		"matchID":     match.ID,
		"gameID":      match.GameID,
		"deltaWinner": deltaWinner,
		"deltaLoser":  deltaLoser,
	}).Info("Applying match ELO deltas")

	for _, u := range winners {
		if err := s.userRepo.UpsertElo(ctx, u.ID, match.GameID, u.EloFor(match.GameID)+deltaWinner); err != nil {
			return fmt.Errorf("failed to update winner elo for user %d: %w", u.ID, err)
		}
	}
	for _, u := range losers {
		if err := s.userRepo.UpsertElo(ctx, u.ID, match.GameID, u.EloFor(match.GameID)+deltaLoser); err != nil {
			return fmt.Errorf("failed to update loser elo for user %d: %w", u.ID, err)
		}
	}

	if match.TeamSize > entities.TeamSizeSolo {
		if err := s.applyTeamResult(ctx, match, match.TeamOnSide(winner), deltaWinner, true); err != nil {
			return err
		}
		if err := s.applyTeamResult(ctx, match, match.TeamOnSide(winner.Opponent()), deltaLoser, false); err != nil {
			return err
		}
	}

	return nil
}

func (s *RatingService) applyTeamResult(ctx context.Context, match *entities.Match, teamID *int64, delta int, won bool) error {
	if teamID == nil {
		return nil
	}
	team, err := s.teamRepo.GetByID(ctx, *teamID)
	if err != nil {
		return fmt.Errorf("failed to get team %d: %w", *teamID, err)
	}
	if team == nil {
		return fmt.Errorf("team %d: %w", *teamID, entities.ErrNotFound)
	}

	if err := s.teamRepo.UpsertElo(ctx, team.ID, match.GameID, team.EloFor(match.GameID)+delta); err != nil {
		return fmt.Errorf("failed to update team %d elo: %w", team.ID, err)
	}

	wins, losses := team.Wins, team.Losses
	if won {
		wins++
	} else {
		losses++
	}
	if err := s.teamRepo.UpdateRecord(ctx, team.ID, wins, losses); err != nil {
		return fmt.Errorf("failed to update team %d record: %w", team.ID, err)
	}
	return nil
}

func (s *RatingService) loadUsers(ctx context.Context, ids []int64) ([]*entities.User, error) {
	users := make([]*entities.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user %d: %w", id, err)
		}
		if u == nil {
			return nil, fmt.Errorf("user %d: %w", id, entities.ErrNotFound)
		}
		users = append(users, u)
	}
	return users, nil
}
