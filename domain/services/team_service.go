package services

import (
	"context"
	"fmt"

	"stakearena/domain/entities"
	"stakearena/domain/events"
	"stakearena/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type teamService struct {
	teamRepo       interfaces.TeamRepository
	userRepo       interfaces.UserRepository
	eventPublisher interfaces.EventPublisher
}

// NewTeamService creates a new team roster service
func NewTeamService(
	teamRepo interfaces.TeamRepository,
	userRepo interfaces.UserRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		eventPublisher: eventPublisher,
	}
}

// CreateTeam registers a captained team. The captain joins the roster whether
// or not they are listed, duplicates collapse, and every member must be an
// existing user.
func (s *teamService) CreateTeam(ctx context.Context, name string, captainID int64, memberIDs []int64) (*entities.Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name cannot be empty")
	}

	roster := make([]int64, 0, len(memberIDs)+1)
	seen := make(map[int64]bool, len(memberIDs)+1)
	for _, id := range append([]int64{captainID}, memberIDs...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		roster = append(roster, id)
	}

	for _, id := range roster {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user %d: %w", id, err)
		}
		if user == nil {
			return nil, fmt.Errorf("user %d: %w", id, entities.ErrNotFound)
		}
	}

	team := &entities.Team{
		Name:      name,
		CaptainID: captainID,
		MemberIDs: roster,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.WithFields(log.Fields{
		"teamID":    team.ID,
		"name":      team.Name,
		"captainID": captainID,
		"members":   len(roster),
	}).Info("Team created")

	if err := s.eventPublisher.Publish(events.TeamCreatedEvent{
		TeamID:    team.ID,
		Name:      team.Name,
		CaptainID: captainID,
		MemberIDs: roster,
	}); err != nil {
		log.WithError(err).Error("Failed to publish team created event")
	}

	return team, nil
}

// GetTeam retrieves a team by ID
func (s *teamService) GetTeam(ctx context.Context, teamID int64) (*entities.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, fmt.Errorf("team %d: %w", teamID, entities.ErrNotFound)
	}
	return team, nil
}
