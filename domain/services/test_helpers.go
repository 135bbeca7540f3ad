package services

import (
	"stakearena/config"
	"stakearena/domain/entities"
	"stakearena/domain/interfaces"
	"stakearena/domain/testhelpers"
	"time"
)

// testMocks bundles the repository mocks behind a wired service set
type testMocks struct {
	UserRepo   *testhelpers.MockUserRepository
	TeamRepo   *testhelpers.MockTeamRepository
	MatchRepo  *testhelpers.MockMatchRepository
	EscrowRepo *testhelpers.MockEscrowRepository
	Publisher  *testhelpers.MockEventPublisher
}

func newTestMocks() *testMocks {
	config.SetTestConfig(config.NewTestConfig())
	return &testMocks{
		UserRepo:   new(testhelpers.MockUserRepository),
		TeamRepo:   new(testhelpers.MockTeamRepository),
		MatchRepo:  new(testhelpers.MockMatchRepository),
		EscrowRepo: new(testhelpers.MockEscrowRepository),
		Publisher:  new(testhelpers.MockEventPublisher),
	}
}

func (m *testMocks) matchService() interfaces.MatchService {
	escrow := NewEscrowService(m.UserRepo, m.EscrowRepo, m.Publisher)
	rating := NewRatingService(m.UserRepo, m.TeamRepo)
	locks := NewLockService(m.UserRepo, m.MatchRepo)
	return NewMatchService(m.MatchRepo, m.UserRepo, m.TeamRepo, escrow, rating, locks, m.Publisher)
}

func (m *testMocks) teamService() interfaces.TeamService {
	return NewTeamService(m.TeamRepo, m.UserRepo, m.Publisher)
}

func (m *testMocks) disputeService() interfaces.DisputeService {
	escrow := NewEscrowService(m.UserRepo, m.EscrowRepo, m.Publisher)
	rating := NewRatingService(m.UserRepo, m.TeamRepo)
	locks := NewLockService(m.UserRepo, m.MatchRepo)
	return NewDisputeService(m.MatchRepo, m.UserRepo, escrow, rating, locks, m.Publisher)
}

func newTestUser(id int64, credits int64) *entities.User {
	return &entities.User{
		ID:       id,
		Username: "player",
		Credits:  credits,
		Elo:      make(map[string]int),
	}
}

// newTestMatch builds a 1v1 match with users 1 (side A) and 2 (side B)
func newTestMatch(status entities.MatchStatus) *entities.Match {
	return &entities.Match{
		ID:        42,
		GameID:    "rocket-league",
		Wager:     100,
		TeamSize:  entities.TeamSizeSolo,
		Status:    status,
		Privacy:   entities.MatchPrivacyPublic,
		PrizePool: 200,
		Participants: []*entities.MatchParticipant{
			{MatchID: 42, UserID: 1, Side: entities.SideA},
			{MatchID: 42, UserID: 2, Side: entities.SideB},
		},
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
