package testhelpers

import (
	"context"
	"time"

	"stakearena/domain/entities"
	"stakearena/domain/events"
	"stakearena/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username string, initialCredits int64) (*entities.User, error) {
	args := m.Called(ctx, username, initialCredits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) UpdateCredits(ctx context.Context, userID int64, newCredits int64) error {
	args := m.Called(ctx, userID, newCredits)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRating(ctx context.Context, userID int64, newRating int) error {
	args := m.Called(ctx, userID, newRating)
	return args.Error(0)
}

func (m *MockUserRepository) SetMatchmakingLocked(ctx context.Context, userID int64, locked bool) error {
	args := m.Called(ctx, userID, locked)
	return args.Error(0)
}

func (m *MockUserRepository) UpsertElo(ctx context.Context, userID int64, gameID string, elo int) error {
	args := m.Called(ctx, userID, gameID, elo)
	return args.Error(0)
}

// MockTeamRepository is a mock implementation of TeamRepository
type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id int64) (*entities.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Team), args.Error(1)
}

func (m *MockTeamRepository) Create(ctx context.Context, team *entities.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) UpdateRecord(ctx context.Context, teamID int64, wins, losses int) error {
	args := m.Called(ctx, teamID, wins, losses)
	return args.Error(0)
}

func (m *MockTeamRepository) UpsertElo(ctx context.Context, teamID int64, gameID string, elo int) error {
	args := m.Called(ctx, teamID, gameID, elo)
	return args.Error(0)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *entities.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id int64) (*entities.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByInviteCode(ctx context.Context, code string) (*entities.Match, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Match), args.Error(1)
}

func (m *MockMatchRepository) Update(ctx context.Context, match *entities.Match, expectedStatus entities.MatchStatus) error {
	args := m.Called(ctx, match, expectedStatus)
	return args.Error(0)
}

func (m *MockMatchRepository) AddParticipant(ctx context.Context, p *entities.MatchParticipant) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockMatchRepository) SetParticipantReady(ctx context.Context, matchID, userID int64) error {
	args := m.Called(ctx, matchID, userID)
	return args.Error(0)
}

func (m *MockMatchRepository) AddEvidence(ctx context.Context, e *entities.Evidence) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) List(ctx context.Context, filter interfaces.MatchFilter) ([]*entities.Match, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Match), args.Error(1)
}

func (m *MockMatchRepository) GetExpiredDisputes(ctx context.Context, now time.Time) ([]*entities.Match, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Match), args.Error(1)
}

func (m *MockMatchRepository) GetNextDisputeDeadline(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockMatchRepository) CountLockInducingByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockEscrowRepository is a mock implementation of EscrowRepository
type MockEscrowRepository struct {
	mock.Mock
}

func (m *MockEscrowRepository) Record(ctx context.Context, entry *entities.EscrowEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEscrowRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.EscrowEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.EscrowEntry), args.Error(1)
}

func (m *MockEscrowRepository) GetByMatch(ctx context.Context, matchID int64) ([]*entities.EscrowEntry, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.EscrowEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
