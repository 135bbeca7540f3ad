package services

import (
	"context"
	"testing"

	"stakearena/domain/entities"
	"stakearena/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMatchService_CreateMatch_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		params interfaces.CreateMatchParams
	}{
		{
			name:   "zero wager",
			params: interfaces.CreateMatchParams{CreatorID: 1, GameID: "rocket-league", Wager: 0, TeamSize: 1, Privacy: entities.MatchPrivacyPublic},
		},
		{
			name:   "negative wager",
			params: interfaces.CreateMatchParams{CreatorID: 1, GameID: "rocket-league", Wager: -10, TeamSize: 1, Privacy: entities.MatchPrivacyPublic},
		},
		{
			name:   "team size too large",
			params: interfaces.CreateMatchParams{CreatorID: 1, GameID: "rocket-league", Wager: 100, TeamSize: 6, Privacy: entities.MatchPrivacyPublic},
		},
		{
			name:   "team size zero",
			params: interfaces.CreateMatchParams{CreatorID: 1, GameID: "rocket-league", Wager: 100, TeamSize: 0, Privacy: entities.MatchPrivacyPublic},
		},
		{
			name:   "empty game",
			params: interfaces.CreateMatchParams{CreatorID: 1, GameID: "", Wager: 100, TeamSize: 1, Privacy: entities.MatchPrivacyPublic},
		},
		{
			name:   "unknown privacy",
			params: interfaces.CreateMatchParams{CreatorID: 1, GameID: "rocket-league", Wager: 100, TeamSize: 1, Privacy: "friends-only"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := newTestMocks()
			service := mocks.matchService()

			_, err := service.CreateMatch(ctx, tt.params)
			require.Error(t, err)
			mocks.MatchRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestMatchService_CreateMatch(t *testing.T) {
	ctx := context.Background()
	params := interfaces.CreateMatchParams{
		CreatorID: 1,
		GameID:    "rocket-league",
		Wager:     100,
		TeamSize:  entities.TeamSizeSolo,
		Privacy:   entities.MatchPrivacyPublic,
	}

	t.Run("locked creator rejected", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("CountLockInducingByUser", ctx, int64(1)).Return(1, nil)

		_, err := service.CreateMatch(ctx, params)
		require.ErrorIs(t, err, entities.ErrInteractionLocked)
	})

	t.Run("insufficient funds rejected", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("CountLockInducingByUser", ctx, int64(1)).Return(0, nil)
		mocks.UserRepo.On("GetByID", ctx, int64(1)).Return(newTestUser(1, 50), nil)

		_, err := service.CreateMatch(ctx, params)
		require.ErrorIs(t, err, entities.ErrInsufficientFunds)
		mocks.MatchRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("public match opens with creator staked", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("CountLockInducingByUser", ctx, int64(1)).Return(0, nil)
		mocks.UserRepo.On("GetByID", ctx, int64(1)).Return(newTestUser(1, 1000), nil)
		mocks.MatchRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*entities.Match).ID = 42
		}).Return(nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 1000), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(1), int64(900)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.CreateMatch(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusOpen, match.Status)
		assert.Nil(t, match.InviteCode)
		assert.Equal(t, int64(100), match.PrizePool)
		require.Len(t, match.Participants, 1)
		assert.Equal(t, entities.SideA, match.Participants[0].Side)
		assert.False(t, match.Participants[0].Ready)
		mocks.UserRepo.AssertCalled(t, "UpdateCredits", ctx, int64(1), int64(900))
	})

	t.Run("private match starts as lobby with invite code", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		private := params
		private.Privacy = entities.MatchPrivacyPrivate

		mocks.MatchRepo.On("CountLockInducingByUser", ctx, int64(1)).Return(0, nil)
		mocks.UserRepo.On("GetByID", ctx, int64(1)).Return(newTestUser(1, 1000), nil)
		mocks.MatchRepo.On("Create", ctx, mock.Anything).Return(nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 1000), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(1), int64(900)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.CreateMatch(ctx, private)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusLobby, match.Status)
		require.NotNil(t, match.InviteCode)
		assert.Len(t, *match.InviteCode, 8)
		assert.True(t, match.Participants[0].Ready, "creator is pre-marked ready")
	})
}

func TestMatchService_JoinTeam(t *testing.T) {
	ctx := context.Background()

	// openMatch returns a public 1v1 with only the creator on side A
	openMatch := func() *entities.Match {
		m := newTestMatch(entities.MatchStatusOpen)
		m.Participants = m.Participants[:1]
		m.PrizePool = 100
		return m
	}

	t.Run("already joined", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(openMatch(), nil)

		_, err := service.JoinTeam(ctx, 42, 1, entities.SideB)
		require.ErrorIs(t, err, entities.ErrAlreadyJoined)
	})

	t.Run("side full", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(openMatch(), nil)

		_, err := service.JoinTeam(ctx, 42, 2, entities.SideA)
		require.ErrorIs(t, err, entities.ErrTeamFull)
	})

	t.Run("not joinable once in progress", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusInProgress), nil)

		_, err := service.JoinTeam(ctx, 42, 3, entities.SideB)
		require.ErrorIs(t, err, entities.ErrInvalidTransition)
	})

	t.Run("locked joiner rejected", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(openMatch(), nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, int64(2)).Return(1, nil)

		_, err := service.JoinTeam(ctx, 42, 2, entities.SideB)
		require.ErrorIs(t, err, entities.ErrInteractionLocked)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(openMatch(), nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, int64(2)).Return(0, nil)
		mocks.UserRepo.On("GetByID", ctx, int64(2)).Return(newTestUser(2, 10), nil)

		_, err := service.JoinTeam(ctx, 42, 2, entities.SideB)
		require.ErrorIs(t, err, entities.ErrInsufficientFunds)
		mocks.MatchRepo.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything)
	})

	t.Run("filling a public match starts it", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(openMatch(), nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, int64(2)).Return(0, nil)
		mocks.UserRepo.On("GetByID", ctx, int64(2)).Return(newTestUser(2, 1000), nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(newTestUser(2, 1000), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(2), int64(900)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.MatchRepo.On("AddParticipant", ctx, mock.Anything).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusOpen).Return(nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, int64(1), true).Return(nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, int64(2), true).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.JoinTeam(ctx, 42, 2, entities.SideB)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusInProgress, match.Status)
		assert.NotNil(t, match.StartedAt)
		assert.Equal(t, int64(200), match.PrizePool, "both stakes pooled")
		mocks.UserRepo.AssertCalled(t, "SetMatchmakingLocked", ctx, int64(1), true)
		mocks.UserRepo.AssertCalled(t, "SetMatchmakingLocked", ctx, int64(2), true)
	})
}

func TestMatchService_JoinByInviteCode(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown code", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByInviteCode", ctx, "NOPE1234").Return(nil, nil)

		_, err := service.JoinByInviteCode(ctx, "NOPE1234", 2)
		require.ErrorIs(t, err, entities.ErrInvalidCode)
	})

	t.Run("code for a full lobby", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		full := newTestMatch(entities.MatchStatusLobby)
		mocks.MatchRepo.On("GetByInviteCode", ctx, "ABCD1234").Return(full, nil)

		_, err := service.JoinByInviteCode(ctx, "ABCD1234", 3)
		require.ErrorIs(t, err, entities.ErrInvalidCode)
	})

	t.Run("joins the smaller side", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		lobby := newTestMatch(entities.MatchStatusLobby)
		lobby.Privacy = entities.MatchPrivacyPrivate
		lobby.Participants = lobby.Participants[:1] // only side A filled
		lobby.PrizePool = 100

		mocks.MatchRepo.On("GetByInviteCode", ctx, "ABCD1234").Return(lobby, nil)
		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(lobby, nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, int64(2)).Return(0, nil)
		mocks.UserRepo.On("GetByID", ctx, int64(2)).Return(newTestUser(2, 1000), nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(newTestUser(2, 1000), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(2), int64(900)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusLobby).Return(nil)

		var joined *entities.MatchParticipant
		mocks.MatchRepo.On("AddParticipant", ctx, mock.Anything).Run(func(args mock.Arguments) {
			joined = args.Get(1).(*entities.MatchParticipant)
		}).Return(nil)

		match, err := service.JoinByInviteCode(ctx, "ABCD1234", 2)
		require.NoError(t, err)
		// Lobby stays a lobby until everyone is ready and start is called
		assert.Equal(t, entities.MatchStatusLobby, match.Status)
		require.NotNil(t, joined)
		assert.Equal(t, entities.SideB, joined.Side)
	})
}

func TestMatchService_StartPrivateMatch(t *testing.T) {
	ctx := context.Background()

	lobby := func(allReady bool) *entities.Match {
		m := newTestMatch(entities.MatchStatusLobby)
		m.Privacy = entities.MatchPrivacyPrivate
		m.Participants[0].Ready = true
		m.Participants[1].Ready = allReady
		return m
	}

	t.Run("start before everyone is ready", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(lobby(false), nil)

		_, err := service.StartPrivateMatch(ctx, 42, 1)
		require.ErrorIs(t, err, entities.ErrLobbyNotReady)
		mocks.MatchRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("start before the lobby is full", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		short := lobby(true)
		short.Participants = short.Participants[:1]
		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(short, nil)

		_, err := service.StartPrivateMatch(ctx, 42, 1)
		require.ErrorIs(t, err, entities.ErrLobbyNotReady)
	})

	t.Run("non-participant cannot start", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(lobby(true), nil)

		_, err := service.StartPrivateMatch(ctx, 42, 99)
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("full and ready lobby starts", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(lobby(true), nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusLobby).Return(nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, mock.Anything, true).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.StartPrivateMatch(ctx, 42, 1)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusInProgress, match.Status)
		assert.NotNil(t, match.StartedAt)
	})
}

func TestMatchService_ReportResult(t *testing.T) {
	ctx := context.Background()

	t.Run("only in-progress matches settle", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusCompleted), nil)

		_, err := service.ReportResult(ctx, 42, 1, entities.SideA)
		require.ErrorIs(t, err, entities.ErrInvalidTransition)
	})

	t.Run("non-participant cannot report", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusInProgress), nil)

		_, err := service.ReportResult(ctx, 42, 99, entities.SideA)
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("winner paid pool minus fee, ratings adjusted", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.matchService()

		// 1v1, wager 100 each, pool 200, 5% fee -> 190 paid to the winner
		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusInProgress), nil)
		mocks.UserRepo.On("GetByID", ctx, int64(1)).Return(newTestUser(1, 900), nil)
		mocks.UserRepo.On("GetByID", ctx, int64(2)).Return(newTestUser(2, 900), nil)
		mocks.UserRepo.On("UpsertElo", ctx, int64(1), "rocket-league", 1516).Return(nil)
		mocks.UserRepo.On("UpsertElo", ctx, int64(2), "rocket-league", 1484).Return(nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 900), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(1), int64(1090)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusInProgress).Return(nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, mock.Anything).Return(0, nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, mock.Anything, false).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.ReportResult(ctx, 42, 1, entities.SideA)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusCompleted, match.Status)
		require.NotNil(t, match.WinnerSide)
		assert.Equal(t, entities.SideA, *match.WinnerSide)
		assert.Equal(t, int64(0), match.PrizePool, "pool fully distributed")
		assert.NotNil(t, match.SettledAt)
		mocks.UserRepo.AssertCalled(t, "UpdateCredits", ctx, int64(1), int64(1090))
		mocks.UserRepo.AssertCalled(t, "SetMatchmakingLocked", ctx, int64(1), false)
		mocks.UserRepo.AssertCalled(t, "SetMatchmakingLocked", ctx, int64(2), false)
	})
}
