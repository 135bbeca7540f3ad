package services

import (
	"context"
	"testing"
	"time"

	"stakearena/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testEvidenceLink = "https://youtube.com/watch?v=dQw4w9WgXcQ"

func TestDisputeService_OpenDispute(t *testing.T) {
	ctx := context.Background()

	t.Run("only in-progress matches can be disputed", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusOpen), nil)

		_, err := service.OpenDispute(ctx, 42, 1)
		require.ErrorIs(t, err, entities.ErrInvalidTransition)
	})

	t.Run("non-participant cannot dispute", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusInProgress), nil)

		_, err := service.OpenDispute(ctx, 42, 99)
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("dispute opens the evidence window and locks everyone", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusInProgress), nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusInProgress).Return(nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, int64(1), true).Return(nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, int64(2), true).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.OpenDispute(ctx, 42, 1)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusDisputed, match.Status)
		require.NotNil(t, match.DisputeDeadline)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), *match.DisputeDeadline, 5*time.Second)
		mocks.UserRepo.AssertExpectations(t)
	})
}

func TestDisputeService_SubmitEvidence(t *testing.T) {
	ctx := context.Background()

	disputed := func() *entities.Match {
		m := newTestMatch(entities.MatchStatusDisputed)
		m.DisputeDeadline = timePtr(time.Now().Add(23 * time.Hour))
		return m
	}

	t.Run("invalid link rejected", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		_, err := service.SubmitEvidence(ctx, 42, 1, "https://example.com/clip.mp4", "proof")
		require.ErrorIs(t, err, entities.ErrInvalidEvidenceLink)
		mocks.MatchRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("evidence refused outside the dispute path", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusInProgress), nil)

		_, err := service.SubmitEvidence(ctx, 42, 1, testEvidenceLink, "")
		require.ErrorIs(t, err, entities.ErrInvalidTransition)
	})

	t.Run("first submission starts the opponent grace window", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(disputed(), nil)
		mocks.MatchRepo.On("AddEvidence", ctx, mock.Anything).Return(true, nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, int64(1), false).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusDisputed).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.SubmitEvidence(ctx, 42, 1, testEvidenceLink, "their client crashed")
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusAwaitingOpponentEvidence, match.Status)
		require.NotNil(t, match.DisputeDeadline)
		assert.WithinDuration(t, time.Now().Add(time.Hour), *match.DisputeDeadline, 5*time.Second)
		mocks.UserRepo.AssertCalled(t, "SetMatchmakingLocked", ctx, int64(1), false)
	})

	t.Run("second side escalates to admin review", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		m := newTestMatch(entities.MatchStatusAwaitingOpponentEvidence)
		m.DisputeDeadline = timePtr(time.Now().Add(30 * time.Minute))
		m.Evidence = []*entities.Evidence{{MatchID: 42, UserID: 1, YoutubeLink: testEvidenceLink}}

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(m, nil)
		mocks.MatchRepo.On("AddEvidence", ctx, mock.Anything).Return(true, nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, int64(2), false).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusAwaitingOpponentEvidence).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.SubmitEvidence(ctx, 42, 2, testEvidenceLink, "")
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusAwaitingAdminReview, match.Status)
		assert.Nil(t, match.DisputeDeadline, "deadline no longer drives resolution")
	})

	t.Run("teammate submission does not extend the grace window", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		graceEnd := time.Now().Add(30 * time.Minute)
		m := newTestMatch(entities.MatchStatusAwaitingOpponentEvidence)
		m.TeamSize = 2
		m.Participants = []*entities.MatchParticipant{
			{MatchID: 42, UserID: 1, Side: entities.SideA},
			{MatchID: 42, UserID: 3, Side: entities.SideA},
			{MatchID: 42, UserID: 2, Side: entities.SideB},
			{MatchID: 42, UserID: 4, Side: entities.SideB},
		}
		m.DisputeDeadline = timePtr(graceEnd)
		m.Evidence = []*entities.Evidence{{MatchID: 42, UserID: 1, YoutubeLink: testEvidenceLink}}

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(m, nil)
		mocks.MatchRepo.On("AddEvidence", ctx, mock.Anything).Return(true, nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, int64(3), false).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusAwaitingOpponentEvidence).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.SubmitEvidence(ctx, 42, 3, testEvidenceLink, "same angle")
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusAwaitingOpponentEvidence, match.Status)
		require.NotNil(t, match.DisputeDeadline)
		assert.Equal(t, graceEnd, *match.DisputeDeadline, "only the side's first submission moves the deadline")
		mocks.UserRepo.AssertCalled(t, "SetMatchmakingLocked", ctx, int64(3), false)
	})

	t.Run("repeat submission is ignored", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		m := disputed()
		m.Evidence = []*entities.Evidence{{MatchID: 42, UserID: 1, YoutubeLink: testEvidenceLink}}
		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(m, nil)

		match, err := service.SubmitEvidence(ctx, 42, 1, "https://youtu.be/another1", "second try")
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusDisputed, match.Status)
		mocks.MatchRepo.AssertNotCalled(t, "AddEvidence", mock.Anything, mock.Anything)
		mocks.UserRepo.AssertNotCalled(t, "SetMatchmakingLocked", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDisputeService_ExpireDeadline(t *testing.T) {
	ctx := context.Background()

	t.Run("future deadline is a no-op", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		m := newTestMatch(entities.MatchStatusDisputed)
		m.DisputeDeadline = timePtr(time.Now().Add(time.Hour))
		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(m, nil)

		err := service.ExpireDeadline(ctx, 42)
		require.NoError(t, err)
		mocks.MatchRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("settled match is a no-op", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusCompleted), nil)

		err := service.ExpireDeadline(ctx, 42)
		require.NoError(t, err)
		mocks.MatchRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("sole evidence side wins on lapse", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		m := newTestMatch(entities.MatchStatusAwaitingOpponentEvidence)
		m.DisputeDeadline = timePtr(time.Now().Add(-time.Minute))
		m.Evidence = []*entities.Evidence{{MatchID: 42, UserID: 1, YoutubeLink: testEvidenceLink}}

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(m, nil)
		mocks.UserRepo.On("GetByID", ctx, int64(1)).Return(newTestUser(1, 900), nil)
		mocks.UserRepo.On("GetByID", ctx, int64(2)).Return(newTestUser(2, 900), nil)
		mocks.UserRepo.On("UpsertElo", ctx, int64(1), "rocket-league", 1516).Return(nil)
		mocks.UserRepo.On("UpsertElo", ctx, int64(2), "rocket-league", 1484).Return(nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 900), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(1), int64(1090)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusAwaitingOpponentEvidence).Return(nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, mock.Anything).Return(0, nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, mock.Anything, false).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		err := service.ExpireDeadline(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusCompleted, m.Status)
		require.NotNil(t, m.WinnerSide)
		assert.Equal(t, entities.SideA, *m.WinnerSide)
		mocks.UserRepo.AssertCalled(t, "UpdateCredits", ctx, int64(1), int64(1090))
	})

	t.Run("no evidence refunds both sides", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		m := newTestMatch(entities.MatchStatusDisputed)
		m.DisputeDeadline = timePtr(time.Now().Add(-time.Minute))

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(m, nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 900), nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(newTestUser(2, 900), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(1), int64(1000)).Return(nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(2), int64(1000)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusDisputed).Return(nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, mock.Anything).Return(0, nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, mock.Anything, false).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		err := service.ExpireDeadline(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusRefunded, m.Status)
		assert.Equal(t, int64(0), m.PrizePool)
		mocks.UserRepo.AssertNotCalled(t, "UpsertElo", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDisputeService_AdminForceSettle(t *testing.T) {
	ctx := context.Background()
	sideA := entities.SideA

	t.Run("terminal match cannot be settled twice", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusRefunded), nil)

		_, err := service.AdminForceSettle(ctx, 42, &sideA, 0)
		require.ErrorIs(t, err, entities.ErrAlreadySettled)
	})

	t.Run("undisputed match is out of scope", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(newTestMatch(entities.MatchStatusInProgress), nil)

		_, err := service.AdminForceSettle(ctx, 42, &sideA, 0)
		require.ErrorIs(t, err, entities.ErrInvalidTransition)
	})

	t.Run("negative penalty rejected", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		_, err := service.AdminForceSettle(ctx, 42, &sideA, -1)
		require.Error(t, err)
	})

	t.Run("winner paid and losing side penalized", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		m := newTestMatch(entities.MatchStatusAwaitingAdminReview)

		loser := newTestUser(2, 900)
		loser.Rating = 100

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(m, nil)
		mocks.UserRepo.On("GetByID", ctx, int64(1)).Return(newTestUser(1, 900), nil)
		mocks.UserRepo.On("GetByID", ctx, int64(2)).Return(loser, nil)
		mocks.UserRepo.On("UpsertElo", ctx, int64(1), "rocket-league", 1516).Return(nil)
		mocks.UserRepo.On("UpsertElo", ctx, int64(2), "rocket-league", 1484).Return(nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 900), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(1), int64(1090)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusAwaitingAdminReview).Return(nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, mock.Anything).Return(0, nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, mock.Anything, false).Return(nil)
		mocks.UserRepo.On("UpdateRating", ctx, int64(2), 50).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.AdminForceSettle(ctx, 42, &sideA, 50)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusCompleted, match.Status)
		mocks.UserRepo.AssertCalled(t, "UpdateRating", ctx, int64(2), 50)
	})

	t.Run("nil winner refunds", func(t *testing.T) {
		mocks := newTestMocks()
		service := mocks.disputeService()

		m := newTestMatch(entities.MatchStatusAwaitingAdminReview)

		mocks.MatchRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(m, nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 900), nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(newTestUser(2, 900), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(1), int64(1000)).Return(nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(2), int64(1000)).Return(nil)
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Return(nil)
		mocks.MatchRepo.On("Update", ctx, mock.Anything, entities.MatchStatusAwaitingAdminReview).Return(nil)
		mocks.MatchRepo.On("CountLockInducingByUser", ctx, mock.Anything).Return(0, nil)
		mocks.UserRepo.On("SetMatchmakingLocked", ctx, mock.Anything, false).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		match, err := service.AdminForceSettle(ctx, 42, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, entities.MatchStatusRefunded, match.Status)
		mocks.UserRepo.AssertNotCalled(t, "UpdateRating", mock.Anything, mock.Anything, mock.Anything)
	})
}
