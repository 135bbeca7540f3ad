package services

import (
	"context"
	"testing"

	"stakearena/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetOrCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("empty username rejected", func(t *testing.T) {
		mocks := newTestMocks()
		service := NewUserService(mocks.UserRepo, mocks.EscrowRepo, mocks.Publisher)

		_, err := service.GetOrCreateUser(ctx, "")
		require.Error(t, err)
	})

	t.Run("existing user returned as-is", func(t *testing.T) {
		mocks := newTestMocks()
		service := NewUserService(mocks.UserRepo, mocks.EscrowRepo, mocks.Publisher)

		existing := newTestUser(1, 720)
		existing.Username = "alice"
		mocks.UserRepo.On("GetByUsername", ctx, "alice").Return(existing, nil)

		user, err := service.GetOrCreateUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, existing, user)
		mocks.UserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("new user seeded with starting credits", func(t *testing.T) {
		mocks := newTestMocks()
		service := NewUserService(mocks.UserRepo, mocks.EscrowRepo, mocks.Publisher)

		created := newTestUser(5, 1000)
		created.Username = "bob"
		mocks.UserRepo.On("GetByUsername", ctx, "bob").Return(nil, nil)
		mocks.UserRepo.On("Create", ctx, "bob", int64(1000)).Return(created, nil)

		var entry *entities.EscrowEntry
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Run(func(args mock.Arguments) {
			entry = args.Get(1).(*entities.EscrowEntry)
		}).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		user, err := service.GetOrCreateUser(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), user.Credits)

		require.NotNil(t, entry)
		assert.Equal(t, int64(0), entry.BalanceBefore)
		assert.Equal(t, int64(1000), entry.BalanceAfter)
		assert.Equal(t, entities.TransactionTypeInitial, entry.TransactionType)
	})
}

func TestUserService_TransferBetweenUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("transfer to self rejected", func(t *testing.T) {
		mocks := newTestMocks()
		service := NewUserService(mocks.UserRepo, mocks.EscrowRepo, mocks.Publisher)

		err := service.TransferBetweenUsers(ctx, 1, 1, 100)
		require.Error(t, err)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		mocks := newTestMocks()
		service := NewUserService(mocks.UserRepo, mocks.EscrowRepo, mocks.Publisher)

		require.Error(t, service.TransferBetweenUsers(ctx, 1, 2, 0))
		require.Error(t, service.TransferBetweenUsers(ctx, 1, 2, -50))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		mocks := newTestMocks()
		service := NewUserService(mocks.UserRepo, mocks.EscrowRepo, mocks.Publisher)

		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 30), nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(newTestUser(2, 500), nil)

		err := service.TransferBetweenUsers(ctx, 1, 2, 100)
		require.ErrorIs(t, err, entities.ErrInsufficientFunds)
		mocks.UserRepo.AssertNotCalled(t, "UpdateCredits", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		mocks := newTestMocks()
		service := NewUserService(mocks.UserRepo, mocks.EscrowRepo, mocks.Publisher)

		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(newTestUser(1, 500), nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(99)).Return(nil, nil)

		err := service.TransferBetweenUsers(ctx, 1, 99, 100)
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("successful transfer writes both ledger entries", func(t *testing.T) {
		mocks := newTestMocks()
		service := NewUserService(mocks.UserRepo, mocks.EscrowRepo, mocks.Publisher)

		// Sender has the higher ID; the row lock order is by ID, not by role
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(newTestUser(2, 500), nil)
		mocks.UserRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(newTestUser(7, 300), nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(7), int64(200)).Return(nil)
		mocks.UserRepo.On("UpdateCredits", ctx, int64(2), int64(600)).Return(nil)

		var entries []*entities.EscrowEntry
		mocks.EscrowRepo.On("Record", ctx, mock.Anything).Run(func(args mock.Arguments) {
			entries = append(entries, args.Get(1).(*entities.EscrowEntry))
		}).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return(nil)

		err := service.TransferBetweenUsers(ctx, 7, 2, 100)
		require.NoError(t, err)

		require.Len(t, entries, 2)
		out, in := entries[0], entries[1]
		assert.Equal(t, entities.TransactionTypeTransferOut, out.TransactionType)
		assert.Equal(t, int64(7), out.UserID)
		assert.Equal(t, int64(-100), out.ChangeAmount)
		assert.Equal(t, int64(200), out.BalanceAfter)
		assert.Equal(t, entities.TransactionTypeTransferIn, in.TransactionType)
		assert.Equal(t, int64(2), in.UserID)
		assert.Equal(t, int64(100), in.ChangeAmount)
		assert.Equal(t, int64(600), in.BalanceAfter)
	})
}
