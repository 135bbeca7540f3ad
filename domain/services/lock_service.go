package services

import (
	"context"
	"fmt"

	"stakearena/domain/interfaces"
)

// lockService manages the per-user matchmaking lock. The stored flag is a
// write-through cache; the authoritative value is always derivable from the
// set of lock-inducing matches the user participates in.
type lockService struct {
	userRepo  interfaces.UserRepository
	matchRepo interfaces.MatchRepository
}

// NewLockService creates a new matchmaking lock service
func NewLockService(userRepo interfaces.UserRepository, matchRepo interfaces.MatchRepository) interfaces.LockService {
	return &lockService{
		userRepo:  userRepo,
		matchRepo: matchRepo,
	}
}

// Lock sets the cached lock flag for each user
func (s *lockService) Lock(ctx context.Context, userIDs ...int64) error {
	for _, id := range userIDs {
		if err := s.userRepo.SetMatchmakingLocked(ctx, id, true); err != nil {
			return fmt.Errorf("failed to lock user %d: %w", id, err)
		}
	}
	return nil
}

// Unlock clears the cached lock flag for each user
func (s *lockService) Unlock(ctx context.Context, userIDs ...int64) error {
	for _, id := range userIDs {
		if err := s.userRepo.SetMatchmakingLocked(ctx, id, false); err != nil {
			return fmt.Errorf("failed to unlock user %d: %w", id, err)
		}
	}
	return nil
}

// CanStartInteraction reports whether a user may create, join, or dispute a
// wagered match. Computed from match state so a stale cached flag can never
// wrongly bar or admit a user.
func (s *lockService) CanStartInteraction(ctx context.Context, userID int64) (bool, error) {
	n, err := s.matchRepo.CountLockInducingByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to count locking matches for user %d: %w", userID, err)
	}
	return n == 0, nil
}

// Recompute re-derives a user's lock from match state and writes the flag
// through, returning the derived value
func (s *lockService) Recompute(ctx context.Context, userID int64) (bool, error) {
	n, err := s.matchRepo.CountLockInducingByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to count locking matches for user %d: %w", userID, err)
	}
	locked := n > 0
	if err := s.userRepo.SetMatchmakingLocked(ctx, userID, locked); err != nil {
		return false, fmt.Errorf("failed to write lock flag for user %d: %w", userID, err)
	}
	return locked, nil
}
