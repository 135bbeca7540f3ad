package application

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// fallbackWakeup bounds how long the worker sleeps when no dispute deadline
// is pending, so deadlines created while it slept are still picked up even if
// a wakeup signal is lost.
const fallbackWakeup = time.Hour

// retryBackoff is the minimum sleep before revisiting a deadline that is
// already due. A deadline still pending after a processing pass means its
// resolution failed; retrying without a floor would spin the worker.
const retryBackoff = 30 * time.Second

// ResolutionWorker auto-resolves disputes whose deadline has lapsed. It reads
// the next deadline from durable state and sleeps until exactly then, so
// deadlines survive process restarts and there is no fixed-interval polling.
type ResolutionWorker struct {
	uowFactory UnitOfWorkFactory
}

// NewResolutionWorker creates a new resolution worker
func NewResolutionWorker(uowFactory UnitOfWorkFactory) *ResolutionWorker {
	return &ResolutionWorker{uowFactory: uowFactory}
}

// Start begins the worker and returns a stop function
func (w *ResolutionWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Resolution worker started")

		for {
			if err := w.processExpiredDisputes(ctx); err != nil {
				log.WithError(err).Error("Error processing expired disputes")
			}

			nextDeadline := w.nextDeadline(ctx)
			wait := resolveWait(nextDeadline, time.Now())
			if nextDeadline != nil {
				log.WithFields(log.Fields{
					"deadline": nextDeadline.UTC(),
					"in":       wait,
				}).Info("Next dispute deadline scheduled")
			}

			select {
			case <-ctx.Done():
				log.Info("Resolution worker shutting down (context cancelled)")
				return
			case <-stopChan:
				log.Info("Resolution worker shutting down (stop requested)")
				return
			case <-time.After(wait):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// resolveWait converts the earliest pending deadline into a sleep duration.
// No pending deadline sleeps the fallback; a lapsed deadline sleeps the retry
// floor instead of waking immediately.
func resolveWait(next *time.Time, now time.Time) time.Duration {
	if next == nil {
		return fallbackWakeup
	}
	wait := next.Sub(now)
	if wait <= 0 {
		return retryBackoff
	}
	return wait
}

// nextDeadline reads the earliest pending dispute deadline from the database
func (w *ResolutionWorker) nextDeadline(ctx context.Context) *time.Time {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to begin transaction for next deadline")
		return nil
	}
	defer uow.Rollback()

	next, err := uow.MatchRepository().GetNextDisputeDeadline(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to get next dispute deadline")
		return nil
	}
	return next
}

// processExpiredDisputes resolves every match whose deadline has lapsed. Each
// match settles in its own transaction: one poisoned dispute must not block
// the rest, and a user operation racing us simply wins its row lock first.
func (w *ResolutionWorker) processExpiredDisputes(ctx context.Context) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	expired, err := uow.MatchRepository().GetExpiredDisputes(ctx, time.Now())
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to list expired disputes: %w", err)
	}
	uow.Rollback() // Close the read transaction

	if len(expired) == 0 {
		return nil
	}
	log.WithField("count", len(expired)).Info("Found lapsed dispute deadlines")

	for _, match := range expired {
		if err := w.resolveOne(ctx, match.ID); err != nil {
			log.WithError(err).WithField("matchID", match.ID).Error("Failed to auto-resolve dispute")
		}
	}
	return nil
}

func (w *ResolutionWorker) resolveOne(ctx context.Context, matchID int64) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	svcs := NewServiceSet(uow)
	if err := svcs.Disputes.ExpireDeadline(ctx, matchID); err != nil {
		uow.Rollback()
		return err
	}
	return uow.Commit()
}
