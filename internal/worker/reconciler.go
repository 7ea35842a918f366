package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campuskit.app/institution-service/common/logger"
	"campuskit.app/institution-service/internal/model"
	"campuskit.app/institution-service/internal/provisioning"
	"campuskit.app/institution-service/internal/store"
)

type ReconcilerConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Reconciler periodically retries deletion of orphaned remote users.
// Orphans are recorded when compensation could not remove every user the
// external service had already created.
type Reconciler struct {
	orphans store.OrphanedUserStore
	users   provisioning.Client
	cfg     ReconcilerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewReconciler creates a new Reconciler.
func NewReconciler(orphans store.OrphanedUserStore, users provisioning.Client, cfg ReconcilerConfig) *Reconciler {
	return &Reconciler{
		orphans:   orphans,
		users:     users,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the reconcile loop. Blocks until Stop() is called.
func (r *Reconciler) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "institution.worker.reconciler",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reconciler started",
		"interval", r.cfg.Interval,
		"batch_size", r.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reconciler stopping")
			return
		case <-ticker.C:
			if err := r.reconcileOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reconcile cycle error", "error", err)
			}
		}
	}
}

// Stop signals the reconciler to stop gracefully.
func (r *Reconciler) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// reconcileOnce performs one reconcile cycle.
func (r *Reconciler) reconcileOnce(ctx context.Context) error {
	orphans, err := r.orphans.ListUnresolved(ctx, r.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("listing unresolved orphans: %w", err)
	}

	if len(orphans) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "found unresolved orphaned users", "count", len(orphans))

	for _, orphan := range orphans {
		if err := r.reconcileOrphan(ctx, orphan); err != nil {
			slog.ErrorContext(ctx, "failed to reconcile orphaned user",
				"error", err,
				"orphan_id", orphan.ID,
				"remote_user_id", orphan.RemoteUserID)
			// Continue with the rest of the batch
		}
	}

	return nil
}

// reconcileOrphan retries deletion of a single orphaned remote user and
// records the attempt outcome.
func (r *Reconciler) reconcileOrphan(ctx context.Context, orphan model.OrphanedUser) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		InstitutionID: logger.Ptr(orphan.InstitutionID),
		RemoteUserID:  logger.Ptr(orphan.RemoteUserID),
	})

	slog.InfoContext(ctx, "retrying orphaned user deletion",
		"attempts", orphan.Attempts,
		"reason", orphan.Reason)

	start := time.Now()
	results := r.users.DeleteUsers(ctx, []string{orphan.RemoteUserID})

	resolved := true
	var deleteErr error
	for _, res := range results {
		if res.Err != nil {
			resolved = false
			deleteErr = res.Err
		}
	}

	if err := r.orphans.RecordAttempt(ctx, orphan.ID, resolved); err != nil {
		return fmt.Errorf("recording reconcile attempt: %w", err)
	}

	if !resolved {
		slog.WarnContext(ctx, "orphaned user deletion failed, will retry",
			"error", deleteErr,
			"attempts", orphan.Attempts+1)
		return nil
	}

	slog.InfoContext(ctx, "orphaned user resolved",
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}
