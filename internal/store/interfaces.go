package store

import (
	"context"
	"errors"

	"campuskit.app/institution-service/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a status change is not allowed by the
// lifecycle (e.g. restoring a record that was never deleted).
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConflict is returned when a write lost the race against a concurrent
// writer and the caller's snapshot is stale. Callers re-read and retry.
var ErrConflict = errors.New("write conflict")

// InstitutionStore defines the contract for institution data access.
// Institutions are stored as single documents with classrooms embedded.
type InstitutionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Institution, error)
	Create(ctx context.Context, inst *model.Institution) error

	// Update persists non-status attributes and the classrooms set. It is a
	// compare-and-set against the snapshot the caller read: the write only
	// applies if the stored updated_at still matches inst.UpdatedAt, and
	// fails with ErrConflict when a concurrent writer got there first.
	Update(ctx context.Context, inst *model.Institution) error

	// SetStatus performs a compare-and-set status change. Fails with
	// ErrInvalidTransition if the record's current status is not `from`.
	SetStatus(ctx context.Context, id int64, from, to model.Status) error

	// Commit atomically moves a pending institution to active and records
	// the provisioned user IDs. Fails with ErrInvalidTransition if the
	// record is not pending.
	Commit(ctx context.Context, id int64, userIDs []string) (*model.Institution, error)

	// MarkDeleted soft-deletes an active or inactive institution, cascading
	// a soft delete to its live classrooms.
	MarkDeleted(ctx context.Context, id int64) error

	// Restore returns a deleted institution to inactive, reviving only the
	// classrooms that were removed by the cascade.
	Restore(ctx context.Context, id int64) error

	// HardDelete removes the document entirely. Used by the creation
	// workflow to discard pending records that never became visible.
	HardDelete(ctx context.Context, id int64) error

	// ListByStatus returns institutions whose status is in the given set,
	// ordered by creation time.
	ListByStatus(ctx context.Context, statuses []model.Status, limit, offset int) ([]model.Institution, error)
}

// OrphanedUserStore tracks remote users left behind by failed compensation.
type OrphanedUserStore interface {
	Create(ctx context.Context, orphan *model.OrphanedUser) error
	ListUnresolved(ctx context.Context, limit int) ([]model.OrphanedUser, error)

	// RecordAttempt bumps the attempt counter and, when resolved, stamps
	// the resolution time.
	RecordAttempt(ctx context.Context, id int64, resolved bool) error
}
