package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"campuskit.app/institution-service/common/id"
	"campuskit.app/institution-service/common/logger"
	"campuskit.app/institution-service/internal/model"
	"campuskit.app/institution-service/internal/provisioning"
	"campuskit.app/institution-service/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	// mutateAttempts bounds how often a read-modify-write is retried after
	// losing the snapshot race against a concurrent writer.
	mutateAttempts = 3
)

type CreateInstitutionParams struct {
	Name       string
	Address    string
	Classrooms []ClassroomParams
	Users      []model.UserSpec
}

type ClassroomParams struct {
	Name string
	Type string
}

type UpdateInstitutionParams struct {
	Name    *string
	Address *string
	// Status may only toggle between active and inactive. Deletion and
	// restoration go through Delete/Restore.
	Status *model.Status
}

type StatusFilter string

const (
	// FilterDefault lists everything except deleted (and pending) records.
	FilterDefault  StatusFilter = "default"
	FilterActive   StatusFilter = "active"
	FilterInactive StatusFilter = "inactive"
)

type InstitutionService interface {
	Create(ctx context.Context, params CreateInstitutionParams) (*model.Institution, error)
	GetByID(ctx context.Context, instID int64) (*model.Institution, error)
	List(ctx context.Context, filter StatusFilter, limit, offset int) ([]model.Institution, error)
	Update(ctx context.Context, instID int64, params UpdateInstitutionParams) (*model.Institution, error)
	Delete(ctx context.Context, instID int64) error
	Restore(ctx context.Context, instID int64) (*model.Institution, error)

	AddClassroom(ctx context.Context, instID int64, params ClassroomParams) (*model.Classroom, error)
	UpdateClassroom(ctx context.Context, instID, classroomID int64, params ClassroomParams) (*model.Classroom, error)
	RemoveClassroom(ctx context.Context, instID, classroomID int64) error
}

type institutionService struct {
	instStore   store.InstitutionStore
	orphanStore store.OrphanedUserStore
	users       provisioning.Client
}

func NewInstitutionService(instStore store.InstitutionStore, orphanStore store.OrphanedUserStore, users provisioning.Client) InstitutionService {
	return &institutionService{
		instStore:   instStore,
		orphanStore: orphanStore,
		users:       users,
	}
}

// Create runs the compensating creation workflow: the institution is written
// in pending status (invisible to readers), users are provisioned one by one
// against the external service, and only a fully provisioned record is
// committed to active. On any provisioning failure the already created remote
// users are deleted and the pending record is removed.
func (s *institutionService) Create(ctx context.Context, params CreateInstitutionParams) (*model.Institution, error) {
	inst := &model.Institution{
		ID:      id.New(),
		Name:    params.Name,
		Address: params.Address,
		Status:  model.StatusPending,
		UserIDs: []string{},
	}
	for _, cp := range params.Classrooms {
		inst.Classrooms = append(inst.Classrooms, model.Classroom{
			ID:            id.New(),
			InstitutionID: inst.ID,
			Name:          cp.Name,
			Type:          cp.Type,
			Status:        model.StatusActive,
		})
	}

	if err := s.instStore.Create(ctx, inst); err != nil {
		return nil, &PersistenceError{Op: "create institution", Cause: err}
	}

	// The workflow must reach a terminal state even if the caller
	// disconnects; remote calls are fire-to-completion once started.
	wctx := context.WithoutCancel(ctx)
	wctx = logger.WithLogFields(wctx, logger.LogFields{
		InstitutionID: logger.Ptr(inst.ID),
		Component:     "institution.workflow",
	})

	created, provErr := s.users.CreateUsers(wctx, inst.ID, params.Users)
	if provErr != nil {
		return nil, s.compensate(wctx, inst.ID, created, provErr)
	}

	committed, err := s.instStore.Commit(wctx, inst.ID, created)
	if err != nil {
		// Users exist remotely but the record cannot be committed;
		// unwind both sides.
		compErr := s.compensate(wctx, inst.ID, created, err)
		var cerr *CompensationError
		if errors.As(compErr, &cerr) {
			return nil, cerr
		}
		return nil, &PersistenceError{Op: "commit institution", Cause: err}
	}

	slog.InfoContext(wctx, "institution created",
		"institution_id", committed.ID,
		"users_provisioned", len(committed.UserIDs),
		"classrooms", len(committed.Classrooms),
	)

	return committed, nil
}

// compensate deletes the remote users created so far and discards the pending
// record. It returns a ProvisioningError when cleanup fully succeeded and a
// CompensationError when orphaned state remains.
func (s *institutionService) compensate(ctx context.Context, instID int64, createdUserIDs []string, cause error) error {
	slog.WarnContext(ctx, "compensating failed institution creation",
		"created_users", len(createdUserIDs),
		"error", cause,
	)

	var orphaned []string
	for _, res := range s.users.DeleteUsers(ctx, createdUserIDs) {
		if res.Err != nil {
			orphaned = append(orphaned, res.UserID)
		}
	}

	for _, userID := range orphaned {
		orphan := &model.OrphanedUser{
			ID:            id.New(),
			InstitutionID: instID,
			RemoteUserID:  userID,
			Reason:        cause.Error(),
		}
		if err := s.orphanStore.Create(ctx, orphan); err != nil {
			slog.ErrorContext(ctx, "failed to record orphaned user",
				"remote_user_id", userID,
				"error", err,
			)
		}
	}

	hardErr := s.instStore.HardDelete(ctx, instID)
	if errors.Is(hardErr, store.ErrNotFound) {
		hardErr = nil
	}

	if len(orphaned) > 0 || hardErr != nil {
		compCause := hardErr
		if compCause == nil {
			compCause = fmt.Errorf("%d of %d remote user deletions failed", len(orphaned), len(createdUserIDs))
		}
		cerr := &CompensationError{
			InstitutionID:   instID,
			OrphanedUserIDs: orphaned,
			ProvisionCause:  cause,
			Cause:           compCause,
		}
		slog.ErrorContext(ctx, "compensation failed, manual reconciliation required",
			"orphaned_user_ids", orphaned,
			"error", cerr,
		)
		return cerr
	}

	slog.InfoContext(ctx, "compensation complete",
		"deleted_users", len(createdUserIDs),
	)

	return &ProvisioningError{InstitutionID: instID, Cause: cause}
}

func (s *institutionService) GetByID(ctx context.Context, instID int64) (*model.Institution, error) {
	inst, err := s.instStore.GetByID(ctx, instID)
	if err != nil {
		return nil, s.translate(err, "get institution")
	}
	// Pending records are absent until committed.
	if inst.Status == model.StatusPending {
		return nil, ErrInstitutionNotFound
	}
	return inst, nil
}

func (s *institutionService) List(ctx context.Context, filter StatusFilter, limit, offset int) ([]model.Institution, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var statuses []model.Status
	switch filter {
	case FilterActive:
		statuses = []model.Status{model.StatusActive}
	case FilterInactive:
		statuses = []model.Status{model.StatusInactive}
	default:
		statuses = []model.Status{model.StatusActive, model.StatusInactive}
	}

	insts, err := s.instStore.ListByStatus(ctx, statuses, limit, offset)
	if err != nil {
		return nil, s.translate(err, "list institutions")
	}
	return insts, nil
}

func (s *institutionService) Update(ctx context.Context, instID int64, params UpdateInstitutionParams) (*model.Institution, error) {
	inst, err := s.GetByID(ctx, instID)
	if err != nil {
		return nil, err
	}
	if inst.Status == model.StatusDeleted {
		return nil, ErrInvalidTransition
	}

	if params.Name != nil || params.Address != nil {
		_, err := s.mutate(ctx, instID, "update institution", func(inst *model.Institution) error {
			if params.Name != nil {
				inst.Name = *params.Name
			}
			if params.Address != nil {
				inst.Address = *params.Address
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if params.Status != nil && *params.Status != inst.Status {
		next := *params.Status
		if next != model.StatusActive && next != model.StatusInactive {
			return nil, ErrInvalidTransition
		}
		if !inst.Status.CanTransitionTo(next) {
			return nil, ErrInvalidTransition
		}
		if err := s.instStore.SetStatus(ctx, instID, inst.Status, next); err != nil {
			return nil, s.translate(err, "update institution status")
		}
	}

	return s.GetByID(ctx, instID)
}

func (s *institutionService) Delete(ctx context.Context, instID int64) error {
	// Resolve first so a pending record reads as absent, not conflicting.
	if _, err := s.GetByID(ctx, instID); err != nil {
		return err
	}

	if err := s.instStore.MarkDeleted(ctx, instID); err != nil {
		return s.translate(err, "delete institution")
	}

	slog.InfoContext(ctx, "institution soft-deleted", "institution_id", instID)
	return nil
}

func (s *institutionService) Restore(ctx context.Context, instID int64) (*model.Institution, error) {
	if _, err := s.GetByID(ctx, instID); err != nil {
		return nil, err
	}

	if err := s.instStore.Restore(ctx, instID); err != nil {
		return nil, s.translate(err, "restore institution")
	}

	slog.InfoContext(ctx, "institution restored", "institution_id", instID)
	return s.GetByID(ctx, instID)
}

func (s *institutionService) AddClassroom(ctx context.Context, instID int64, params ClassroomParams) (*model.Classroom, error) {
	classroom := model.Classroom{
		ID:            id.New(),
		InstitutionID: instID,
		Name:          params.Name,
		Type:          params.Type,
		Status:        model.StatusActive,
	}

	_, err := s.mutate(ctx, instID, "add classroom", func(inst *model.Institution) error {
		inst.Classrooms = append(inst.Classrooms, classroom)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "classroom added",
		"institution_id", instID,
		"classroom_id", classroom.ID,
	)

	return &classroom, nil
}

func (s *institutionService) UpdateClassroom(ctx context.Context, instID, classroomID int64, params ClassroomParams) (*model.Classroom, error) {
	var updated model.Classroom
	_, err := s.mutate(ctx, instID, "update classroom", func(inst *model.Institution) error {
		idx := findClassroom(inst.Classrooms, classroomID)
		if idx < 0 {
			return ErrClassroomNotFound
		}

		if params.Name != "" {
			inst.Classrooms[idx].Name = params.Name
		}
		if params.Type != "" {
			inst.Classrooms[idx].Type = params.Type
		}
		updated = inst.Classrooms[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (s *institutionService) RemoveClassroom(ctx context.Context, instID, classroomID int64) error {
	_, err := s.mutate(ctx, instID, "remove classroom", func(inst *model.Institution) error {
		idx := findClassroom(inst.Classrooms, classroomID)
		if idx < 0 {
			return ErrClassroomNotFound
		}
		inst.Classrooms[idx].Status = model.StatusDeleted
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "classroom soft-deleted",
		"institution_id", instID,
		"classroom_id", classroomID,
	)

	return nil
}

// mutate runs a read-modify-write cycle against one institution. The store
// rejects the write with ErrConflict when a concurrent writer invalidated the
// snapshot between read and write; the cycle then re-reads and reapplies fn on
// the fresh document, so neither side's changes are lost. fn errors are
// returned as-is and abort the cycle.
func (s *institutionService) mutate(ctx context.Context, instID int64, op string, fn func(inst *model.Institution) error) (*model.Institution, error) {
	var lastErr error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		inst, err := s.GetByID(ctx, instID)
		if err != nil {
			return nil, err
		}
		if inst.Status == model.StatusDeleted {
			return nil, ErrInvalidTransition
		}

		if err := fn(inst); err != nil {
			return nil, err
		}

		err = s.instStore.Update(ctx, inst)
		if err == nil {
			return inst, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, s.translate(err, op)
		}

		lastErr = err
		slog.WarnContext(ctx, "snapshot conflict, retrying",
			"institution_id", instID,
			"attempt", attempt+1,
		)
	}

	return nil, s.translate(lastErr, op)
}

// findClassroom returns the index of a live classroom with the given id,
// or -1. Soft-deleted classrooms are not addressable.
func findClassroom(classrooms []model.Classroom, classroomID int64) int {
	for i, c := range classrooms {
		if c.ID == classroomID && c.Status != model.StatusDeleted {
			return i
		}
	}
	return -1
}

// translate maps storage-layer errors onto the service taxonomy.
func (s *institutionService) translate(err error, op string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrInstitutionNotFound
	case errors.Is(err, store.ErrInvalidTransition):
		return ErrInvalidTransition
	default:
		return &PersistenceError{Op: op, Cause: err}
	}
}
