package service_test

import (
	"context"

	"campuskit.app/institution-service/internal/model"
	"campuskit.app/institution-service/internal/provisioning"
)

type mockInstitutionStore struct {
	getByIDFn      func(ctx context.Context, id int64) (*model.Institution, error)
	createFn       func(ctx context.Context, inst *model.Institution) error
	updateFn       func(ctx context.Context, inst *model.Institution) error
	setStatusFn    func(ctx context.Context, id int64, from, to model.Status) error
	commitFn       func(ctx context.Context, id int64, userIDs []string) (*model.Institution, error)
	markDeletedFn  func(ctx context.Context, id int64) error
	restoreFn      func(ctx context.Context, id int64) error
	hardDeleteFn   func(ctx context.Context, id int64) error
	listByStatusFn func(ctx context.Context, statuses []model.Status, limit, offset int) ([]model.Institution, error)

	createCalls     int
	hardDeleteCalls int
}

func (m *mockInstitutionStore) GetByID(ctx context.Context, id int64) (*model.Institution, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockInstitutionStore) Create(ctx context.Context, inst *model.Institution) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, inst)
	}
	return nil
}

func (m *mockInstitutionStore) Update(ctx context.Context, inst *model.Institution) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, inst)
	}
	return nil
}

func (m *mockInstitutionStore) SetStatus(ctx context.Context, id int64, from, to model.Status) error {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, from, to)
	}
	return nil
}

func (m *mockInstitutionStore) Commit(ctx context.Context, id int64, userIDs []string) (*model.Institution, error) {
	if m.commitFn != nil {
		return m.commitFn(ctx, id, userIDs)
	}
	return nil, nil
}

func (m *mockInstitutionStore) MarkDeleted(ctx context.Context, id int64) error {
	if m.markDeletedFn != nil {
		return m.markDeletedFn(ctx, id)
	}
	return nil
}

func (m *mockInstitutionStore) Restore(ctx context.Context, id int64) error {
	if m.restoreFn != nil {
		return m.restoreFn(ctx, id)
	}
	return nil
}

func (m *mockInstitutionStore) HardDelete(ctx context.Context, id int64) error {
	m.hardDeleteCalls++
	if m.hardDeleteFn != nil {
		return m.hardDeleteFn(ctx, id)
	}
	return nil
}

func (m *mockInstitutionStore) ListByStatus(ctx context.Context, statuses []model.Status, limit, offset int) ([]model.Institution, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, statuses, limit, offset)
	}
	return []model.Institution{}, nil
}

type mockOrphanedUserStore struct {
	createFn         func(ctx context.Context, orphan *model.OrphanedUser) error
	listUnresolvedFn func(ctx context.Context, limit int) ([]model.OrphanedUser, error)
	recordAttemptFn  func(ctx context.Context, id int64, resolved bool) error

	createCalls int
}

func (m *mockOrphanedUserStore) Create(ctx context.Context, orphan *model.OrphanedUser) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, orphan)
	}
	return nil
}

func (m *mockOrphanedUserStore) ListUnresolved(ctx context.Context, limit int) ([]model.OrphanedUser, error) {
	if m.listUnresolvedFn != nil {
		return m.listUnresolvedFn(ctx, limit)
	}
	return []model.OrphanedUser{}, nil
}

func (m *mockOrphanedUserStore) RecordAttempt(ctx context.Context, id int64, resolved bool) error {
	if m.recordAttemptFn != nil {
		return m.recordAttemptFn(ctx, id, resolved)
	}
	return nil
}

type mockProvisioningClient struct {
	createUsersFn func(ctx context.Context, institutionID int64, specs []model.UserSpec) ([]string, error)
	deleteUsersFn func(ctx context.Context, userIDs []string) []provisioning.DeleteResult

	deleteCalls int
}

func (m *mockProvisioningClient) CreateUsers(ctx context.Context, institutionID int64, specs []model.UserSpec) ([]string, error) {
	if m.createUsersFn != nil {
		return m.createUsersFn(ctx, institutionID, specs)
	}
	return []string{}, nil
}

func (m *mockProvisioningClient) DeleteUsers(ctx context.Context, userIDs []string) []provisioning.DeleteResult {
	m.deleteCalls++
	if m.deleteUsersFn != nil {
		return m.deleteUsersFn(ctx, userIDs)
	}
	results := make([]provisioning.DeleteResult, len(userIDs))
	for i, id := range userIDs {
		results[i] = provisioning.DeleteResult{UserID: id}
	}
	return results
}
