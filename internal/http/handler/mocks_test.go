package handler_test

import (
	"context"

	"campuskit.app/institution-service/internal/model"
	"campuskit.app/institution-service/internal/service"
)

type mockInstitutionService struct {
	createFn          func(ctx context.Context, params service.CreateInstitutionParams) (*model.Institution, error)
	getByIDFn         func(ctx context.Context, instID int64) (*model.Institution, error)
	listFn            func(ctx context.Context, filter service.StatusFilter, limit, offset int) ([]model.Institution, error)
	updateFn          func(ctx context.Context, instID int64, params service.UpdateInstitutionParams) (*model.Institution, error)
	deleteFn          func(ctx context.Context, instID int64) error
	restoreFn         func(ctx context.Context, instID int64) (*model.Institution, error)
	addClassroomFn    func(ctx context.Context, instID int64, params service.ClassroomParams) (*model.Classroom, error)
	updateClassroomFn func(ctx context.Context, instID, classroomID int64, params service.ClassroomParams) (*model.Classroom, error)
	removeClassroomFn func(ctx context.Context, instID, classroomID int64) error
}

func (m *mockInstitutionService) Create(ctx context.Context, params service.CreateInstitutionParams) (*model.Institution, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return nil, nil
}

func (m *mockInstitutionService) GetByID(ctx context.Context, instID int64) (*model.Institution, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, instID)
	}
	return nil, nil
}

func (m *mockInstitutionService) List(ctx context.Context, filter service.StatusFilter, limit, offset int) ([]model.Institution, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, limit, offset)
	}
	return []model.Institution{}, nil
}

func (m *mockInstitutionService) Update(ctx context.Context, instID int64, params service.UpdateInstitutionParams) (*model.Institution, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, instID, params)
	}
	return nil, nil
}

func (m *mockInstitutionService) Delete(ctx context.Context, instID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, instID)
	}
	return nil
}

func (m *mockInstitutionService) Restore(ctx context.Context, instID int64) (*model.Institution, error) {
	if m.restoreFn != nil {
		return m.restoreFn(ctx, instID)
	}
	return nil, nil
}

func (m *mockInstitutionService) AddClassroom(ctx context.Context, instID int64, params service.ClassroomParams) (*model.Classroom, error) {
	if m.addClassroomFn != nil {
		return m.addClassroomFn(ctx, instID, params)
	}
	return nil, nil
}

func (m *mockInstitutionService) UpdateClassroom(ctx context.Context, instID, classroomID int64, params service.ClassroomParams) (*model.Classroom, error) {
	if m.updateClassroomFn != nil {
		return m.updateClassroomFn(ctx, instID, classroomID, params)
	}
	return nil, nil
}

func (m *mockInstitutionService) RemoveClassroom(ctx context.Context, instID, classroomID int64) error {
	if m.removeClassroomFn != nil {
		return m.removeClassroomFn(ctx, instID, classroomID)
	}
	return nil
}
