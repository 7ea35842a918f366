package dto

import (
	"time"

	"campuskit.app/institution-service/internal/model"
)

type CreateInstitutionRequest struct {
	Name       string             `json:"name" binding:"required,min=1,max=255"`
	Address    string             `json:"address" binding:"max=1024"`
	Classrooms []ClassroomRequest `json:"classrooms" binding:"omitempty,dive"`
	Users      []UserSpecRequest  `json:"users" binding:"omitempty,dive"`
}

type UpdateInstitutionRequest struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Address *string `json:"address,omitempty" binding:"omitempty,max=1024"`
	Status  *string `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
}

type ClassroomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
	Type string `json:"type" binding:"max=64"`
}

// UserSpecRequest carries the attributes the external user service needs.
// They are passed through unmodified and never persisted here.
type UserSpecRequest struct {
	Name           string `json:"name" binding:"required,min=1,max=255"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Role           string `json:"role" binding:"max=64"`
	CredentialsRef string `json:"credentials_ref,omitempty" binding:"omitempty,max=255"`
}

func (r UserSpecRequest) ToUserSpec() model.UserSpec {
	return model.UserSpec{
		Name:           r.Name,
		Email:          r.Email,
		Role:           r.Role,
		CredentialsRef: r.CredentialsRef,
	}
}

type InstitutionResponse struct {
	ID         int64               `json:"id,string"`
	Name       string              `json:"name"`
	Address    string              `json:"address"`
	Status     string              `json:"status"`
	UserIDs    []string            `json:"user_ids"`
	Classrooms []ClassroomResponse `json:"classrooms"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type ClassroomResponse struct {
	ID            int64  `json:"id,string"`
	InstitutionID int64  `json:"institution_id,string"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Status        string `json:"status"`
}

func ToInstitutionResponse(inst *model.Institution) *InstitutionResponse {
	resp := &InstitutionResponse{
		ID:         inst.ID,
		Name:       inst.Name,
		Address:    inst.Address,
		Status:     string(inst.Status),
		UserIDs:    inst.UserIDs,
		Classrooms: make([]ClassroomResponse, 0, len(inst.Classrooms)),
		CreatedAt:  inst.CreatedAt,
		UpdatedAt:  inst.UpdatedAt,
	}
	if resp.UserIDs == nil {
		resp.UserIDs = []string{}
	}
	for _, c := range inst.VisibleClassrooms() {
		resp.Classrooms = append(resp.Classrooms, ToClassroomResponse(c))
	}
	return resp
}

func ToClassroomResponse(c model.Classroom) ClassroomResponse {
	return ClassroomResponse{
		ID:            c.ID,
		InstitutionID: c.InstitutionID,
		Name:          c.Name,
		Type:          c.Type,
		Status:        string(c.Status),
	}
}

func ToInstitutionResponses(insts []model.Institution) []InstitutionResponse {
	result := make([]InstitutionResponse, len(insts))
	for i := range insts {
		result[i] = *ToInstitutionResponse(&insts[i])
	}
	return result
}
