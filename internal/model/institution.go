package model

import "time"

type Institution struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Status  Status `json:"status"`

	// UserIDs holds the identifiers assigned by the external user service,
	// in provisioning order. Populated only once every user has been
	// provisioned; a partially provisioned set is never persisted.
	UserIDs []string `json:"user_ids"`

	Classrooms []Classroom `json:"classrooms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisibleClassrooms returns the classrooms that are not soft-deleted.
func (i *Institution) VisibleClassrooms() []Classroom {
	out := make([]Classroom, 0, len(i.Classrooms))
	for _, c := range i.Classrooms {
		if c.Status.Visible() {
			out = append(out, c)
		}
	}
	return out
}

// Classroom is owned exclusively by its institution and is stored embedded in
// the institution document.
type Classroom struct {
	ID            int64  `json:"id"`
	InstitutionID int64  `json:"institution_id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Status        Status `json:"status"`
}

// UserSpec describes a user to be provisioned in the external user service as
// part of institution creation. It is passed through unmodified and never
// persisted by this service.
type UserSpec struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	CredentialsRef string `json:"credentials_ref,omitempty"`
}
