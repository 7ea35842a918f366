package model

import "time"

// OrphanedUser records a remote user that compensation failed to delete.
// The reconciliation worker sweeps unresolved entries and retries the delete
// against the user service.
type OrphanedUser struct {
	ID            int64      `json:"id"`
	InstitutionID int64      `json:"institution_id"`
	RemoteUserID  string     `json:"remote_user_id"`
	Reason        string     `json:"reason"`
	Attempts      int        `json:"attempts"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

func (o *OrphanedUser) Resolved() bool {
	return o.ResolvedAt != nil
}
