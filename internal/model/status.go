package model

type Status string

const (
	// StatusPending marks an institution whose users are still being
	// provisioned. Pending records are never visible through the API.
	StatusPending Status = "pending"

	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Allowed moves:
//
//	pending  -> active            (creation workflow commit)
//	active   <-> inactive         (explicit update)
//	active   -> deleted           (soft delete)
//	inactive -> deleted           (soft delete)
//	deleted  -> inactive          (restore; never auto-reactivated)
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusActive
	case StatusActive:
		return next == StatusInactive || next == StatusDeleted
	case StatusInactive:
		return next == StatusActive || next == StatusDeleted
	case StatusDeleted:
		return next == StatusInactive
	}
	return false
}

// Visible reports whether records with this status appear in default listings.
func (s Status) Visible() bool {
	return s == StatusActive || s == StatusInactive
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive, StatusDeleted:
		return true
	}
	return false
}
