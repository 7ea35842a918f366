package service

import (
	"errors"
	"fmt"
)

var (
	ErrInstitutionNotFound = errors.New("institution not found")
	ErrClassroomNotFound   = errors.New("classroom not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// PersistenceError wraps a storage-layer failure. It is surfaced as a server
// error and is not retried by the service.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// ProvisioningError means remote user creation failed and every already
// provisioned user was cleaned up. The caller may resubmit the request; a new
// institution ID will be allocated.
type ProvisioningError struct {
	InstitutionID int64
	Cause         error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("user provisioning failed for institution %d: %v", e.InstitutionID, e.Cause)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Cause
}

// CompensationError means cleanup after a provisioning failure itself failed,
// leaving orphaned remote users (or a stranded pending record). It requires
// operator attention; the reconciliation worker retries the recorded orphans.
type CompensationError struct {
	InstitutionID   int64
	OrphanedUserIDs []string
	ProvisionCause  error
	Cause           error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation failed for institution %d (%d orphaned users): %v (provisioning failure: %v)",
		e.InstitutionID, len(e.OrphanedUserIDs), e.Cause, e.ProvisionCause)
}

func (e *CompensationError) Unwrap() error {
	return e.Cause
}
