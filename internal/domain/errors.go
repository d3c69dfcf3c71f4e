package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job does not exist in the
	// caller's tenant scope.
	ErrJobNotFound = errors.New("job not found")

	// ErrCustomerNotFound is returned when a referenced customer does
	// not belong to the tenant.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrTeamMemberNotFound is returned when a referenced team member
	// does not belong to the tenant.
	ErrTeamMemberNotFound = errors.New("team member not found")

	// ErrNotificationNotFound is returned when a notification does not
	// exist for the recipient.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrSchedulingConflict is returned when another active job already
	// occupies the candidate time window. It is distinct from a
	// validation error: the request is well-formed, the calendar is not
	// free.
	ErrSchedulingConflict = errors.New("scheduling conflict detected with existing jobs")

	// ErrJobNotReschedulable is returned when rescheduling a job that is
	// already completed or cancelled.
	ErrJobNotReschedulable = errors.New("cannot reschedule completed or cancelled jobs")

	// ErrUnauthorized is returned when a bearer credential cannot be
	// verified or a room join is not permitted.
	ErrUnauthorized = errors.New("unauthorized")
)

// InvalidTransitionError reports an illegal status change. Callers
// should re-fetch the current job state before retrying.
type InvalidTransitionError struct {
	From JobStatus
	To   JobStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
