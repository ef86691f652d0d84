package workflow

import (
	"errors"
	"fmt"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// ErrAssigneeRequired is returned when an assignment intent arrives without a
// target user.
var ErrAssigneeRequired = errors.New("assignment intent requires a target user")

// IllegalTransitionError reports a requested edge absent from the transition
// table. It carries both statuses so the caller can render a precise message.
type IllegalTransitionError struct {
	Intent    Intent
	From      domain.IssueStatus
	Requested domain.IssueStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s: %s -> %s", e.Intent, e.From, e.Requested)
}

// NoChangeError reports an idempotent retry: the issue is already in the
// requested status. Surfaced as a failure so retries never duplicate audit
// entries.
type NoChangeError struct {
	Status domain.IssueStatus
}

func (e *NoChangeError) Error() string {
	return fmt.Sprintf("issue already in status %s", e.Status)
}

// ForbiddenError reports that the actor's role or assignment does not permit
// the intent. Never silently downgraded.
type ForbiddenError struct {
	Role   domain.Role
	Intent Intent
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("role %s may not %s: %s", e.Role, e.Intent, e.Reason)
	}
	return fmt.Sprintf("role %s may not %s", e.Role, e.Intent)
}

// NotReviewableError reports a review confirmation outside the reviewable
// status set.
type NotReviewableError struct {
	Status domain.IssueStatus
}

func (e *NotReviewableError) Error() string {
	return fmt.Sprintf("issue in status %s is not reviewable", e.Status)
}

// UnknownRoleError reports an unrecognized role reaching the visibility
// filter. This is a configuration error, not a user mistake.
type UnknownRoleError struct {
	Role domain.Role
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Role)
}
