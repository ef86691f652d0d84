package workflow

import (
	"time"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// ReviewGate handles the two-step confirmation of technician resolutions:
// a resolved issue sits in PendingReview until an approving authority either
// completes it or sends it back to the technician.
type ReviewGate struct {
	now func() time.Time
}

// NewReviewGate constructs a gate using wall-clock time.
func NewReviewGate() *ReviewGate {
	return &ReviewGate{now: time.Now}
}

// NewReviewGateAt constructs a gate with an injected clock.
func NewReviewGateAt(now func() time.Time) *ReviewGate {
	return &ReviewGate{now: now}
}

// ReviewRequest carries a review confirmation.
type ReviewRequest struct {
	Approved   bool
	ActorLabel string
	Comment    string
}

// reviewIntent names the review confirmation in forbidden errors; it is not
// a transition-table edge.
const reviewIntent Intent = "review"

// Confirm applies a review decision. Approval completes the issue; rejection
// returns it to InProgress with a clean slate for the technician.
func (g *ReviewGate) Confirm(issue *domain.Issue, actor domain.Actor, req ReviewRequest) (*domain.Issue, error) {
	if actor.Role != domain.RoleSuperApprover && actor.Role != domain.RoleRoot {
		return nil, &ForbiddenError{Role: actor.Role, Intent: reviewIntent}
	}
	if issue.Status != domain.StatusPendingReview && issue.Status != domain.StatusResolved {
		return nil, &NotReviewableError{Status: issue.Status}
	}

	now := g.now()
	next := issue.Clone()
	next.ReviewedAt = &now

	var text string
	if req.Approved {
		next.Status = domain.StatusCompleted
		next.LastRequestedStatus = domain.StatusCompleted
		if next.CompletedAt == nil {
			next.CompletedAt = &now
		}
		text = "Resolution approved, issue completed"
	} else {
		next.Status = domain.StatusInProgress
		next.LastRequestedStatus = ""
		text = "Resolution rejected, returned to technician"
	}
	if req.Comment != "" {
		text += ": " + req.Comment
	}

	label := req.ActorLabel
	if label == "" {
		label = actor.UserID
	}
	next.AuditTrail = next.AuditTrail.Append(now, label, text)
	next.UpdatedAt = now
	return next, nil
}
