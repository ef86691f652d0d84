package workflow

import (
	"fmt"
	"time"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// Intent enumerates the transition requests the engine accepts.
type Intent string

const (
	IntentApproveDistrict Intent = "approve-district"
	IntentRejectDistrict  Intent = "reject-district"
	IntentApproveCentral  Intent = "approve-central"
	IntentRejectCentral   Intent = "reject-central"
	IntentAssign          Intent = "assign"
	IntentStart           Intent = "start"
	IntentResolve         Intent = "resolve"
	IntentReopen          Intent = "reopen"
)

// ParseIntent validates an inbound intent string.
func ParseIntent(raw string) (Intent, bool) {
	intent := Intent(raw)
	_, ok := transitionTable[intent]
	return intent, ok
}

// TransitionRequest carries a transition intent and its parameters.
type TransitionRequest struct {
	Intent     Intent
	ActorLabel string
	Comment    string

	// Assignment intent only.
	AssigneeID   string
	AssigneeName string
}

// edge is one row of the declarative transition table: which roles may move
// an issue from which statuses to the single target status.
type edge struct {
	roles           []domain.Role
	from            []domain.IssueStatus
	to              domain.IssueStatus
	requestedAs     domain.IssueStatus
	needsAssignment bool
}

// transitionTable is the single source of truth for transition legality.
// Role checks live here rather than scattered across handlers.
var transitionTable = map[Intent]edge{
	IntentApproveDistrict: {
		roles: []domain.Role{domain.RoleDistrictApprover},
		from:  []domain.IssueStatus{domain.StatusPending},
		to:    domain.StatusDCApproved,
	},
	IntentRejectDistrict: {
		roles: []domain.Role{domain.RoleDistrictApprover},
		from:  []domain.IssueStatus{domain.StatusPending},
		to:    domain.StatusDCRejected,
	},
	IntentApproveCentral: {
		roles: []domain.Role{domain.RoleCentralApprover, domain.RoleSuperApprover},
		from:  []domain.IssueStatus{domain.StatusDCApproved},
		to:    domain.StatusSuperAdminApproved,
	},
	IntentRejectCentral: {
		roles: []domain.Role{domain.RoleCentralApprover, domain.RoleSuperApprover},
		from:  []domain.IssueStatus{domain.StatusDCApproved},
		to:    domain.StatusSuperAdminRejected,
	},
	IntentAssign: {
		roles: []domain.Role{domain.RoleSuperApprover},
		from: []domain.IssueStatus{
			domain.StatusDCApproved,
			domain.StatusSuperAdminApproved,
			domain.StatusReopened,
		},
		to: domain.StatusAssigned,
	},
	IntentStart: {
		roles:           []domain.Role{domain.RoleTechnician},
		from:            []domain.IssueStatus{domain.StatusAssigned, domain.StatusReopened},
		to:              domain.StatusInProgress,
		needsAssignment: true,
	},
	IntentResolve: {
		roles: []domain.Role{domain.RoleTechnician},
		from:  []domain.IssueStatus{domain.StatusInProgress},
		// A technician's "resolve" is never stored literally; it lands in
		// PendingReview so the review gate can confirm it.
		to:              domain.StatusPendingReview,
		requestedAs:     domain.StatusResolved,
		needsAssignment: true,
	},
	IntentReopen: {
		roles: []domain.Role{domain.RoleSubmitter},
		from: []domain.IssueStatus{
			domain.StatusResolved,
			domain.StatusCompleted,
			domain.StatusDCRejected,
			domain.StatusSuperAdminRejected,
		},
		to: domain.StatusReopened,
	},
}

// Engine applies lifecycle transitions. It operates on in-memory snapshots
// only; validation fully precedes mutation and the returned issue is a
// complete next-state copy ready for a single persistence write.
type Engine struct {
	now func() time.Time
}

// NewEngine constructs an engine using wall-clock time.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt constructs an engine with an injected clock.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Apply validates and executes one transition. The input issue is never
// modified; on success a new issue carrying the status, derived timestamps,
// and exactly one appended audit note is returned.
func (e *Engine) Apply(issue *domain.Issue, actor domain.Actor, req TransitionRequest) (*domain.Issue, error) {
	rule, ok := transitionTable[req.Intent]
	if !ok {
		return nil, &IllegalTransitionError{Intent: req.Intent, From: issue.Status}
	}
	if !roleAllowed(rule.roles, actor.Role) {
		return nil, &ForbiddenError{Role: actor.Role, Intent: req.Intent}
	}
	if issue.Status == rule.to {
		return nil, &NoChangeError{Status: issue.Status}
	}
	if !statusIn(rule.from, issue.Status) {
		return nil, &IllegalTransitionError{Intent: req.Intent, From: issue.Status, Requested: rule.to}
	}
	if rule.needsAssignment {
		if issue.AssignedTo == nil || *issue.AssignedTo != actor.UserID {
			return nil, &ForbiddenError{Role: actor.Role, Intent: req.Intent, Reason: "issue is not assigned to this technician"}
		}
	}
	if req.Intent == IntentAssign && req.AssigneeID == "" {
		return nil, ErrAssigneeRequired
	}

	now := e.now()
	next := issue.Clone()
	next.Status = rule.to
	next.LastRequestedStatus = rule.to
	if rule.requestedAs != "" {
		next.LastRequestedStatus = rule.requestedAs
	}

	switch req.Intent {
	case IntentApproveDistrict, IntentRejectDistrict:
		next.DCDecidedAt = &now
	case IntentApproveCentral, IntentRejectCentral:
		next.SuperAdminDecidedAt = &now
	case IntentAssign:
		assignee := req.AssigneeID
		next.AssignedTo = &assignee
		next.AssignedAt = &now
	case IntentStart:
		next.StartedAt = &now
	case IntentResolve:
		next.ResolvedAt = &now
	case IntentReopen:
		next.ReopenedAt = &now
		next.AssignedTo = nil
	}

	next.AuditTrail = next.AuditTrail.Append(now, actorLabel(req, actor), auditText(req, rule))
	next.UpdatedAt = now
	return next, nil
}

func roleAllowed(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func statusIn(statuses []domain.IssueStatus, status domain.IssueStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func actorLabel(req TransitionRequest, actor domain.Actor) string {
	if req.ActorLabel != "" {
		return req.ActorLabel
	}
	return actor.UserID
}

func auditText(req TransitionRequest, rule edge) string {
	var text string
	switch req.Intent {
	case IntentAssign:
		assignee := req.AssigneeName
		if assignee == "" {
			assignee = req.AssigneeID
		}
		text = fmt.Sprintf("Assigned to %s", assignee)
	case IntentResolve:
		text = "Marked resolved, awaiting review"
	default:
		text = rule.to.DisplayName()
	}
	if req.Comment != "" {
		text += ": " + req.Comment
	}
	return text
}
