package workflow

import (
	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// Scope is the repository-level translation of an actor's visibility: either
// unrestricted, or exactly one of the narrowing fields set.
type Scope struct {
	Unrestricted bool
	SubmittedBy  string
	District     string
	Branch       string
}

// ScopeFor computes the visibility scope for an actor. Rules are evaluated
// in precedence order; an unrecognized role is a configuration error, never
// an empty result. A branch-scoped actor missing its branch gets a scope
// that resolves nothing.
func ScopeFor(actor domain.Actor) (Scope, error) {
	if actor.HeadOfficeScoped() {
		return Scope{Branch: actor.Branch}, nil
	}
	switch actor.Role {
	case domain.RoleSubmitter:
		return Scope{SubmittedBy: actor.UserID}, nil
	case domain.RoleDistrictApprover:
		return Scope{District: actor.DistrictID}, nil
	case domain.RoleSuperApprover, domain.RoleRoot:
		return Scope{Unrestricted: true}, nil
	default:
		return Scope{}, &UnknownRoleError{Role: actor.Role}
	}
}

// Allows reports whether the actor may see the issue.
func (s Scope) Allows(issue *domain.Issue) bool {
	switch {
	case s.Unrestricted:
		return true
	case s.SubmittedBy != "":
		return issue.SubmittedBy == s.SubmittedBy
	case s.District != "":
		return issue.Location == s.District
	case s.Branch != "":
		// Both location forms must keep resolving: the composite
		// "head-office:branch" tag and the legacy bare tag with the branch
		// in its own field.
		return domain.IsHeadOfficeLocation(issue.Location) && issue.HeadOfficeBranch() == s.Branch
	default:
		return false
	}
}

// VisibleIssues filters the population down to the subset the actor may
// list. Pure read; zero matches is an empty set, not an error.
func VisibleIssues(actor domain.Actor, issues []domain.Issue) ([]domain.Issue, error) {
	scope, err := ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.Issue, 0, len(issues))
	for i := range issues {
		if scope.Allows(&issues[i]) {
			visible = append(visible, issues[i])
		}
	}
	return visible, nil
}

// CanAccess reports whether the actor may read or act on a single issue.
func CanAccess(actor domain.Actor, issue *domain.Issue) (bool, error) {
	scope, err := ScopeFor(actor)
	if err != nil {
		return false, err
	}
	return scope.Allows(issue), nil
}
