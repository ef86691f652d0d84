package domain

// Role enumerates the actor roles recognized by the workflow.
type Role string

const (
	RoleSubmitter        Role = "SUBMITTER"
	RoleDistrictApprover Role = "DISTRICT_APPROVER"
	RoleCentralApprover  Role = "CENTRAL_APPROVER"
	RoleTechnician       Role = "TECHNICIAN"
	RoleSuperApprover    Role = "SUPER_APPROVER"
	RoleRoot             Role = "ROOT"
)

// KnownRole reports whether the role is recognized.
func KnownRole(role Role) bool {
	switch role {
	case RoleSubmitter, RoleDistrictApprover, RoleCentralApprover,
		RoleTechnician, RoleSuperApprover, RoleRoot:
		return true
	}
	return false
}

// Actor is the capability descriptor supplied by the authentication layer for
// every workflow operation. The core never re-derives it from storage.
type Actor struct {
	UserID     string
	Role       Role
	DistrictID string
	Branch     string
}

// HeadOfficeScoped reports whether the actor operates under a head-office
// branch restriction rather than a district or global scope.
func (a Actor) HeadOfficeScoped() bool {
	switch a.Role {
	case RoleCentralApprover, RoleTechnician:
		return true
	case RoleSuperApprover:
		return a.Branch != ""
	}
	return false
}
