package domain

import "strings"

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	StatusPending            IssueStatus = "PENDING"
	StatusDCApproved         IssueStatus = "DC_APPROVED"
	StatusDCRejected         IssueStatus = "DC_REJECTED"
	StatusSuperAdminApproved IssueStatus = "SUPER_ADMIN_APPROVED"
	StatusSuperAdminRejected IssueStatus = "SUPER_ADMIN_REJECTED"
	StatusAssigned           IssueStatus = "ASSIGNED"
	StatusInProgress         IssueStatus = "IN_PROGRESS"
	StatusResolved           IssueStatus = "RESOLVED"
	StatusPendingReview      IssueStatus = "PENDING_REVIEW"
	StatusCompleted          IssueStatus = "COMPLETED"
	StatusReopened           IssueStatus = "REOPENED"
)

// AllStatuses lists every member of the registry in pipeline order.
var AllStatuses = []IssueStatus{
	StatusPending,
	StatusDCApproved,
	StatusDCRejected,
	StatusSuperAdminApproved,
	StatusSuperAdminRejected,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusPendingReview,
	StatusCompleted,
	StatusReopened,
}

var displayNames = map[IssueStatus]string{
	StatusPending:            "Pending",
	StatusDCApproved:         "Approved by DC/AC",
	StatusDCRejected:         "Rejected by DC/AC",
	StatusSuperAdminApproved: "Approved by Super Admin",
	StatusSuperAdminRejected: "Rejected by Super Admin",
	StatusAssigned:           "Assigned",
	StatusInProgress:         "In Progress",
	StatusResolved:           "Resolved",
	StatusPendingReview:      "Pending Review",
	StatusCompleted:          "Completed",
	StatusReopened:           "Reopened",
}

// legacyStatusAliases maps free-text statuses found in historical records to
// canonical registry members. Keys are lower-cased before lookup. Canonical
// values are always written going forward; these only ever apply on read.
var legacyStatusAliases = map[string]IssueStatus{
	"pending":                 StatusPending,
	"approved by dc/ac":       StatusDCApproved,
	"approved by dc":          StatusDCApproved,
	"issue approved by dc":    StatusDCApproved,
	"rejected by dc/ac":       StatusDCRejected,
	"rejected by dc":          StatusDCRejected,
	"issue rejected by dc":    StatusDCRejected,
	"approved by super admin": StatusSuperAdminApproved,
	"approved by super user":  StatusSuperAdminApproved,
	"rejected by super admin": StatusSuperAdminRejected,
	"rejected by super user":  StatusSuperAdminRejected,
	"assigned":                StatusAssigned,
	"in progress":             StatusInProgress,
	"resolved":                StatusResolved,
	"pending review":          StatusPendingReview,
	"under review":            StatusPendingReview,
	"completed":               StatusCompleted,
	"closed":                  StatusCompleted,
	"reopened":                StatusReopened,
}

// Valid reports whether the status is a member of the registry.
func (s IssueStatus) Valid() bool {
	_, ok := displayNames[s]
	return ok
}

// DisplayName returns the canonical human-readable name for the status.
// Unknown values are returned as-is so historical records stay renderable.
func (s IssueStatus) DisplayName() string {
	if name, ok := displayNames[s]; ok {
		return name
	}
	return string(s)
}

// canonicalByLower indexes registry members by their lowercase spelling, the
// form StorageForms emits and SQL comparisons use.
var canonicalByLower = func() map[string]IssueStatus {
	index := make(map[string]IssueStatus, len(AllStatuses))
	for _, status := range AllStatuses {
		index[strings.ToLower(string(status))] = status
	}
	return index
}()

// ParseStatus resolves a stored status value, canonical in any casing or
// legacy free-text, to a registry member. The boolean is false when the value
// matches nothing.
func ParseStatus(raw string) (IssueStatus, bool) {
	if s := IssueStatus(raw); s.Valid() {
		return s, true
	}
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := canonicalByLower[normalized]; ok {
		return s, true
	}
	if s, ok := legacyStatusAliases[normalized]; ok {
		return s, true
	}
	return "", false
}

// StorageForms returns every stored representation that resolves to this
// status, lower-cased: the canonical value plus any legacy free-text
// aliases. Persistence compares LOWER(status) against these so
// compare-and-swap keeps matching historical rows.
func (s IssueStatus) StorageForms() []string {
	forms := []string{strings.ToLower(string(s))}
	for raw, canonical := range legacyStatusAliases {
		if canonical == s && raw != forms[0] {
			forms = append(forms, raw)
		}
	}
	return forms
}

// TerminalForRole reports whether an issue in this status belongs in the
// actor's archived bucket rather than the active one.
func (s IssueStatus) TerminalForRole(role Role) bool {
	switch s {
	case StatusCompleted, StatusDCRejected, StatusSuperAdminRejected:
		return true
	case StatusResolved, StatusPendingReview:
		// Still actionable for the reviewing authority and the submitter.
		return role == RoleTechnician
	default:
		return false
	}
}
