package domain

import (
	"strings"
	"time"
)

// PriorityLevel enumerates issue urgency.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "LOW"
	PriorityMedium PriorityLevel = "MEDIUM"
	PriorityHigh   PriorityLevel = "HIGH"
)

// HeadOfficePrefix tags issues scoped to a head-office branch rather than a
// district. Older records stored the bare prefix with the branch in a
// separate column; both representations must keep resolving.
const HeadOfficePrefix = "head-office"

// DistrictLocation builds the location value for a district-scoped issue.
func DistrictLocation(districtID string) string {
	return districtID
}

// HeadOfficeLocation builds the composite location value for a branch.
func HeadOfficeLocation(branch string) string {
	return HeadOfficePrefix + ":" + branch
}

// IsHeadOfficeLocation reports whether the location refers to head office.
func IsHeadOfficeLocation(location string) bool {
	return location == HeadOfficePrefix || strings.HasPrefix(location, HeadOfficePrefix+":")
}

// Issue is the aggregate for equipment-fault tickets. It is mutated
// exclusively through workflow transitions, never by direct assignment from
// outside the core.
type Issue struct {
	ID            string
	DeviceID      string
	ComplaintType string
	Description   string
	PriorityLevel PriorityLevel
	UnderWarranty bool
	AttachmentRef *string

	// Location is either a district identifier or a head-office branch tag.
	// Branch carries the branch for legacy rows whose Location is the bare
	// head-office prefix.
	Location string
	Branch   string

	Status IssueStatus
	// LastRequestedStatus records the literal status a technician asked for
	// when the engine normalized it (Resolved -> PendingReview). Display only.
	LastRequestedStatus IssueStatus

	AuditTrail  AuditTrail
	AssignedTo  *string
	SubmittedBy string

	SubmittedAt         time.Time
	DCDecidedAt         *time.Time
	SuperAdminDecidedAt *time.Time
	AssignedAt          *time.Time
	StartedAt           *time.Time
	ResolvedAt          *time.Time
	ReviewedAt          *time.Time
	CompletedAt         *time.Time
	ReopenedAt          *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HeadOfficeBranch resolves the branch for a head-office issue, accepting
// both the composite tag and the legacy bare-prefix-plus-column form.
func (i *Issue) HeadOfficeBranch() string {
	if rest, ok := strings.CutPrefix(i.Location, HeadOfficePrefix+":"); ok {
		return rest
	}
	if i.Location == HeadOfficePrefix {
		return i.Branch
	}
	return ""
}

// Clone returns a deep copy so the engine can compute a full next-state
// object without touching the loaded snapshot.
func (i *Issue) Clone() *Issue {
	out := *i
	out.AuditTrail = make(AuditTrail, len(i.AuditTrail))
	copy(out.AuditTrail, i.AuditTrail)
	out.AttachmentRef = clonePtr(i.AttachmentRef)
	out.AssignedTo = clonePtr(i.AssignedTo)
	out.DCDecidedAt = clonePtr(i.DCDecidedAt)
	out.SuperAdminDecidedAt = clonePtr(i.SuperAdminDecidedAt)
	out.AssignedAt = clonePtr(i.AssignedAt)
	out.StartedAt = clonePtr(i.StartedAt)
	out.ResolvedAt = clonePtr(i.ResolvedAt)
	out.ReviewedAt = clonePtr(i.ReviewedAt)
	out.CompletedAt = clonePtr(i.CompletedAt)
	out.ReopenedAt = clonePtr(i.ReopenedAt)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
