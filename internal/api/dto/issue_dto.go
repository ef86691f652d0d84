package dto

import (
	"time"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// SubmitIssueRequest payload.
type SubmitIssueRequest struct {
	DeviceID      string               `json:"device_id"`
	ComplaintType string               `json:"complaint_type"`
	Description   string               `json:"description"`
	PriorityLevel domain.PriorityLevel `json:"priority_level"`
	UnderWarranty bool                 `json:"under_warranty"`
	AttachmentRef *string              `json:"attachment_ref"`
}

// TransitionRequest payload for POST /issues/:id/transition.
type TransitionRequest struct {
	Intent     string `json:"intent"`
	AssigneeID string `json:"assignee_id"`
	Comment    string `json:"comment"`
}

// ReviewRequest payload for POST /issues/:id/review.
type ReviewRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

// AuditEntryResponse is one structured trail entry plus its rendered form.
type AuditEntryResponse struct {
	At         time.Time `json:"at"`
	ActorLabel string    `json:"actor_label"`
	Text       string    `json:"text"`
	Formatted  string    `json:"formatted"`
}

// IssueResponse is the full issue representation.
type IssueResponse struct {
	ID                  string               `json:"id"`
	DeviceID            string               `json:"device_id"`
	ComplaintType       string               `json:"complaint_type"`
	Description         string               `json:"description"`
	PriorityLevel       domain.PriorityLevel `json:"priority_level"`
	UnderWarranty       bool                 `json:"under_warranty"`
	AttachmentRef       *string              `json:"attachment_ref,omitempty"`
	Location            string               `json:"location"`
	Branch              string               `json:"branch,omitempty"`
	Status              domain.IssueStatus   `json:"status"`
	StatusDisplay       string               `json:"status_display"`
	LastRequestedStatus domain.IssueStatus   `json:"last_requested_status,omitempty"`
	AssignedTo          *string              `json:"assigned_to,omitempty"`
	SubmittedBy         string               `json:"submitted_by"`
	AuditTrail          []AuditEntryResponse `json:"audit_trail"`

	SubmittedAt         time.Time  `json:"submitted_at"`
	DCDecidedAt         *time.Time `json:"dc_decided_at,omitempty"`
	SuperAdminDecidedAt *time.Time `json:"super_admin_decided_at,omitempty"`
	AssignedAt          *time.Time `json:"assigned_at,omitempty"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	ReopenedAt          *time.Time `json:"reopened_at,omitempty"`
}

// TechnicianResponse lists assignable technicians.
type TechnicianResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Branch *string `json:"branch,omitempty"`
	Skill  *string `json:"skill,omitempty"`
}

// DistrictResponse lookup entry.
type DistrictResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SkillResponse lookup entry.
type SkillResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RegisterAttachmentRequest records uploaded file metadata.
type RegisterAttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AttachmentResponse returns the opaque handle for an upload.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
