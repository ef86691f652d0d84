package events

import (
	"time"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueSubmitted     EventType = "issue_submitted"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueReviewed      EventType = "issue_reviewed"
	EventIssueDeleted       EventType = "issue_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueSubmittedPayload payload.
type IssueSubmittedPayload struct {
	Location      string               `json:"location"`
	ComplaintType string               `json:"complaint_type"`
	Priority      domain.PriorityLevel `json:"priority"`
	DeviceID      string               `json:"device_id"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Intent    string             `json:"intent"`
	Comment   string             `json:"comment,omitempty"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
}

// IssueReviewedPayload payload.
type IssueReviewedPayload struct {
	Approved  bool               `json:"approved"`
	NewStatus domain.IssueStatus `json:"new_status"`
}

// IssueDeletedPayload payload.
type IssueDeletedPayload struct {
	Location string `json:"location"`
}
