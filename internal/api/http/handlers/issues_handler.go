package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/OliveaSegaram/EC-sub001/internal/api/dto"
	"github.com/OliveaSegaram/EC-sub001/internal/auth"
	"github.com/OliveaSegaram/EC-sub001/internal/domain"
	"github.com/OliveaSegaram/EC-sub001/internal/service"
	"github.com/OliveaSegaram/EC-sub001/internal/workflow"
	apperrors "github.com/OliveaSegaram/EC-sub001/pkg/util"
)

// IssuesHandler exposes the issue lifecycle endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issueService}
}

// SubmitIssue POST /issues.
func (h *IssuesHandler) SubmitIssue(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SubmitIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DeviceID == "" || req.ComplaintType == "" || req.Description == "" {
		return apperrors.NewValidationError("device_id, complaint_type, description required", nil)
	}

	issue, err := h.issues.SubmitIssue(c.UserContext(), principal.Actor, principal.User.Name, service.IssueCreateInput{
		DeviceID:      req.DeviceID,
		ComplaintType: req.ComplaintType,
		Description:   req.Description,
		PriorityLevel: req.PriorityLevel,
		UnderWarranty: req.UnderWarranty,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueResponse(issue)})
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	input := service.IssueListInput{
		DistrictHint: c.Query("district"),
		BranchHint:   c.Query("branch"),
		Bucket:       c.Query("bucket"),
		Limit:        parseInt(c.Query("page_size"), 50),
	}
	page := parseInt(c.Query("page"), 1)
	input.Offset = (page - 1) * input.Limit
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			if status, ok := domain.ParseStatus(strings.TrimSpace(part)); ok {
				input.Statuses = append(input.Statuses, status)
			}
		}
	}

	issues, err := h.issues.ListIssues(c.UserContext(), principal.Actor, input)
	if err != nil {
		return err
	}
	items := make([]dto.IssueResponse, 0, len(issues))
	for i := range issues {
		items = append(items, issueResponse(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.GetIssue(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// ApplyTransition POST /issues/:id/transition.
func (h *IssuesHandler) ApplyTransition(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	intent, ok := workflow.ParseIntent(req.Intent)
	if !ok {
		return apperrors.NewValidationError("unknown intent", map[string]any{"intent": req.Intent})
	}

	issue, err := h.issues.ApplyTransition(c.UserContext(), principal.Actor, c.Params("id"), workflow.TransitionRequest{
		Intent:     intent,
		ActorLabel: principal.User.Name,
		Comment:    strings.TrimSpace(req.Comment),
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// ConfirmReview POST /issues/:id/review.
func (h *IssuesHandler) ConfirmReview(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.issues.ConfirmReview(c.UserContext(), principal.Actor, c.Params("id"), workflow.ReviewRequest{
		Approved:   req.Approved,
		ActorLabel: principal.User.Name,
		Comment:    strings.TrimSpace(req.Comment),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// DeleteIssue DELETE /issues/:id.
func (h *IssuesHandler) DeleteIssue(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.issues.DeleteIssue(c.UserContext(), principal.Actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListTechnicians GET /issues/technicians.
func (h *IssuesHandler) ListTechnicians(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	technicians, err := h.issues.ListTechnicians(c.UserContext(), principal.Actor)
	if err != nil {
		return err
	}
	items := make([]dto.TechnicianResponse, 0, len(technicians))
	for i := range technicians {
		items = append(items, dto.TechnicianResponse{
			ID:     technicians[i].ID,
			Name:   technicians[i].Name,
			Branch: technicians[i].Branch,
			Skill:  technicians[i].Skill,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func issueResponse(issue *domain.Issue) dto.IssueResponse {
	trail := make([]dto.AuditEntryResponse, 0, len(issue.AuditTrail))
	for _, entry := range issue.AuditTrail {
		trail = append(trail, dto.AuditEntryResponse{
			At:         entry.At,
			ActorLabel: entry.ActorLabel,
			Text:       entry.Text,
			Formatted:  entry.Formatted(),
		})
	}
	return dto.IssueResponse{
		ID:                  issue.ID,
		DeviceID:            issue.DeviceID,
		ComplaintType:       issue.ComplaintType,
		Description:         issue.Description,
		PriorityLevel:       issue.PriorityLevel,
		UnderWarranty:       issue.UnderWarranty,
		AttachmentRef:       issue.AttachmentRef,
		Location:            issue.Location,
		Branch:              issue.Branch,
		Status:              issue.Status,
		StatusDisplay:       issue.Status.DisplayName(),
		LastRequestedStatus: issue.LastRequestedStatus,
		AssignedTo:          issue.AssignedTo,
		SubmittedBy:         issue.SubmittedBy,
		AuditTrail:          trail,
		SubmittedAt:         issue.SubmittedAt,
		DCDecidedAt:         issue.DCDecidedAt,
		SuperAdminDecidedAt: issue.SuperAdminDecidedAt,
		AssignedAt:          issue.AssignedAt,
		StartedAt:           issue.StartedAt,
		ResolvedAt:          issue.ResolvedAt,
		ReviewedAt:          issue.ReviewedAt,
		CompletedAt:         issue.CompletedAt,
		ReopenedAt:          issue.ReopenedAt,
	}
}
