package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
	"github.com/OliveaSegaram/EC-sub001/internal/events"
	"github.com/OliveaSegaram/EC-sub001/internal/repository"
	"github.com/OliveaSegaram/EC-sub001/internal/workflow"
	apperrors "github.com/OliveaSegaram/EC-sub001/pkg/util"
)

// IssueService coordinates the issue lifecycle: it loads snapshots, runs the
// workflow engine, persists the computed next state with a status guard, and
// publishes events. All state mutation funnels through here.
type IssueService struct {
	issues      repository.IssueRepository
	users       repository.UserRepository
	districts   repository.DistrictRepository
	attachments repository.AttachmentRepository
	engine      *workflow.Engine
	gate        *workflow.ReviewGate
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo      repository.IssueRepository
	UserRepo       repository.UserRepository
	DistrictRepo   repository.DistrictRepository
	AttachmentRepo repository.AttachmentRepository
	Engine         *workflow.Engine
	ReviewGate     *workflow.ReviewGate
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// IssueCreateInput describes issue submission payload.
type IssueCreateInput struct {
	DeviceID      string
	ComplaintType string
	Description   string
	PriorityLevel domain.PriorityLevel
	UnderWarranty bool
	AttachmentRef *string
}

// Listing buckets split the lifecycle by what is still actionable for the
// caller's role.
const (
	BucketActive   = "active"
	BucketArchived = "archived"
)

// IssueListInput describes listing refinements on top of the actor's scope.
type IssueListInput struct {
	// DistrictHint/BranchHint narrow an unrestricted actor's listing; scoped
	// actors always list within their own jurisdiction.
	DistrictHint string
	BranchHint   string
	Statuses     []domain.IssueStatus
	// Bucket selects active or archived issues for the actor's role.
	// Explicit Statuses take precedence.
	Bucket string
	Limit  int
	Offset int
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	engine := deps.Engine
	if engine == nil {
		engine = workflow.NewEngine()
	}
	gate := deps.ReviewGate
	if gate == nil {
		gate = workflow.NewReviewGate()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:      deps.IssueRepo,
		users:       deps.UserRepo,
		districts:   deps.DistrictRepo,
		attachments: deps.AttachmentRepo,
		engine:      engine,
		gate:        gate,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// SubmitIssue creates an issue in Pending for the acting submitter. The
// location derives from the actor's jurisdiction: a district id, or the
// head-office branch tag. A head-office actor without a branch is invalid.
func (s *IssueService) SubmitIssue(ctx context.Context, actor domain.Actor, actorName string, input IssueCreateInput) (*domain.Issue, error) {
	var location string
	switch {
	case actor.DistrictID != "":
		district, err := s.districts.GetByID(ctx, actor.DistrictID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown district", map[string]any{"district_id": actor.DistrictID})
			}
			return nil, apperrors.MapError(err)
		}
		if !district.IsActive {
			return nil, apperrors.NewValidationError("district inactive", map[string]any{"district_id": actor.DistrictID})
		}
		location = domain.DistrictLocation(district.ID)
	case actor.Branch != "":
		location = domain.HeadOfficeLocation(actor.Branch)
	default:
		return nil, apperrors.NewValidationError("submitter has neither district nor head-office branch", nil)
	}

	if input.AttachmentRef != nil {
		if _, err := s.attachments.GetByID(ctx, *input.AttachmentRef); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown attachment reference", map[string]any{"attachment_ref": *input.AttachmentRef})
			}
			return nil, apperrors.MapError(err)
		}
	}

	now := time.Now()
	label := actorName
	if label == "" {
		label = actor.UserID
	}
	issue := &domain.Issue{
		DeviceID:      input.DeviceID,
		ComplaintType: strings.TrimSpace(input.ComplaintType),
		Description:   strings.TrimSpace(input.Description),
		PriorityLevel: input.PriorityLevel,
		UnderWarranty: input.UnderWarranty,
		AttachmentRef: input.AttachmentRef,
		Location:      location,
		Status:        domain.StatusPending,
		SubmittedBy:   actor.UserID,
		SubmittedAt:   now,
		AuditTrail:    domain.AuditTrail{}.Append(now, label, "Issue submitted"),
	}
	if issue.PriorityLevel == "" {
		issue.PriorityLevel = domain.PriorityMedium
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:    events.EventIssueSubmitted,
		IssueID: issue.ID,
		Actor:   events.Actor{UserID: actor.UserID, Role: actor.Role},
		Payload: events.IssueSubmittedPayload{
			Location:      issue.Location,
			ComplaintType: issue.ComplaintType,
			Priority:      issue.PriorityLevel,
			DeviceID:      issue.DeviceID,
		},
	})
	return issue, nil
}

// ListIssues returns the subset of issues the actor may see.
func (s *IssueService) ListIssues(ctx context.Context, actor domain.Actor, input IssueListInput) ([]domain.Issue, error) {
	scope, err := workflow.ScopeFor(actor)
	if err != nil {
		s.logger.Error("visibility filter given unrecognized role",
			zap.String("user_id", actor.UserID), zap.String("role", string(actor.Role)))
		return nil, s.mapWorkflowError(err)
	}

	statuses := input.Statuses
	if len(statuses) == 0 && input.Bucket != "" {
		statuses, err = bucketStatuses(input.Bucket, actor.Role)
		if err != nil {
			return nil, err
		}
	}

	filter := repository.IssueFilter{
		Statuses: statuses,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}
	switch {
	case scope.SubmittedBy != "":
		filter.SubmittedBy = &scope.SubmittedBy
	case scope.District != "":
		filter.District = &scope.District
	case scope.Branch != "":
		filter.Branch = &scope.Branch
	case scope.Unrestricted:
		if input.DistrictHint != "" {
			filter.District = &input.DistrictHint
		} else if input.BranchHint != "" {
			filter.Branch = &input.BranchHint
		}
	default:
		// A scoped actor whose jurisdiction value is empty resolves nothing.
		// Mirror Scope.Allows and fail closed rather than query unrestricted.
		s.logger.Warn("actor with empty jurisdiction listed issues",
			zap.String("user_id", actor.UserID), zap.String("role", string(actor.Role)))
		return []domain.Issue{}, nil
	}
	issues, err := s.issues.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// bucketStatuses translates an active/archived bucket into the status set it
// means for the role.
func bucketStatuses(bucket string, role domain.Role) ([]domain.IssueStatus, error) {
	if bucket != BucketActive && bucket != BucketArchived {
		return nil, apperrors.NewValidationError("unknown bucket", map[string]any{"bucket": bucket})
	}
	archived := bucket == BucketArchived
	var statuses []domain.IssueStatus
	for _, status := range domain.AllStatuses {
		if status.TerminalForRole(role) == archived {
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

// GetIssue fetches one issue, enforcing the actor's visibility.
func (s *IssueService) GetIssue(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	return s.loadVisible(ctx, actor, issueID)
}

// ApplyTransition runs one lifecycle transition end to end. The engine
// computes a complete next state which is written with a compare-and-swap on
// the loaded status; a lost race is reported, never retried here.
func (s *IssueService) ApplyTransition(ctx context.Context, actor domain.Actor, issueID string, req workflow.TransitionRequest) (*domain.Issue, error) {
	issue, err := s.loadVisible(ctx, actor, issueID)
	if err != nil {
		return nil, err
	}

	if req.Intent == workflow.IntentAssign && req.AssigneeID != "" {
		assignee, err := s.users.GetByID(ctx, req.AssigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("assignee", map[string]any{"user_id": req.AssigneeID})
			}
			return nil, apperrors.MapError(err)
		}
		if assignee.Role != domain.RoleTechnician {
			return nil, apperrors.NewValidationError("assignee is not a technician", map[string]any{"user_id": assignee.ID})
		}
		if assignee.Status != domain.UserStatusActive {
			return nil, apperrors.NewConflict("assignee inactive", map[string]any{"user_id": assignee.ID})
		}
		req.AssigneeName = assignee.Name
	}

	next, err := s.engine.Apply(issue, actor, req)
	if err != nil {
		return nil, s.mapWorkflowError(err)
	}

	if err := s.persistTransition(ctx, next, issue.Status, req.Intent); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventIssueStatusChanged,
		IssueID: next.ID,
		Actor:   events.Actor{UserID: actor.UserID, Role: actor.Role},
		Payload: events.IssueStatusChangedPayload{
			OldStatus: issue.Status,
			NewStatus: next.Status,
			Intent:    string(req.Intent),
			Comment:   req.Comment,
		},
	})
	if req.Intent == workflow.IntentAssign && next.AssignedTo != nil {
		s.publish(ctx, events.Event{
			Type:    events.EventIssueAssigned,
			IssueID: next.ID,
			Actor:   events.Actor{UserID: actor.UserID, Role: actor.Role},
			Payload: events.IssueAssignedPayload{AssigneeID: *next.AssignedTo},
		})
	}
	return next, nil
}

// ConfirmReview applies a review decision through the review gate.
func (s *IssueService) ConfirmReview(ctx context.Context, actor domain.Actor, issueID string, req workflow.ReviewRequest) (*domain.Issue, error) {
	issue, err := s.loadVisible(ctx, actor, issueID)
	if err != nil {
		return nil, err
	}

	next, err := s.gate.Confirm(issue, actor, req)
	if err != nil {
		return nil, s.mapWorkflowError(err)
	}

	if err := s.persistTransition(ctx, next, issue.Status, "review"); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventIssueReviewed,
		IssueID: next.ID,
		Actor:   events.Actor{UserID: actor.UserID, Role: actor.Role},
		Payload: events.IssueReviewedPayload{Approved: req.Approved, NewStatus: next.Status},
	})
	return next, nil
}

// DeleteIssue removes a Pending issue. Deletion is an administrative action
// outside the lifecycle: only root, or the submitter on their own issue.
func (s *IssueService) DeleteIssue(ctx context.Context, actor domain.Actor, issueID string) error {
	issue, err := s.loadVisible(ctx, actor, issueID)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleRoot && issue.SubmittedBy != actor.UserID {
		return apperrors.NewForbidden("only root or the submitter may delete an issue")
	}
	if issue.Status != domain.StatusPending {
		return apperrors.NewConflict("only pending issues can be deleted", map[string]any{
			"current_status": issue.Status,
		})
	}
	if err := s.issues.DeletePending(ctx, issueID); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperrors.NewConflict("issue left pending before deletion", map[string]any{"issue_id": issueID})
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("pending issue deleted",
		zap.String("issue_id", issueID), zap.String("deleted_by", actor.UserID))
	s.publish(ctx, events.Event{
		Type:    events.EventIssueDeleted,
		IssueID: issueID,
		Actor:   events.Actor{UserID: actor.UserID, Role: actor.Role},
		Payload: events.IssueDeletedPayload{Location: issue.Location},
	})
	return nil
}

// ListTechnicians exposes assignable technicians for the assignment UI.
func (s *IssueService) ListTechnicians(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if actor.Role != domain.RoleSuperApprover && actor.Role != domain.RoleRoot {
		return nil, apperrors.NewForbidden("insufficient role to list technicians")
	}
	technicians, err := s.users.ListByRole(ctx, domain.RoleTechnician)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return technicians, nil
}

func (s *IssueService) loadVisible(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	allowed, err := workflow.CanAccess(actor, issue)
	if err != nil {
		s.logger.Error("visibility check failed for unrecognized role",
			zap.String("user_id", actor.UserID), zap.String("role", string(actor.Role)))
		return nil, s.mapWorkflowError(err)
	}
	if !allowed {
		return nil, apperrors.NewForbidden("issue outside actor jurisdiction")
	}
	return issue, nil
}

// persistTransition writes the engine's next state guarded by the status the
// snapshot was loaded at. When the guard misses, the current record is
// re-read and the race is reported as NoChange or IllegalTransition.
func (s *IssueService) persistTransition(ctx context.Context, next *domain.Issue, loadedStatus domain.IssueStatus, intent workflow.Intent) error {
	err := s.issues.UpdateFromStatus(ctx, next, loadedStatus)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrStaleStatus) {
		return apperrors.MapError(err)
	}

	current, readErr := s.issues.GetByID(ctx, next.ID)
	if readErr != nil {
		if errors.Is(readErr, pgx.ErrNoRows) {
			return apperrors.NewNotFound("issue", map[string]any{"issue_id": next.ID})
		}
		return apperrors.MapError(readErr)
	}
	if current.Status == next.Status {
		return s.mapWorkflowError(&workflow.NoChangeError{Status: current.Status})
	}
	return s.mapWorkflowError(&workflow.IllegalTransitionError{
		Intent:    intent,
		From:      current.Status,
		Requested: next.Status,
	})
}

// mapWorkflowError translates the core's typed errors into transport-ready
// DomainErrors without losing the structured detail.
func (s *IssueService) mapWorkflowError(err error) error {
	var illegal *workflow.IllegalTransitionError
	if errors.As(err, &illegal) {
		return apperrors.NewDomainError("ILLEGAL_TRANSITION", err.Error(), http.StatusConflict, map[string]any{
			"current_status":   illegal.From,
			"attempted_status": illegal.Requested,
			"intent":           illegal.Intent,
		})
	}
	var noChange *workflow.NoChangeError
	if errors.As(err, &noChange) {
		return apperrors.NewDomainError("NO_CHANGE", err.Error(), http.StatusConflict, map[string]any{
			"current_status": noChange.Status,
		})
	}
	var forbidden *workflow.ForbiddenError
	if errors.As(err, &forbidden) {
		return apperrors.NewDomainError("FORBIDDEN", err.Error(), http.StatusForbidden, map[string]any{
			"role":   forbidden.Role,
			"intent": forbidden.Intent,
		})
	}
	var notReviewable *workflow.NotReviewableError
	if errors.As(err, &notReviewable) {
		return apperrors.NewDomainError("NOT_REVIEWABLE", err.Error(), http.StatusConflict, map[string]any{
			"current_status": notReviewable.Status,
		})
	}
	var unknownRole *workflow.UnknownRoleError
	if errors.As(err, &unknownRole) {
		return apperrors.NewDomainError("UNKNOWN_ROLE", err.Error(), http.StatusInternalServerError, map[string]any{
			"role": unknownRole.Role,
		})
	}
	if errors.Is(err, workflow.ErrAssigneeRequired) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return apperrors.MapError(err)
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
