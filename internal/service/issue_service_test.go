package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
	"github.com/OliveaSegaram/EC-sub001/internal/events"
	"github.com/OliveaSegaram/EC-sub001/internal/repository"
	"github.com/OliveaSegaram/EC-sub001/internal/service"
	"github.com/OliveaSegaram/EC-sub001/internal/workflow"
	apperrors "github.com/OliveaSegaram/EC-sub001/pkg/util"
)

// fakeIssueRepo keeps issues in a map and can simulate a lost
// compare-and-swap by flipping the stored status between load and write.
type fakeIssueRepo struct {
	issues     map[string]*domain.Issue
	lastFilter repository.IssueFilter
	listCalls  int
	raceTo     domain.IssueStatus
	raceArmed  bool
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: map[string]*domain.Issue{}}
}

func (f *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	if issue.ID == "" {
		issue.ID = "issue-1"
	}
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	f.issues[issue.ID] = issue.Clone()
	return nil
}

func (f *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	issue, ok := f.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return issue.Clone(), nil
}

func (f *fakeIssueRepo) UpdateFromStatus(_ context.Context, issue *domain.Issue, expected domain.IssueStatus) error {
	stored, ok := f.issues[issue.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if f.raceArmed {
		stored.Status = f.raceTo
		f.raceArmed = false
	}
	if stored.Status != expected {
		return repository.ErrStaleStatus
	}
	f.issues[issue.ID] = issue.Clone()
	return nil
}

func (f *fakeIssueRepo) ListWithFilter(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	f.listCalls++
	f.lastFilter = filter
	return nil, nil
}

func (f *fakeIssueRepo) DeletePending(_ context.Context, id string) error {
	stored, ok := f.issues[id]
	if !ok || stored.Status != domain.StatusPending {
		return repository.ErrStaleStatus
	}
	delete(f.issues, id)
	return nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error { return nil }
func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error { return nil }
func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}
func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}
func (f *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, user := range f.users {
		if user.Role == role && user.Status == domain.UserStatusActive {
			out = append(out, *user)
		}
	}
	return out, nil
}

type fakeDistrictRepo struct {
	districts map[string]*domain.District
}

func (f *fakeDistrictRepo) GetByID(_ context.Context, id string) (*domain.District, error) {
	district, ok := f.districts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return district, nil
}
func (f *fakeDistrictRepo) ListActive(_ context.Context) ([]domain.District, error) {
	return nil, nil
}
func (f *fakeDistrictRepo) ListActiveSkills(_ context.Context) ([]domain.Skill, error) {
	return nil, nil
}

type fakeAttachmentRepo struct{}

func (fakeAttachmentRepo) Create(_ context.Context, _ *domain.AttachmentReference) error { return nil }
func (fakeAttachmentRepo) GetByID(_ context.Context, _ string) (*domain.AttachmentReference, error) {
	return nil, pgx.ErrNoRows
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}
func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

type fixture struct {
	svc        *service.IssueService
	issues     *fakeIssueRepo
	users      *fakeUserRepo
	dispatcher *recordingDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	issues := newFakeIssueRepo()
	users := &fakeUserRepo{users: map[string]*domain.User{
		"tech-1": {ID: "tech-1", Name: "Kasun", Role: domain.RoleTechnician, Status: domain.UserStatusActive},
		"sub-1":  {ID: "sub-1", Name: "Nimal", Role: domain.RoleSubmitter, Status: domain.UserStatusActive},
	}}
	dispatcher := &recordingDispatcher{}
	svc := service.NewIssueService(service.IssueDependencies{
		IssueRepo: issues,
		UserRepo:  users,
		DistrictRepo: &fakeDistrictRepo{districts: map[string]*domain.District{
			"district-7": {ID: "district-7", Name: "Kandy", IsActive: true},
			"district-x": {ID: "district-x", Name: "Closed", IsActive: false},
		}},
		AttachmentRepo: fakeAttachmentRepo{},
		Dispatcher:     dispatcher,
	})
	return &fixture{svc: svc, issues: issues, users: users, dispatcher: dispatcher}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	domainErr := apperrors.ToDomainError(err)
	require.NotNil(t, domainErr)
	return domainErr.Code
}

func TestSubmitIssueDerivesLocation(t *testing.T) {
	fx := newFixture(t)
	actor := domain.Actor{UserID: "sub-1", Role: domain.RoleSubmitter, DistrictID: "district-7"}

	issue, err := fx.svc.SubmitIssue(context.Background(), actor, "Nimal", service.IssueCreateInput{
		DeviceID:      "printer-42",
		ComplaintType: "Paper jam",
		Description:   "Jams on every duplex job",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, issue.Status)
	assert.Equal(t, "district-7", issue.Location)
	assert.Equal(t, domain.PriorityMedium, issue.PriorityLevel)
	require.Len(t, issue.AuditTrail, 1)
	assert.Equal(t, "Nimal", issue.AuditTrail[0].ActorLabel)
	require.Len(t, fx.dispatcher.published, 1)
	assert.Equal(t, events.EventIssueSubmitted, fx.dispatcher.published[0].Type)
}

func TestSubmitIssueHeadOfficeLocation(t *testing.T) {
	fx := newFixture(t)
	actor := domain.Actor{UserID: "sub-1", Role: domain.RoleSubmitter, Branch: "it"}

	issue, err := fx.svc.SubmitIssue(context.Background(), actor, "Nimal", service.IssueCreateInput{
		DeviceID: "switch-3", ComplaintType: "Port dead", Description: "Port 12 no link",
	})
	require.NoError(t, err)
	assert.Equal(t, "head-office:it", issue.Location)
}

func TestSubmitIssueRejectsInactiveDistrict(t *testing.T) {
	fx := newFixture(t)
	actor := domain.Actor{UserID: "sub-1", Role: domain.RoleSubmitter, DistrictID: "district-x"}

	_, err := fx.svc.SubmitIssue(context.Background(), actor, "Nimal", service.IssueCreateInput{
		DeviceID: "d", ComplaintType: "c", Description: "x",
	})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func seedIssue(fx *fixture, status domain.IssueStatus) *domain.Issue {
	issue := &domain.Issue{
		ID:          "issue-1",
		DeviceID:    "printer-42",
		Location:    "district-7",
		Status:      status,
		SubmittedBy: "sub-1",
		SubmittedAt: time.Now(),
		AuditTrail:  domain.AuditTrail{}.Append(time.Now(), "Nimal", "Issue submitted"),
	}
	fx.issues.issues[issue.ID] = issue
	return issue
}

func TestApplyTransitionPersistsAndPublishes(t *testing.T) {
	fx := newFixture(t)
	seedIssue(fx, domain.StatusPending)
	actor := domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover, DistrictID: "district-7"}

	next, err := fx.svc.ApplyTransition(context.Background(), actor, "issue-1", workflow.TransitionRequest{
		Intent: workflow.IntentApproveDistrict, ActorLabel: "DC Kandy",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDCApproved, next.Status)

	stored, err := fx.issues.GetByID(context.Background(), "issue-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDCApproved, stored.Status)
	require.Len(t, fx.dispatcher.published, 1)
	assert.Equal(t, events.EventIssueStatusChanged, fx.dispatcher.published[0].Type)
}

func TestApplyTransitionValidatesAssignee(t *testing.T) {
	fx := newFixture(t)
	seedIssue(fx, domain.StatusSuperAdminApproved)
	actor := domain.Actor{UserID: "sa-1", Role: domain.RoleSuperApprover}

	_, err := fx.svc.ApplyTransition(context.Background(), actor, "issue-1", workflow.TransitionRequest{
		Intent: workflow.IntentAssign, AssigneeID: "sub-1",
	})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err), "assignee must hold the technician role")

	next, err := fx.svc.ApplyTransition(context.Background(), actor, "issue-1", workflow.TransitionRequest{
		Intent: workflow.IntentAssign, AssigneeID: "tech-1",
	})
	require.NoError(t, err)
	require.NotNil(t, next.AssignedTo)
	assert.Equal(t, "tech-1", *next.AssignedTo)
	assert.Contains(t, next.AuditTrail[len(next.AuditTrail)-1].Text, "Kasun")
}

func TestApplyTransitionLostRaceSameTarget(t *testing.T) {
	fx := newFixture(t)
	seedIssue(fx, domain.StatusPending)
	// A concurrent writer lands the same approval first.
	fx.issues.raceArmed = true
	fx.issues.raceTo = domain.StatusDCApproved

	actor := domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover, DistrictID: "district-7"}
	_, err := fx.svc.ApplyTransition(context.Background(), actor, "issue-1", workflow.TransitionRequest{
		Intent: workflow.IntentApproveDistrict,
	})
	assert.Equal(t, "NO_CHANGE", domainCode(t, err))
}

func TestApplyTransitionLostRaceDifferentTarget(t *testing.T) {
	fx := newFixture(t)
	seedIssue(fx, domain.StatusPending)
	// A concurrent rejection wins the race.
	fx.issues.raceArmed = true
	fx.issues.raceTo = domain.StatusDCRejected

	actor := domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover, DistrictID: "district-7"}
	_, err := fx.svc.ApplyTransition(context.Background(), actor, "issue-1", workflow.TransitionRequest{
		Intent: workflow.IntentApproveDistrict,
	})
	assert.Equal(t, "ILLEGAL_TRANSITION", domainCode(t, err))
}

func TestApplyTransitionOutsideJurisdiction(t *testing.T) {
	fx := newFixture(t)
	seedIssue(fx, domain.StatusPending)
	actor := domain.Actor{UserID: "dc-9", Role: domain.RoleDistrictApprover, DistrictID: "district-9"}

	_, err := fx.svc.ApplyTransition(context.Background(), actor, "issue-1", workflow.TransitionRequest{
		Intent: workflow.IntentApproveDistrict,
	})
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestListIssuesScopesFilter(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.ListIssues(context.Background(),
		domain.Actor{UserID: "sub-1", Role: domain.RoleSubmitter},
		service.IssueListInput{DistrictHint: "district-9"})
	require.NoError(t, err)
	require.NotNil(t, fx.issues.lastFilter.SubmittedBy)
	assert.Equal(t, "sub-1", *fx.issues.lastFilter.SubmittedBy)
	assert.Nil(t, fx.issues.lastFilter.District, "hints never widen a scoped actor")

	_, err = fx.svc.ListIssues(context.Background(),
		domain.Actor{UserID: "root-1", Role: domain.RoleRoot},
		service.IssueListInput{DistrictHint: "district-9"})
	require.NoError(t, err)
	require.NotNil(t, fx.issues.lastFilter.District)
	assert.Equal(t, "district-9", *fx.issues.lastFilter.District)

	_, err = fx.svc.ListIssues(context.Background(),
		domain.Actor{UserID: "ghost", Role: "AUDITOR"}, service.IssueListInput{})
	assert.Equal(t, "UNKNOWN_ROLE", domainCode(t, err))
}

func TestListIssuesEmptyJurisdictionFailsClosed(t *testing.T) {
	fx := newFixture(t)
	seedIssue(fx, domain.StatusPending)

	for _, actor := range []domain.Actor{
		{UserID: "ca-9", Role: domain.RoleCentralApprover},
		{UserID: "tech-9", Role: domain.RoleTechnician},
		{UserID: "dc-9", Role: domain.RoleDistrictApprover},
	} {
		issues, err := fx.svc.ListIssues(context.Background(), actor, service.IssueListInput{})
		require.NoError(t, err, "role %s", actor.Role)
		assert.Empty(t, issues, "role %s", actor.Role)
	}
	assert.Zero(t, fx.issues.listCalls, "empty-jurisdiction actors must never reach the repository")
}

func TestListIssuesBucketTranslation(t *testing.T) {
	fx := newFixture(t)
	tech := domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician, Branch: "it"}

	_, err := fx.svc.ListIssues(context.Background(), tech, service.IssueListInput{Bucket: service.BucketArchived})
	require.NoError(t, err)
	assert.Equal(t, []domain.IssueStatus{
		domain.StatusDCRejected,
		domain.StatusSuperAdminRejected,
		domain.StatusResolved,
		domain.StatusPendingReview,
		domain.StatusCompleted,
	}, fx.issues.lastFilter.Statuses, "awaiting-review work is archived for the technician")

	super := domain.Actor{UserID: "sa-1", Role: domain.RoleSuperApprover}
	_, err = fx.svc.ListIssues(context.Background(), super, service.IssueListInput{Bucket: service.BucketArchived})
	require.NoError(t, err)
	assert.Equal(t, []domain.IssueStatus{
		domain.StatusDCRejected,
		domain.StatusSuperAdminRejected,
		domain.StatusCompleted,
	}, fx.issues.lastFilter.Statuses, "awaiting-review work stays active for the reviewer")

	_, err = fx.svc.ListIssues(context.Background(), super, service.IssueListInput{
		Bucket:   service.BucketActive,
		Statuses: []domain.IssueStatus{domain.StatusCompleted},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.IssueStatus{domain.StatusCompleted}, fx.issues.lastFilter.Statuses,
		"explicit statuses win over the bucket")

	_, err = fx.svc.ListIssues(context.Background(), super, service.IssueListInput{Bucket: "recent"})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestDeleteIssueRules(t *testing.T) {
	fx := newFixture(t)
	seedIssue(fx, domain.StatusPending)

	err := fx.svc.DeleteIssue(context.Background(),
		domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover, DistrictID: "district-7"}, "issue-1")
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	err = fx.svc.DeleteIssue(context.Background(),
		domain.Actor{UserID: "sub-1", Role: domain.RoleSubmitter}, "issue-1")
	require.NoError(t, err)

	_, err = fx.issues.GetByID(context.Background(), "issue-1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestDeleteIssueRequiresPending(t *testing.T) {
	fx := newFixture(t)
	seedIssue(fx, domain.StatusAssigned)

	err := fx.svc.DeleteIssue(context.Background(),
		domain.Actor{UserID: "root-1", Role: domain.RoleRoot}, "issue-1")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestListTechniciansRoleGate(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.ListTechnicians(context.Background(),
		domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician})
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	technicians, err := fx.svc.ListTechnicians(context.Background(),
		domain.Actor{UserID: "sa-1", Role: domain.RoleSuperApprover})
	require.NoError(t, err)
	require.Len(t, technicians, 1)
	assert.Equal(t, "tech-1", technicians[0].ID)
}
