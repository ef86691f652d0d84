package workflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
	"github.com/OliveaSegaram/EC-sub001/internal/workflow"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func pendingIssue() *domain.Issue {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Issue{
		ID:          "issue-1",
		DeviceID:    "printer-42",
		Location:    "district-7",
		Status:      domain.StatusPending,
		SubmittedBy: "user-sub",
		SubmittedAt: now,
		AuditTrail:  domain.AuditTrail{}.Append(now, "Nimal", "Issue submitted"),
	}
}

func TestApplyLegality(t *testing.T) {
	engine := workflow.NewEngineAt(fixedClock(time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)))

	tests := []struct {
		name    string
		from    domain.IssueStatus
		actor   domain.Actor
		req     workflow.TransitionRequest
		want    domain.IssueStatus
		wantErr any
	}{
		{
			name:  "district approver approves pending",
			from:  domain.StatusPending,
			actor: domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover},
			req:   workflow.TransitionRequest{Intent: workflow.IntentApproveDistrict},
			want:  domain.StatusDCApproved,
		},
		{
			name:  "district approver rejects pending",
			from:  domain.StatusPending,
			actor: domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover},
			req:   workflow.TransitionRequest{Intent: workflow.IntentRejectDistrict},
			want:  domain.StatusDCRejected,
		},
		{
			name:  "central approver approves dc-approved",
			from:  domain.StatusDCApproved,
			actor: domain.Actor{UserID: "ca-1", Role: domain.RoleCentralApprover},
			req:   workflow.TransitionRequest{Intent: workflow.IntentApproveCentral},
			want:  domain.StatusSuperAdminApproved,
		},
		{
			name:  "super approver may act on the central step",
			from:  domain.StatusDCApproved,
			actor: domain.Actor{UserID: "sa-1", Role: domain.RoleSuperApprover},
			req:   workflow.TransitionRequest{Intent: workflow.IntentRejectCentral},
			want:  domain.StatusSuperAdminRejected,
		},
		{
			name:  "super approver assigns approved issue",
			from:  domain.StatusSuperAdminApproved,
			actor: domain.Actor{UserID: "sa-1", Role: domain.RoleSuperApprover},
			req:   workflow.TransitionRequest{Intent: workflow.IntentAssign, AssigneeID: "tech-1"},
			want:  domain.StatusAssigned,
		},
		{
			name:  "submitter reopens rejected issue",
			from:  domain.StatusDCRejected,
			actor: domain.Actor{UserID: "user-sub", Role: domain.RoleSubmitter},
			req:   workflow.TransitionRequest{Intent: workflow.IntentReopen},
			want:  domain.StatusReopened,
		},
		{
			name:    "submitter may not approve",
			from:    domain.StatusPending,
			actor:   domain.Actor{UserID: "user-sub", Role: domain.RoleSubmitter},
			req:     workflow.TransitionRequest{Intent: workflow.IntentApproveDistrict},
			wantErr: &workflow.ForbiddenError{},
		},
		{
			name:    "technician may not approve the central step",
			from:    domain.StatusDCApproved,
			actor:   domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician},
			req:     workflow.TransitionRequest{Intent: workflow.IntentApproveCentral},
			wantErr: &workflow.ForbiddenError{},
		},
		{
			name:    "cannot approve an already assigned issue",
			from:    domain.StatusAssigned,
			actor:   domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover},
			req:     workflow.TransitionRequest{Intent: workflow.IntentApproveDistrict},
			wantErr: &workflow.IllegalTransitionError{},
		},
		{
			name:    "cannot reopen a pending issue",
			from:    domain.StatusPending,
			actor:   domain.Actor{UserID: "user-sub", Role: domain.RoleSubmitter},
			req:     workflow.TransitionRequest{Intent: workflow.IntentReopen},
			wantErr: &workflow.IllegalTransitionError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := pendingIssue()
			issue.Status = tt.from

			next, err := engine.Apply(issue, tt.actor, tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				switch tt.wantErr.(type) {
				case *workflow.ForbiddenError:
					assert.ErrorAs(t, err, new(*workflow.ForbiddenError))
				case *workflow.IllegalTransitionError:
					assert.ErrorAs(t, err, new(*workflow.IllegalTransitionError))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, next.Status)
			assert.Equal(t, tt.from, issue.Status, "input snapshot must stay untouched")
			assert.Len(t, next.AuditTrail, len(issue.AuditTrail)+1, "exactly one trail entry per transition")
		})
	}
}

func TestApplyRepeatIsNoChange(t *testing.T) {
	engine := workflow.NewEngine()
	issue := pendingIssue()
	issue.Status = domain.StatusDCApproved

	_, err := engine.Apply(issue, domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover},
		workflow.TransitionRequest{Intent: workflow.IntentApproveDistrict})

	var noChange *workflow.NoChangeError
	require.ErrorAs(t, err, &noChange)
	assert.Equal(t, domain.StatusDCApproved, noChange.Status)
}

func TestApplyResolveLandsInPendingReview(t *testing.T) {
	at := time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC)
	engine := workflow.NewEngineAt(fixedClock(at))

	tech := "tech-1"
	issue := pendingIssue()
	issue.Status = domain.StatusInProgress
	issue.AssignedTo = &tech

	next, err := engine.Apply(issue, domain.Actor{UserID: tech, Role: domain.RoleTechnician},
		workflow.TransitionRequest{Intent: workflow.IntentResolve, ActorLabel: "Kasun"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingReview, next.Status)
	assert.Equal(t, domain.StatusResolved, next.LastRequestedStatus,
		"the literal request survives only in the shadow field")
	require.NotNil(t, next.ResolvedAt)
	assert.Equal(t, at, *next.ResolvedAt)
}

func TestApplyStartRequiresOwnAssignment(t *testing.T) {
	engine := workflow.NewEngine()

	other := "tech-2"
	issue := pendingIssue()
	issue.Status = domain.StatusAssigned
	issue.AssignedTo = &other

	_, err := engine.Apply(issue, domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician},
		workflow.TransitionRequest{Intent: workflow.IntentStart})

	var forbidden *workflow.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	issue.AssignedTo = nil
	_, err = engine.Apply(issue, domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician},
		workflow.TransitionRequest{Intent: workflow.IntentStart})
	require.ErrorAs(t, err, &forbidden)
}

func TestApplyAssignRequiresAssignee(t *testing.T) {
	engine := workflow.NewEngine()
	issue := pendingIssue()
	issue.Status = domain.StatusSuperAdminApproved

	_, err := engine.Apply(issue, domain.Actor{UserID: "sa-1", Role: domain.RoleSuperApprover},
		workflow.TransitionRequest{Intent: workflow.IntentAssign})
	assert.ErrorIs(t, err, workflow.ErrAssigneeRequired)
}

func TestApplyReopenClearsAssignment(t *testing.T) {
	engine := workflow.NewEngine()

	tech := "tech-1"
	issue := pendingIssue()
	issue.Status = domain.StatusCompleted
	issue.AssignedTo = &tech

	next, err := engine.Apply(issue, domain.Actor{UserID: "user-sub", Role: domain.RoleSubmitter},
		workflow.TransitionRequest{Intent: workflow.IntentReopen})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReopened, next.Status)
	assert.Nil(t, next.AssignedTo)
	assert.NotNil(t, next.ReopenedAt)
	assert.Equal(t, &tech, issue.AssignedTo, "input snapshot keeps its assignee")
}

// TestFullLifecycle drives one issue from submission to completion and back
// through a reopen, checking the trail grows by one entry per step.
func TestFullLifecycle(t *testing.T) {
	clock := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	engine := workflow.NewEngineAt(func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	})
	gate := workflow.NewReviewGateAt(func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	})

	dc := domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover, DistrictID: "district-7"}
	central := domain.Actor{UserID: "ca-1", Role: domain.RoleCentralApprover, Branch: "it"}
	super := domain.Actor{UserID: "sa-1", Role: domain.RoleSuperApprover}
	tech := domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician, Branch: "it"}
	submitter := domain.Actor{UserID: "user-sub", Role: domain.RoleSubmitter, DistrictID: "district-7"}

	issue := pendingIssue()
	trailLen := len(issue.AuditTrail)

	step := func(actor domain.Actor, req workflow.TransitionRequest, want domain.IssueStatus) {
		t.Helper()
		next, err := engine.Apply(issue, actor, req)
		require.NoError(t, err)
		require.Equal(t, want, next.Status)
		trailLen++
		require.Len(t, next.AuditTrail, trailLen)
		issue = next
	}

	step(dc, workflow.TransitionRequest{Intent: workflow.IntentApproveDistrict}, domain.StatusDCApproved)
	step(central, workflow.TransitionRequest{Intent: workflow.IntentApproveCentral}, domain.StatusSuperAdminApproved)
	step(super, workflow.TransitionRequest{Intent: workflow.IntentAssign, AssigneeID: "tech-1", AssigneeName: "Kasun"}, domain.StatusAssigned)
	step(tech, workflow.TransitionRequest{Intent: workflow.IntentStart}, domain.StatusInProgress)
	step(tech, workflow.TransitionRequest{Intent: workflow.IntentResolve}, domain.StatusPendingReview)

	reviewed, err := gate.Confirm(issue, super, workflow.ReviewRequest{Approved: true})
	require.NoError(t, err)
	trailLen++
	require.Equal(t, domain.StatusCompleted, reviewed.Status)
	require.Len(t, reviewed.AuditTrail, trailLen)
	require.NotNil(t, reviewed.CompletedAt)
	issue = reviewed

	step(submitter, workflow.TransitionRequest{Intent: workflow.IntentReopen}, domain.StatusReopened)
	assert.Nil(t, issue.AssignedTo)

	// Timestamps must be strictly increasing through the trail.
	for i := 1; i < len(issue.AuditTrail); i++ {
		assert.True(t, issue.AuditTrail[i].At.After(issue.AuditTrail[i-1].At))
	}
}
