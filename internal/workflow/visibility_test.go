package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
	"github.com/OliveaSegaram/EC-sub001/internal/workflow"
)

// testPopulation covers every location form: districts, the composite
// head-office tag, and the legacy bare tag with the branch in its own column.
func testPopulation() []domain.Issue {
	return []domain.Issue{
		{ID: "d7-own", Location: "district-7", SubmittedBy: "user-sub"},
		{ID: "d7-other", Location: "district-7", SubmittedBy: "someone-else"},
		{ID: "d9", Location: "district-9", SubmittedBy: "someone-else"},
		{ID: "ho-it", Location: "head-office:it", SubmittedBy: "someone-else"},
		{ID: "ho-it-legacy", Location: "head-office", Branch: "it", SubmittedBy: "someone-else"},
		{ID: "ho-fin", Location: "head-office:finance", SubmittedBy: "user-sub"},
	}
}

func visibleIDs(t *testing.T, actor domain.Actor) []string {
	t.Helper()
	visible, err := workflow.VisibleIssues(actor, testPopulation())
	require.NoError(t, err)
	ids := make([]string, 0, len(visible))
	for _, issue := range visible {
		ids = append(ids, issue.ID)
	}
	return ids
}

func TestVisibilityPartition(t *testing.T) {
	tests := []struct {
		name  string
		actor domain.Actor
		want  []string
	}{
		{
			name:  "submitter sees only own submissions",
			actor: domain.Actor{UserID: "user-sub", Role: domain.RoleSubmitter, DistrictID: "district-7"},
			want:  []string{"d7-own", "ho-fin"},
		},
		{
			name:  "district approver sees the whole district",
			actor: domain.Actor{UserID: "dc-1", Role: domain.RoleDistrictApprover, DistrictID: "district-7"},
			want:  []string{"d7-own", "d7-other"},
		},
		{
			name:  "central approver sees both branch location forms",
			actor: domain.Actor{UserID: "ca-1", Role: domain.RoleCentralApprover, Branch: "it"},
			want:  []string{"ho-it", "ho-it-legacy"},
		},
		{
			name:  "technician scope matches central approver scope",
			actor: domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician, Branch: "it"},
			want:  []string{"ho-it", "ho-it-legacy"},
		},
		{
			name:  "branch-scoped super approver is restricted",
			actor: domain.Actor{UserID: "sa-1", Role: domain.RoleSuperApprover, Branch: "finance"},
			want:  []string{"ho-fin"},
		},
		{
			name:  "unscoped super approver sees everything",
			actor: domain.Actor{UserID: "sa-2", Role: domain.RoleSuperApprover},
			want:  []string{"d7-own", "d7-other", "d9", "ho-it", "ho-it-legacy", "ho-fin"},
		},
		{
			name:  "root sees everything",
			actor: domain.Actor{UserID: "root-1", Role: domain.RoleRoot},
			want:  []string{"d7-own", "d7-other", "d9", "ho-it", "ho-it-legacy", "ho-fin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, visibleIDs(t, tt.actor))
		})
	}
}

func TestVisibilityUnknownRole(t *testing.T) {
	_, err := workflow.VisibleIssues(domain.Actor{UserID: "x", Role: "AUDITOR"}, testPopulation())
	var unknown *workflow.UnknownRoleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, domain.Role("AUDITOR"), unknown.Role)
}

func TestVisibilityEmptyMatchIsNotAnError(t *testing.T) {
	visible, err := workflow.VisibleIssues(
		domain.Actor{UserID: "ca-9", Role: domain.RoleCentralApprover, Branch: "legal"},
		testPopulation())
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestScopeForEmptyBranchResolvesNothing(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleCentralApprover, domain.RoleTechnician} {
		scope, err := workflow.ScopeFor(domain.Actor{UserID: "u-1", Role: role})
		require.NoError(t, err)
		assert.False(t, scope.Unrestricted, "role %s", role)
		assert.False(t, scope.Allows(&domain.Issue{Location: "head-office:it"}), "role %s", role)
		assert.False(t, scope.Allows(&domain.Issue{Location: "district-7"}), "role %s", role)
	}
}

func TestCanAccess(t *testing.T) {
	issue := &domain.Issue{ID: "ho-it-legacy", Location: "head-office", Branch: "it", SubmittedBy: "someone-else"}

	ok, err := workflow.CanAccess(domain.Actor{UserID: "tech-1", Role: domain.RoleTechnician, Branch: "it"}, issue)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = workflow.CanAccess(domain.Actor{UserID: "tech-2", Role: domain.RoleTechnician, Branch: "finance"}, issue)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = workflow.CanAccess(domain.Actor{UserID: "user-sub", Role: domain.RoleSubmitter}, issue)
	require.NoError(t, err)
	assert.False(t, ok)
}
