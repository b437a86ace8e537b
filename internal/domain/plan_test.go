package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planWith(versions ...Version) *Plan {
	return &Plan{ID: 1, Name: "Plan1", Year: 2025, Versions: versions}
}

func TestPlanStatus_Transitions(t *testing.T) {
	assert.True(t, StatusDraft.CanTransitionTo(StatusPreApproved))
	assert.True(t, StatusPreApproved.CanTransitionTo(StatusApproved))
	assert.True(t, StatusApproved.CanTransitionTo(StatusApproved), "same status is a no-op")

	assert.False(t, StatusDraft.CanTransitionTo(StatusApproved), "cannot skip pre-approval")
	assert.False(t, StatusApproved.CanTransitionTo(StatusDraft))
	assert.False(t, StatusPreApproved.CanTransitionTo(StatusDraft))

	_, ok := StatusApproved.Next()
	assert.False(t, ok)
}

func TestParsePlanStatus(t *testing.T) {
	s, err := ParsePlanStatus("pre_approved")
	require.NoError(t, err)
	assert.Equal(t, StatusPreApproved, s)

	_, err = ParsePlanStatus("EXECUTED")
	assert.Error(t, err)
}

func TestPlan_ActiveAndLatest(t *testing.T) {
	p := planWith(
		Version{ID: 10, Number: 1, Status: StatusApproved},
		Version{ID: 11, Number: 2, Status: StatusDraft, IsActive: true},
	)

	active, ok := p.ActiveVersion()
	require.True(t, ok)
	assert.Equal(t, int64(11), active.ID)

	latest, ok := p.LatestVersion()
	require.True(t, ok)
	assert.Equal(t, 2, latest.Number)

	sorted := p.SortedVersions()
	assert.Equal(t, 2, sorted[0].Number)
	assert.Equal(t, 1, p.Versions[0].Number, "sorting must not reorder the plan")
}

func TestPlan_CanDelete(t *testing.T) {
	assert.True(t, planWith(Version{Number: 1, Status: StatusDraft, IsActive: true}).CanDelete())
	assert.False(t, planWith(
		Version{Number: 1, Status: StatusApproved},
		Version{Number: 2, Status: StatusDraft, IsActive: true},
	).CanDelete())
}

func TestPlan_CanDeleteLatestVersion(t *testing.T) {
	assert.False(t, planWith(Version{Number: 1, Status: StatusDraft, IsActive: true}).CanDeleteLatestVersion(),
		"first version is never removable")
	assert.True(t, planWith(
		Version{Number: 1, Status: StatusApproved},
		Version{Number: 2, Status: StatusDraft, IsActive: true},
	).CanDeleteLatestVersion())
	assert.False(t, planWith(
		Version{Number: 1, Status: StatusApproved},
		Version{Number: 2, Status: StatusPreApproved, IsActive: true},
	).CanDeleteLatestVersion())
}

func TestPlan_CanCreateVersion(t *testing.T) {
	assert.False(t, planWith(Version{Number: 1, Status: StatusDraft, IsActive: true}).CanCreateVersion())
	assert.True(t, planWith(Version{Number: 1, Status: StatusPreApproved, IsActive: true}).CanCreateVersion())
	assert.False(t, planWith().CanCreateVersion())
}

func TestPlan_DisplayStatus_ExecutedOverlay(t *testing.T) {
	p := planWith(Version{Number: 1, Status: StatusApproved, IsActive: true, IsExecuted: true})
	assert.Equal(t, StatusExecuted, p.DisplayStatus())

	p.Versions[0].IsExecuted = false
	assert.Equal(t, StatusApproved, p.DisplayStatus())
}

func TestVersion_Editable(t *testing.T) {
	assert.True(t, (&Version{IsActive: true, Status: StatusDraft}).Editable())
	assert.False(t, (&Version{IsActive: false, Status: StatusDraft}).Editable())
	assert.False(t, (&Version{IsActive: true, Status: StatusApproved}).Editable())
}

func TestVersion_LiveItemCount(t *testing.T) {
	v := Version{Items: []Item{{ID: 1}, {ID: 2, IsDeleted: true}, {ID: 3}}}
	assert.Equal(t, 2, v.LiveItemCount())
}
