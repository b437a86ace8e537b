package viewmodel

import (
	"testing"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planWith(id int64, name string, year int, status domain.PlanStatus, executed bool) domain.Plan {
	return domain.Plan{
		ID:   id,
		Name: name,
		Year: year,
		Versions: []domain.Version{
			{ID: id * 10, Number: 1, Status: status, IsActive: true, IsExecuted: executed},
		},
	}
}

func planIDs(plans []domain.Plan) []int64 {
	ids := make([]int64, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestFilterPlans_Tabs(t *testing.T) {
	plans := []domain.Plan{
		planWith(1, "Канцелярия", 2024, domain.StatusDraft, false),
		planWith(2, "Ремонт", 2025, domain.StatusPreApproved, false),
		planWith(3, "Связь", 2025, domain.StatusApproved, false),
		planWith(4, "Топливо", 2025, domain.StatusApproved, true),
		{ID: 5, Name: "Пустая", Year: 2025},
	}

	assert.Equal(t, []int64{5, 4, 3, 2, 1}, planIDs(FilterPlans(plans, TabAll, "")))
	assert.Equal(t, []int64{1}, planIDs(FilterPlans(plans, TabDraft, "")))
	assert.Equal(t, []int64{2}, planIDs(FilterPlans(plans, TabPreApproved, "")))
	assert.Equal(t, []int64{3}, planIDs(FilterPlans(plans, TabApproved, "")), "executed plans leave the approved tab")
	assert.Equal(t, []int64{4}, planIDs(FilterPlans(plans, TabExecuted, "")))
}

func TestFilterPlans_SearchByNameOrYear(t *testing.T) {
	plans := []domain.Plan{
		planWith(1, "Канцелярия", 2024, domain.StatusDraft, false),
		planWith(2, "Ремонт", 2025, domain.StatusDraft, false),
	}

	assert.Equal(t, []int64{1}, planIDs(FilterPlans(plans, TabAll, "КАНЦ")))
	assert.Equal(t, []int64{2}, planIDs(FilterPlans(plans, TabAll, "2025")))
	assert.Equal(t, []int64{2, 1}, planIDs(FilterPlans(plans, TabAll, "202")))
	assert.Empty(t, FilterPlans(plans, TabDraft, "нет"))
}

func TestParseTab(t *testing.T) {
	for _, tab := range DashboardTabs {
		got, err := ParseTab(tab.String())
		require.NoError(t, err)
		assert.Equal(t, tab, got)
	}
	_, err := ParseTab("archived")
	assert.Error(t, err)
}

func TestDashboard_Memoizes(t *testing.T) {
	var d Dashboard
	plans := []domain.Plan{planWith(1, "A", 2025, domain.StatusDraft, false)}

	d.Plans(plans, 1, TabAll, "")
	d.Plans(plans, 1, TabAll, "")
	assert.Equal(t, 1, d.memo.computes)
	d.Plans(plans, 1, TabDraft, "")
	assert.Equal(t, 2, d.memo.computes)
}
