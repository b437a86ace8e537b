package viewmodel

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
)

// DashboardTab selects which plans the dashboard lists.
type DashboardTab int

const (
	TabAll DashboardTab = iota
	TabDraft
	TabPreApproved
	TabApproved
	TabExecuted
)

// DashboardTabs lists tabs in display order.
var DashboardTabs = []DashboardTab{TabAll, TabDraft, TabPreApproved, TabApproved, TabExecuted}

func (t DashboardTab) TranslationKey() string {
	switch t {
	case TabDraft:
		return "tab_draft"
	case TabPreApproved:
		return "tab_pre_approved"
	case TabApproved:
		return "tab_approved"
	case TabExecuted:
		return "tab_executed"
	}
	return "tab_all"
}

func (t DashboardTab) String() string {
	switch t {
	case TabDraft:
		return "draft"
	case TabPreApproved:
		return "pre_approved"
	case TabApproved:
		return "approved"
	case TabExecuted:
		return "executed"
	}
	return "all"
}

// ParseTab accepts the tab names printed by String.
func ParseTab(s string) (DashboardTab, error) {
	for _, t := range DashboardTabs {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return TabAll, fmt.Errorf("unknown tab %q (use all, draft, pre_approved, approved or executed)", s)
}

// Includes reports whether p belongs on the tab. Plans without an active
// version appear only under All; executed plans appear only under Executed.
func (t DashboardTab) Includes(p *domain.Plan) bool {
	if t == TabAll {
		return true
	}
	v, ok := p.ActiveVersion()
	if !ok {
		return false
	}
	if t == TabExecuted {
		return v.IsExecuted
	}
	if v.IsExecuted {
		return false
	}
	switch t {
	case TabDraft:
		return v.Status == domain.StatusDraft
	case TabPreApproved:
		return v.Status == domain.StatusPreApproved
	case TabApproved:
		return v.Status == domain.StatusApproved
	}
	return true
}

// MatchPlan reports whether search is a case-insensitive substring of the
// plan name or its year.
func MatchPlan(p *domain.Plan, search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strconv.Itoa(p.Year), q)
}

// FilterPlans returns the plans shown for tab and search, newest first.
func FilterPlans(plans []domain.Plan, tab DashboardTab, search string) []domain.Plan {
	out := make([]domain.Plan, 0, len(plans))
	for i := range plans {
		if MatchPlan(&plans[i], search) && tab.Includes(&plans[i]) {
			out = append(out, plans[i])
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Plan) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

type dashboardKey struct {
	Tab      DashboardTab
	Search   string
	Revision uint64
}

// Dashboard memoizes FilterPlans per tab, search and plans revision.
type Dashboard struct {
	memo Memo[dashboardKey, []domain.Plan]
}

func (d *Dashboard) Plans(plans []domain.Plan, revision uint64, tab DashboardTab, search string) []domain.Plan {
	return d.memo.Get(dashboardKey{Tab: tab, Search: search, Revision: revision}, func() []domain.Plan {
		return FilterPlans(plans, tab, search)
	})
}
