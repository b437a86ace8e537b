package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/alexanderramin/smeta/internal/store"
	"github.com/alexanderramin/smeta/internal/viewmodel"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// plansLoadedMsg carries the plan list snapshot.
type plansLoadedMsg struct {
	snap store.Snapshot[[]domain.Plan]
	err  error
}

func (plansLoadedMsg) data() {}

// dashboardView lists the user's plans by status tab.
type dashboardView struct {
	state *SharedState

	plans    []domain.Plan
	revision uint64
	memo     viewmodel.Dashboard
	tab      viewmodel.DashboardTab
	cursor   int

	search    textinput.Model
	searching bool

	loading bool
	spinner spinner.Model
	err     error
}

func newDashboardView(state *SharedState) *dashboardView {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = state.App.T("search_plans_placeholder")
	ti.CharLimit = 100

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = formatter.StylePurple

	return &dashboardView{
		state:   state,
		search:  ti,
		loading: true,
		spinner: sp,
	}
}

func (v *dashboardView) ID() ViewID          { return ViewDashboard }
func (v *dashboardView) Title() string       { return v.state.App.T("my_procurement_plans") }
func (v *dashboardView) CapturesInput() bool { return v.searching }

func (v *dashboardView) ShortHelp() []key.Binding {
	app := v.state.App
	if v.searching {
		return []key.Binding{
			hint("enter", app.T("confirm")),
			hint("esc", app.T("cancel")),
		}
	}
	return []key.Binding{
		hint("enter", app.T("open")),
		hint("←/→", app.T("hint_tab")),
		hint("/", app.T("search")),
		hint("n", app.T("hint_new")),
		hint("d", app.T("delete")),
		hint("r", app.T("hint_refresh")),
	}
}

func (v *dashboardView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load())
}

func (v *dashboardView) load() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		snap, err := app.Plans.List(context.Background())
		return plansLoadedMsg{snap: snap, err: err}
	}
}

func (v *dashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case plansLoadedMsg:
		if errors.Is(msg.err, store.ErrStale) {
			return v, v.load()
		}
		if msg.err == nil && msg.snap.Revision < v.revision {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		if msg.err == nil {
			v.plans = msg.snap.Value
			v.revision = msg.snap.Revision
			v.clampCursor()
		}
		return v, nil

	case refreshViewMsg:
		return v, v.load()

	case spinner.TickMsg:
		if !v.loading {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		if v.searching {
			return v.updateSearch(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *dashboardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := v.state.App
	visible := v.visible()

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(visible)-1 {
			v.cursor++
		}
	case "left", "h", "shift+tab":
		v.tab = v.shiftTab(-1)
		v.cursor = 0
	case "right", "l", "tab":
		v.tab = v.shiftTab(1)
		v.cursor = 0
	case "/":
		v.searching = true
		v.search.CursorEnd()
		return v, v.search.Focus()
	case "r":
		return v, v.load()
	case "n":
		return v, v.startCreate()
	case "enter":
		if p, ok := v.selected(); ok {
			return v, pushView(newPlanView(v.state, p.ID))
		}
	case "d":
		p, ok := v.selected()
		if !ok {
			return v, nil
		}
		if !p.CanDelete() {
			return v, outputCmd(formatter.Failure(app.T("error_deleting_plan")))
		}
		id := p.ID
		return v, confirmThen(v.state, app.T("delete_plan_tooltip"), app.T("confirm_delete_plan"), func() tea.Cmd {
			return runAction(app, func(ctx context.Context) (string, error) {
				if err := app.Plans.Delete(ctx, id); err != nil {
					return "", err
				}
				return app.T("plan_deleted", i18n.Vars{"id": id}), nil
			})
		})
	}
	return v, nil
}

func (v *dashboardView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.searching = false
		v.search.Reset()
		v.search.Blur()
		v.cursor = 0
		return v, nil
	case tea.KeyEnter:
		v.searching = false
		v.search.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	v.cursor = 0
	return v, cmd
}

func (v *dashboardView) startCreate() tea.Cmd {
	app := v.state.App
	name, year := new(string), new(string)
	form := wizardCreatePlan(app, name, year)
	return startWizardCmd(v.state, app.T("create_plan"), form, func() tea.Cmd {
		y, _ := parseYear(*year)
		payload := domain.PlanPayload{Name: strings.TrimSpace(*name), Year: y}
		return func() tea.Msg {
			p, err := app.Plans.Create(context.Background(), payload)
			if err != nil {
				return cmdOutputMsg{output: formatter.Failure(app.T("error_creating_plan") + " " + userMessage(app, err))}
			}
			return navigateMsg{path: fmt.Sprintf("/plans/%d", p.ID)}
		}
	})
}

func (v *dashboardView) shiftTab(delta int) viewmodel.DashboardTab {
	n := len(viewmodel.DashboardTabs)
	return viewmodel.DashboardTabs[(int(v.tab)+delta+n)%n]
}

func (v *dashboardView) visible() []domain.Plan {
	return v.memo.Plans(v.plans, v.revision, v.tab, v.search.Value())
}

func (v *dashboardView) selected() (*domain.Plan, bool) {
	visible := v.visible()
	if v.cursor < 0 || v.cursor >= len(visible) {
		return nil, false
	}
	return &visible[v.cursor], true
}

func (v *dashboardView) clampCursor() {
	if n := len(v.visible()); v.cursor >= n {
		v.cursor = max(n-1, 0)
	}
}

func (v *dashboardView) View() string {
	app := v.state.App
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(formatter.Header(app.T("dashboard_title")))
	b.WriteString("\n")

	tabs := make([]string, len(viewmodel.DashboardTabs))
	for i, t := range viewmodel.DashboardTabs {
		label := app.T(t.TranslationKey())
		if t == v.tab {
			tabs[i] = formatter.StyleHeader.Render("[" + label + "]")
		} else {
			tabs[i] = formatter.Dim(" " + label + " ")
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n")

	if v.searching || v.search.Value() != "" {
		b.WriteString(v.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.loading:
		b.WriteString("  " + v.spinner.View() + " " + formatter.Dim(app.T("loading")) + "\n")
	case v.err != nil:
		b.WriteString(formatter.Failure(app.T("error_loading_plans")+" "+userMessage(app, v.err)) + "\n")
	default:
		b.WriteString(formatter.FormatPlanList(app, v.visible(), v.cursor))
	}
	return b.String()
}
