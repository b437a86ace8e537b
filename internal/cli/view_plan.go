package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/alexanderramin/smeta/internal/store"
	"github.com/alexanderramin/smeta/internal/viewmodel"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// pageSizes are the choices cycled with + and -.
var pageSizes = []int{5, 10, 20, 50}

// planLoadedMsg carries one plan snapshot.
type planLoadedMsg struct {
	planID int64
	snap   store.Snapshot[domain.Plan]
	err    error
}

func (planLoadedMsg) data() {}

// planView shows a plan version: its stats, the item table and the
// version history, with the item and version actions the version allows.
type planView struct {
	state  *SharedState
	planID int64

	plan     domain.Plan
	revision uint64
	loaded   bool
	loading  bool
	spinner  spinner.Model
	err      error

	// shown is the displayed version number; 0 follows the active version.
	shown int

	table  viewmodel.ItemTable
	tstate viewmodel.TableState
	pager  paginator.Model
	cursor int

	query    textinput.Model
	querying bool
}

func newPlanView(state *SharedState, planID int64) *planView {
	size := state.App.Config.UI.PageSize
	if size <= 0 {
		size = 10
	}

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.ActiveDot = formatter.StyleHeader.Render("•")
	pg.InactiveDot = formatter.Dim("•")
	pg.PerPage = size

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = state.App.T("filter_placeholder")
	ti.CharLimit = 100

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = formatter.StylePurple

	return &planView{
		state:   state,
		planID:  planID,
		loading: true,
		spinner: sp,
		tstate:  viewmodel.NewTableState(size),
		pager:   pg,
		query:   ti,
	}
}

func (v *planView) ID() ViewID          { return ViewPlan }
func (v *planView) CapturesInput() bool { return v.querying }

func (v *planView) Title() string {
	if v.loaded {
		return formatter.Truncate(v.plan.Name, 30)
	}
	return v.state.App.T("plan_header", i18n.Vars{"id": v.planID, "year": "…"})
}

func (v *planView) ShortHelp() []key.Binding {
	app := v.state.App
	if v.querying {
		return []key.Binding{
			hint("enter", app.T("confirm")),
			hint("esc", app.T("cancel")),
		}
	}
	hints := []key.Binding{hint("←/→", app.T("hint_page")), hint("/", app.T("hint_filter"))}
	ver, ok := v.version()
	if !ok {
		return hints
	}
	if ver.Editable() {
		hints = append(hints, hint("n", app.T("hint_new")), hint("e", app.T("hint_edit")), hint("d", app.T("delete")))
	}
	if ver.Status == domain.StatusApproved {
		hints = append(hints, hint("x", app.T("hint_report")))
	}
	if _, ok := ver.Status.Next(); ok && ver.IsActive {
		hints = append(hints, hint("s", app.T("hint_status")))
	}
	return append(hints, hint("X", app.T("hint_export")))
}

func (v *planView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load())
}

func (v *planView) load() tea.Cmd {
	app, id := v.state.App, v.planID
	return func() tea.Msg {
		snap, err := app.Plans.Get(context.Background(), id)
		return planLoadedMsg{planID: id, snap: snap, err: err}
	}
}

func (v *planView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case planLoadedMsg:
		if msg.planID != v.planID {
			return v, nil
		}
		if errors.Is(msg.err, store.ErrStale) {
			return v, v.load()
		}
		if msg.err == nil && msg.snap.Revision < v.revision {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		if msg.err == nil {
			v.plan = msg.snap.Value
			v.revision = msg.snap.Revision
			v.loaded = true
			if _, ok := v.version(); !ok {
				v.shown = 0
			}
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
		if v.querying {
			return v.updateQuery(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *planView) updateQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.querying = false
		v.query.Reset()
		v.query.Blur()
		v.tstate = v.tstate.WithQuery("")
		v.cursor = 0
		return v, nil
	case tea.KeyEnter:
		v.querying = false
		v.query.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.query, cmd = v.query.Update(msg)
	v.tstate = v.tstate.WithQuery(v.query.Value())
	v.cursor = 0
	return v, cmd
}

func (v *planView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !v.loaded {
		return v, nil
	}
	app := v.state.App

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < v.page().ItemCount()-1 {
			v.cursor++
		}
	case "left", "h":
		v.tstate = v.tstate.WithPage(v.page().Page - 1)
		v.cursor = 0
	case "right", "l":
		if p := v.page(); p.Page < p.TotalPages-1 {
			v.tstate = v.tstate.WithPage(p.Page + 1)
			v.cursor = 0
		}
	case "+":
		v.tstate = v.tstate.WithPageSize(stepPageSize(v.tstate.PageSize, 1))
		v.cursor = 0
	case "-":
		v.tstate = v.tstate.WithPageSize(stepPageSize(v.tstate.PageSize, -1))
		v.cursor = 0
	case "/":
		v.querying = true
		v.query.CursorEnd()
		return v, v.query.Focus()
	case "t":
		v.tstate = v.tstate.ToggleKtpOnly()
		v.cursor = 0
	case "1", "2", "3":
		n := domain.AllNeedTypes[msg.String()[0]-'1']
		v.tstate = v.tstate.ToggleNeedType(n)
		v.cursor = 0
	case "[":
		v.shiftVersion(-1)
	case "]":
		v.shiftVersion(1)

	case "n":
		if ver, ok := v.version(); ok && ver.Editable() {
			return v, pushView(newItemFormView(v.state, v.planID, 0))
		}
	case "e":
		if it, acts, ok := v.selected(); ok && acts.Edit {
			return v, pushView(newItemFormView(v.state, v.planID, it.ID))
		}
	case "x":
		if it, acts, ok := v.selected(); ok && acts.Execution {
			return v, pushView(newExecutionsView(v.state, v.planID, it.ID))
		}
	case "enter":
		it, acts, ok := v.selected()
		switch {
		case ok && acts.Edit:
			return v, pushView(newItemFormView(v.state, v.planID, it.ID))
		case ok && acts.Execution:
			return v, pushView(newExecutionsView(v.state, v.planID, it.ID))
		}
	case "d":
		it, acts, ok := v.selected()
		if !ok || !acts.Delete {
			return v, nil
		}
		planID, id := v.planID, it.ID
		return v, confirmThen(v.state, app.T("delete_item"), app.T("confirm_delete_item"), func() tea.Cmd {
			return runAction(app, func(ctx context.Context) (string, error) {
				if err := app.Items.Delete(ctx, planID, id); err != nil {
					return "", err
				}
				return app.T("item_deleted"), nil
			})
		})
	case "r":
		it, acts, ok := v.selected()
		if !ok || !acts.Revert {
			return v, nil
		}
		planID, id := v.planID, it.ID
		return v, confirmThen(v.state, app.T("revert_item"), app.T("confirm_revert_item"), func() tea.Cmd {
			return runAction(app, func(ctx context.Context) (string, error) {
				reverted, err := app.Items.Revert(ctx, planID, id)
				if err != nil {
					return "", err
				}
				return app.T("item_reverted", i18n.Vars{"number": reverted.DisplayNumber()}), nil
			})
		})
	case "s":
		return v, v.advanceStatus()
	case "c":
		if !v.plan.CanCreateVersion() {
			return v, nil
		}
		planID := v.planID
		return v, confirmThen(v.state, app.T("create_new_version"), app.T("confirm_create_version"), func() tea.Cmd {
			return runAction(app, func(ctx context.Context) (string, error) {
				nv, err := app.Plans.CreateVersion(ctx, planID)
				if err != nil {
					return "", err
				}
				return app.T("version_created", i18n.Vars{"number": nv.Number}), nil
			})
		})
	case "D":
		if !v.plan.CanDeleteLatestVersion() {
			return v, nil
		}
		planID := v.planID
		return v, confirmThen(v.state, app.T("delete_draft_version_tooltip"), app.T("confirm_delete_version"), func() tea.Cmd {
			return runAction(app, func(ctx context.Context) (string, error) {
				if err := app.Plans.DeleteLatestVersion(ctx, planID); err != nil {
					return "", err
				}
				return app.T("version_deleted"), nil
			})
		})
	case "X":
		ver, ok := v.version()
		if !ok {
			return v, nil
		}
		planID, dir := v.planID, app.Config.UI.ExportDir
		return v, runAction(app, func(ctx context.Context) (string, error) {
			sum, err := app.Plans.Export(ctx, planID, ver, dir)
			if err != nil {
				return "", err
			}
			return app.T("export_saved", i18n.Vars{"path": sum.Path, "rows": sum.Rows}), nil
		})
	case "i":
		if ver, ok := v.version(); ok && ver.Editable() {
			return v, v.startImport()
		}
	case "T":
		dir := app.Config.UI.ExportDir
		return v, runAction(app, func(ctx context.Context) (string, error) {
			sum, err := app.Items.Template(ctx, dir)
			if err != nil {
				return "", err
			}
			return app.T("import_template_saved", i18n.Vars{"path": sum.Path}), nil
		})
	}
	return v, nil
}

// advanceStatus moves the active version one step along the lifecycle.
func (v *planView) advanceStatus() tea.Cmd {
	app := v.state.App
	ver, ok := v.plan.ActiveVersion()
	if !ok {
		return nil
	}
	to, ok := ver.Status.Next()
	if !ok {
		return outputCmd(formatter.Failure(app.T("transition_not_allowed", i18n.Vars{"from": app.T("status_" + string(ver.Status))})))
	}
	planID, current := v.planID, *ver
	title := app.T("confirm_status_change_title")
	body := app.T("confirm_status_change_body") + "\n" + app.T("status_"+string(ver.Status)) + " → " + app.T("status_"+string(to))
	return confirmThen(v.state, title, body, func() tea.Cmd {
		return runAction(app, func(ctx context.Context) (string, error) {
			updated, err := app.Plans.AdvanceStatus(ctx, planID, &current, to)
			if err != nil {
				return "", err
			}
			return app.T("status_changed", i18n.Vars{"number": updated.Number, "status": app.T("status_" + string(updated.Status))}), nil
		})
	})
}

func (v *planView) startImport() tea.Cmd {
	app := v.state.App
	path := new(string)
	form := wizardInputText(app.T("import_file"), "items.xlsx", errors.New(app.T("error_fill_required_fields")), path)
	planID, dir := v.planID, app.Config.UI.ExportDir
	return startWizardCmd(v.state, app.T("import_items"), form, func() tea.Cmd {
		file := strings.TrimSpace(*path)
		return func() tea.Msg {
			res, err := app.Items.Import(context.Background(), planID, file, dir)
			if err != nil {
				return cmdOutputMsg{output: formatter.Failure(userMessage(app, err))}
			}
			if res.Failed() {
				return cmdOutputMsg{output: formatter.FormatImportResult(app, res)}
			}
			return actionDoneMsg{output: formatter.FormatImportResult(app, res)}
		}
	})
}

// version returns the displayed version: the one picked with [ and ], or
// the active one.
func (v *planView) version() (*domain.Version, bool) {
	if v.shown == 0 {
		return v.plan.ActiveVersion()
	}
	for i := range v.plan.Versions {
		if v.plan.Versions[i].Number == v.shown {
			return &v.plan.Versions[i], true
		}
	}
	return nil, false
}

// shiftVersion steps through the version history. Landing on the active
// version returns to following it.
func (v *planView) shiftVersion(delta int) {
	cur, ok := v.version()
	if !ok {
		return
	}
	sorted := v.plan.SortedVersions()
	for i := range sorted {
		if sorted[i].Number != cur.Number {
			continue
		}
		// sorted is newest first, so older is further down.
		j := i - delta
		if j < 0 || j >= len(sorted) {
			return
		}
		v.shown = sorted[j].Number
		if sorted[j].IsActive {
			v.shown = 0
		}
		// The memo is keyed by revision only; another version needs a fresh one.
		v.table = viewmodel.ItemTable{}
		v.tstate = v.tstate.WithPage(0)
		v.cursor = 0
		return
	}
}

func (v *planView) items() []domain.Item {
	if ver, ok := v.version(); ok {
		return ver.Items
	}
	return nil
}

func (v *planView) page() viewmodel.TablePage {
	return v.table.Page(v.items(), v.revision, v.tstate)
}

func (v *planView) selected() (*domain.Item, domain.ItemActions, bool) {
	ver, ok := v.version()
	if !ok {
		return nil, domain.ItemActions{}, false
	}
	n := 0
	for _, row := range v.page().Rows {
		if row.Header {
			continue
		}
		if n == v.cursor {
			return row.Item, row.Item.Actions(ver), true
		}
		n++
	}
	return nil, domain.ItemActions{}, false
}

func (v *planView) clampCursor() {
	if n := v.page().ItemCount(); v.cursor >= n {
		v.cursor = max(n-1, 0)
	}
}

func stepPageSize(current, dir int) int {
	for i, s := range pageSizes {
		if s == current {
			j := min(max(i+dir, 0), len(pageSizes)-1)
			return pageSizes[j]
		}
	}
	return pageSizes[1]
}

func (v *planView) View() string {
	app := v.state.App
	if v.loading && !v.loaded {
		return "\n  " + v.spinner.View() + " " + formatter.Dim(app.T("loading"))
	}
	if v.err != nil && !v.loaded {
		return "\n" + formatter.Failure(app.T("error_loading_plan")+" "+userMessage(app, v.err))
	}

	ver, ok := v.version()
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(formatter.FormatPlanHeader(app, &v.plan, ver))
	if !ok {
		b.WriteString("\n" + formatter.Dim(app.T("no_active_version")) + "\n")
		return b.String()
	}
	b.WriteString(formatter.FormatVersionStats(app, viewmodel.VersionMetrics(ver)))
	if !ver.Editable() && ver.IsActive {
		b.WriteString(formatter.StyleYellow.Render(app.T("form_locked_warning")) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(v.filterLine())
	if v.querying || v.query.Value() != "" {
		b.WriteString(v.query.View() + "\n")
	}

	page := v.page()
	var cursor int64
	if it, _, ok := v.selected(); ok {
		cursor = it.ID
	}
	b.WriteString(formatter.FormatItemTable(app, page, formatter.ItemTableOptions{
		Cursor:   cursor,
		Executed: ver.Status == domain.StatusApproved,
	}))

	v.pager.PerPage = page.PageSize
	v.pager.TotalPages = max(page.TotalPages, 1)
	v.pager.Page = page.Page
	b.WriteString(v.pager.View() + "  " + formatter.FormatPageFooter(app, page) + "\n\n")

	b.WriteString(formatter.Bold(app.T("versions_history")) + "\n")
	b.WriteString(formatter.FormatVersions(app, &v.plan, ver.ID))
	return b.String()
}

// filterLine shows the KTP and need type toggles.
func (v *planView) filterLine() string {
	app := v.state.App
	f := v.tstate.Filter
	box := func(on bool) string {
		if on {
			return formatter.StyleGreen.Render("[x]")
		}
		return formatter.Dim("[ ]")
	}
	parts := []string{formatter.Dim("t") + " " + box(f.KtpOnly) + " " + app.T("ktp_only")}
	for i, n := range domain.AllNeedTypes {
		parts = append(parts, formatter.Dim(string(rune('1'+i)))+" "+box(f.NeedTypes.Has(n))+" "+app.T(n.TranslationKey()))
	}
	return strings.Join(parts, "   ") + "\n"
}
