package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/store"
	"github.com/alexanderramin/smeta/internal/viewmodel"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// entryField is one input of the execution entry form.
type entryField struct {
	label string
	field viewmodel.Field
	get   func(*viewmodel.ExecutionEntry) *string
}

var entryFields = []entryField{
	{"supplier_name", viewmodel.ExecFieldSupplier, func(e *viewmodel.ExecutionEntry) *string { return &e.SupplierName }},
	{"supplier_bin", viewmodel.ExecFieldBIN, func(e *viewmodel.ExecutionEntry) *string { return &e.SupplierBIN }},
	{"residency_code", "residency_code", func(e *viewmodel.ExecutionEntry) *string { return &e.ResidencyCode }},
	{"origin_code", "origin_code", func(e *viewmodel.ExecutionEntry) *string { return &e.OriginCode }},
	{"contract_number", viewmodel.ExecFieldContractNumber, func(e *viewmodel.ExecutionEntry) *string { return &e.ContractNumber }},
	{"contract_date", viewmodel.ExecFieldContractDate, func(e *viewmodel.ExecutionEntry) *string { return &e.ContractDate }},
	{"contract_quantity", viewmodel.ExecFieldQuantity, func(e *viewmodel.ExecutionEntry) *string { return &e.Quantity }},
	{"contract_price", viewmodel.ExecFieldPrice, func(e *viewmodel.ExecutionEntry) *string { return &e.Price }},
	{"supply_volume_physical", viewmodel.ExecFieldSupplyPhysical, func(e *viewmodel.ExecutionEntry) *string { return &e.SupplyPhysical }},
	{"supply_volume_value", viewmodel.ExecFieldSupplyValue, func(e *viewmodel.ExecutionEntry) *string { return &e.SupplyValue }},
}

// executionsLoadedMsg carries an item and its recorded contracts.
type executionsLoadedMsg struct {
	itemID int64
	item   domain.Item
	snap   store.Snapshot[[]domain.Execution]
	err    error
}

func (executionsLoadedMsg) data() {}

// executionSavedMsg reports the result of adding a contract.
type executionSavedMsg struct {
	err error
}

// executionsView is the execution report of one approved item: progress
// against the plan, the recorded contracts and an inline entry form.
type executionsView struct {
	state  *SharedState
	planID int64
	itemID int64

	item     domain.Item
	execs    []domain.Execution
	revision uint64
	progress viewmodel.ProgressMemo
	loaded   bool
	spinner  spinner.Model
	err      error
	cursor   int

	entering   bool
	entry      viewmodel.ExecutionEntry
	inputs     []textinput.Model
	focus      int
	touched    map[viewmodel.Field]bool
	showErrors bool
	saving     bool
	saveErr    string
}

func newExecutionsView(state *SharedState, planID, itemID int64) *executionsView {
	inputs := make([]textinput.Model, len(entryFields))
	for i, f := range entryFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 200
		if f.field == viewmodel.ExecFieldContractDate {
			ti.Placeholder = "2025-01-31"
		}
		inputs[i] = ti
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = formatter.StylePurple

	return &executionsView{
		state:   state,
		planID:  planID,
		itemID:  itemID,
		inputs:  inputs,
		touched: make(map[viewmodel.Field]bool),
		spinner: sp,
	}
}

func (v *executionsView) ID() ViewID          { return ViewExecutions }
func (v *executionsView) Title() string       { return v.state.App.T("execution_report_title") }
func (v *executionsView) CapturesInput() bool { return v.entering }

func (v *executionsView) ShortHelp() []key.Binding {
	app := v.state.App
	if v.entering {
		return []key.Binding{
			hint("↑/↓", app.T("hint_field")),
			hint("ctrl+s", app.T("add_record")),
			hint("esc", app.T("cancel")),
		}
	}
	if !v.allowed() {
		return nil
	}
	return []key.Binding{
		hint("a", app.T("add_new_record")),
		hint("d", app.T("delete")),
	}
}

func (v *executionsView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load())
}

func (v *executionsView) load() tea.Cmd {
	app, id := v.state.App, v.itemID
	return func() tea.Msg {
		ctx := context.Background()
		it, err := app.Items.Get(ctx, id)
		if err != nil {
			return executionsLoadedMsg{itemID: id, err: err}
		}
		snap, err := app.Executions.List(ctx, id)
		return executionsLoadedMsg{itemID: id, item: it.Value, snap: snap, err: err}
	}
}

// allowed reports whether contracts may be recorded for the item.
func (v *executionsView) allowed() bool {
	return v.loaded && v.err == nil && v.item.Actions(v.item.Version).Execution
}

func (v *executionsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case executionsLoadedMsg:
		if msg.itemID != v.itemID {
			return v, nil
		}
		if errors.Is(msg.err, store.ErrStale) {
			return v, v.load()
		}
		if msg.err == nil && msg.snap.Revision < v.revision {
			return v, nil
		}
		v.loaded = true
		v.err = msg.err
		if msg.err == nil {
			v.item = msg.item
			v.execs = msg.snap.Value
			v.revision = msg.snap.Revision
			if v.cursor >= len(v.execs) {
				v.cursor = max(len(v.execs)-1, 0)
			}
		}
		return v, nil

	case refreshViewMsg:
		return v, v.load()

	case executionSavedMsg:
		v.saving = false
		if msg.err != nil {
			v.saveErr = userMessage(v.state.App, msg.err)
			return v, nil
		}
		v.resetEntry()
		out := formatter.Success(v.state.App.T("execution_saved"))
		return v, func() tea.Msg { return actionDoneMsg{output: out} }

	case spinner.TickMsg:
		if v.loaded && !v.saving {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		if v.entering {
			return v.updateEntry(msg)
		}
		return v.updateList(msg)
	}
	return v, nil
}

func (v *executionsView) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := v.state.App
	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.execs)-1 {
			v.cursor++
		}
	case "a":
		if !v.allowed() {
			return v, nil
		}
		v.entering = true
		v.focus = 0
		return v, v.focusInput()
	case "d":
		if !v.allowed() || v.cursor >= len(v.execs) {
			return v, nil
		}
		planID, itemID, id := v.planID, v.itemID, v.execs[v.cursor].ID
		return v, confirmThen(v.state, app.T("delete"), app.T("confirm_delete_item"), func() tea.Cmd {
			return runAction(app, func(ctx context.Context) (string, error) {
				if err := app.Executions.Delete(ctx, planID, itemID, id); err != nil {
					return "", err
				}
				return app.T("execution_deleted"), nil
			})
		})
	}
	return v, nil
}

func (v *executionsView) updateEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.saving {
		return v, nil
	}
	switch msg.String() {
	case "esc":
		v.entering = false
		v.saveErr = ""
		return v, nil
	case "ctrl+s":
		return v, v.submit()
	case "down", "tab", "enter":
		v.focus = min(v.focus+1, len(v.inputs)-1)
		return v, v.focusInput()
	case "up", "shift+tab":
		v.focus = max(v.focus-1, 0)
		return v, v.focusInput()
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	f := entryFields[v.focus]
	*f.get(&v.entry) = v.inputs[v.focus].Value()
	v.touched[f.field] = true
	if f.field == viewmodel.ExecFieldQuantity || f.field == viewmodel.ExecFieldPrice {
		v.touched[viewmodel.ExecFieldSum] = true
	}
	return v, cmd
}

func (v *executionsView) submit() tea.Cmd {
	check := viewmodel.ValidateExecution(v.entry, &v.item, v.execs)
	if !check.CanSubmit {
		v.showErrors = true
		v.saveErr = v.state.App.T("fill_required_fields")
		return nil
	}
	v.saving = true
	v.saveErr = ""
	app, planID, item, entry := v.state.App, v.planID, v.item, v.entry
	save := func() tea.Msg {
		_, err := app.Executions.Add(context.Background(), planID, &item, entry)
		return executionSavedMsg{err: err}
	}
	return tea.Batch(v.spinner.Tick, save)
}

func (v *executionsView) resetEntry() {
	v.entering = false
	v.entry = viewmodel.ExecutionEntry{}
	v.touched = make(map[viewmodel.Field]bool)
	v.showErrors = false
	v.saveErr = ""
	v.focus = 0
	for i := range v.inputs {
		v.inputs[i].Reset()
		v.inputs[i].Blur()
	}
}

func (v *executionsView) focusInput() tea.Cmd {
	var cmd tea.Cmd
	for i := range v.inputs {
		if i == v.focus {
			cmd = v.inputs[i].Focus()
		} else {
			v.inputs[i].Blur()
		}
	}
	return cmd
}

// visibleCheck hides the errors of untouched fields until a submit.
func (v *executionsView) visibleCheck() viewmodel.ExecutionCheck {
	check := viewmodel.ValidateExecution(v.entry, &v.item, v.execs)
	if v.showErrors {
		return check
	}
	shown := check.Errors[:0:0]
	for _, e := range check.Errors {
		if v.touched[e.Field] {
			shown = append(shown, e)
		}
	}
	check.Errors = shown
	return check
}

func (v *executionsView) View() string {
	app := v.state.App
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(formatter.Header(app.T("execution_report_title")))
	b.WriteString("\n")

	switch {
	case !v.loaded:
		b.WriteString("  " + v.spinner.View() + " " + formatter.Dim(app.T("loading")) + "\n")
		return b.String()
	case v.err != nil:
		b.WriteString(formatter.Failure(app.T("error_loading_executions")+" "+userMessage(app, v.err)) + "\n")
		return b.String()
	}

	b.WriteString(formatter.FormatItemSummary(app, &v.item))
	b.WriteString("\n")
	b.WriteString(formatter.FormatProgress(app, v.progress.Get(&v.item, v.execs, v.revision), 30))
	b.WriteString("\n")

	cursor := v.cursor
	if v.entering || !v.allowed() {
		cursor = formatter.NoCursor
	}
	b.WriteString(formatter.FormatExecutions(app, v.execs, cursor))

	if !v.allowed() {
		b.WriteString("\n" + formatter.Dim(app.T("execution_requires_approved")) + "\n")
		return b.String()
	}
	if !v.entering {
		return b.String()
	}

	lines := make([]formatter.EntryLine, len(entryFields))
	for i, f := range entryFields {
		lines[i] = formatter.EntryLine{Label: app.T(f.label), Field: f.field, Input: v.inputs[i].View()}
	}
	b.WriteString("\n")
	b.WriteString(formatter.FormatExecutionEntry(app, v.visibleCheck(), lines, v.focus))
	if v.saving {
		b.WriteString("  " + v.spinner.View() + " " + formatter.Dim(app.T("loading")) + "\n")
	}
	if v.saveErr != "" {
		b.WriteString(formatter.Failure(v.saveErr) + "\n")
	}
	return b.String()
}
