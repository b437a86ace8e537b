package cli

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/alexanderramin/smeta/internal/viewmodel"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// pickerKind selects the catalog a picker browses.
type pickerKind int

const (
	pickEnstru pickerKind = iota
	pickMkei
	pickAgsk
	pickKato
	pickCostItem
	pickFundingSource
)

// pickerOption is one selectable row.
type pickerOption struct {
	code  string
	label string
	badge string
	value any
}

// pickedMsg delivers a picker selection to the item form below it.
type pickedMsg struct {
	field viewmodel.Field
	value any
}

func (pickedMsg) data() {}

// pickerResultsMsg carries the options for query. seq fences results of
// superseded searches.
type pickerResultsMsg struct {
	seq     int
	options []pickerOption
	err     error
}

// searchDueMsg fires when the debounce interval for seq has passed.
type searchDueMsg struct {
	seq int
}

// pickerView is a searchable catalog list pushed above the item form.
// Region pickers browse the hierarchy level by level when no query is
// typed.
type pickerView struct {
	state *SharedState
	kind  pickerKind
	field viewmodel.Field
	title string

	input    textinput.Model
	options  []pickerOption
	cursor   int
	seq      int
	loading  bool
	spinner  spinner.Model
	err      error
	tooShort bool

	// path is the chain of regions above the listed level.
	path []domain.Kato
}

func newPickerView(state *SharedState, kind pickerKind, field viewmodel.Field, title string) *pickerView {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 100
	if kind == pickKato {
		ti.Placeholder = state.App.T("kato_search_placeholder")
	} else {
		ti.Placeholder = state.App.T("search")
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = formatter.StylePurple

	return &pickerView{
		state:   state,
		kind:    kind,
		field:   field,
		title:   title,
		input:   ti,
		spinner: sp,
	}
}

func (v *pickerView) ID() ViewID          { return ViewPicker }
func (v *pickerView) Title() string       { return v.title }
func (v *pickerView) CapturesInput() bool { return true }

func (v *pickerView) ShortHelp() []key.Binding {
	app := v.state.App
	hints := []key.Binding{
		hint("enter", app.T("select")),
		hint("↑/↓", app.T("hint_field")),
	}
	if v.kind == pickKato {
		hints = append(hints, hint("→", app.T("hint_children")), hint("←", app.T("hint_parent")))
	}
	return append(hints, hint("esc", app.T("cancel")))
}

func (v *pickerView) Init() tea.Cmd {
	cmds := []tea.Cmd{v.input.Focus()}
	switch v.kind {
	case pickKato, pickCostItem, pickFundingSource, pickAgsk:
		cmds = append(cmds, v.search())
	}
	return tea.Batch(cmds...)
}

// search issues the request for the current input immediately.
func (v *pickerView) search() tea.Cmd {
	v.seq++
	seq := v.seq
	q := strings.TrimSpace(v.input.Value())
	v.err = nil
	v.tooShort = false

	if v.needsQuery() && utf8.RuneCountInString(q) < v.minChars() {
		v.options = nil
		v.loading = false
		v.tooShort = q != ""
		return nil
	}

	v.loading = true
	app := v.state.App
	kind := v.kind
	var parent *int64
	if n := len(v.path); n > 0 {
		id := v.path[n-1].ID
		parent = &id
	}
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		opts, err := loadOptions(context.Background(), app, kind, q, parent)
		return pickerResultsMsg{seq: seq, options: opts, err: err}
	})
}

// needsQuery reports whether the catalog is only reachable by search.
func (v *pickerView) needsQuery() bool {
	return v.kind == pickEnstru || v.kind == pickMkei
}

func (v *pickerView) minChars() int {
	if n := v.state.App.Config.UI.SearchMinChars; n > 0 {
		return n
	}
	return 2
}

// debounced schedules a search after the configured pause in typing.
func (v *pickerView) debounced() tea.Cmd {
	d := v.state.App.Config.UI.SearchDebounce
	if d <= 0 {
		return v.search()
	}
	v.seq++
	seq := v.seq
	return tea.Tick(d, func(time.Time) tea.Msg { return searchDueMsg{seq: seq} })
}

func loadOptions(ctx context.Context, app *App, kind pickerKind, q string, parent *int64) ([]pickerOption, error) {
	lang := app.Lang()
	var out []pickerOption
	switch kind {
	case pickEnstru:
		found, err := app.Catalog.SearchEnstru(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			out = append(out, pickerOption{code: e.Code, label: e.Name(lang), badge: formatter.NeedTypeBadge(app, e.NeedType()), value: e})
		}
	case pickMkei:
		found, err := app.Catalog.SearchMkei(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			out = append(out, pickerOption{code: m.Code, label: m.Name(lang), value: m})
		}
	case pickAgsk:
		found, err := app.Catalog.SearchAgsk(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			if a, ok := c.Code(); ok {
				out = append(out, pickerOption{code: a.Code, label: a.NameRu, value: c})
			} else {
				out = append(out, pickerOption{label: app.T("price_list"), value: c})
			}
		}
	case pickKato:
		var (
			found []domain.Kato
			err   error
		)
		if utf8.RuneCountInString(q) >= 2 {
			found, err = app.Catalog.SearchKato(ctx, q)
		} else {
			found, err = app.Catalog.KatoChildren(ctx, parent)
		}
		if err != nil {
			return nil, err
		}
		for _, k := range found {
			out = append(out, pickerOption{code: k.Code, label: k.Name(lang), value: k})
		}
	case pickCostItem:
		found, err := app.Catalog.CostItems(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			if matchesQuery(c.Name(lang), q) {
				out = append(out, pickerOption{label: c.Name(lang), value: c})
			}
		}
	case pickFundingSource:
		found, err := app.Catalog.FundingSources(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if matchesQuery(f.Name(lang), q) {
				out = append(out, pickerOption{label: f.Name(lang), value: f})
			}
		}
	}
	return out, nil
}

func matchesQuery(s, q string) bool {
	return q == "" || strings.Contains(strings.ToLower(s), strings.ToLower(q))
}

func (v *pickerView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pickerResultsMsg:
		if msg.seq != v.seq {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		v.options = msg.options
		v.cursor = 0
		return v, nil

	case searchDueMsg:
		if msg.seq != v.seq {
			return v, nil
		}
		return v, v.search()

	case spinner.TickMsg:
		if !v.loading {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		return v.updateKey(msg)
	}
	return v, nil
}

func (v *pickerView) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return v, popView()
	case tea.KeyUp:
		if v.cursor > 0 {
			v.cursor--
		}
		return v, nil
	case tea.KeyDown:
		if v.cursor < len(v.options)-1 {
			v.cursor++
		}
		return v, nil
	case tea.KeyEnter:
		if v.cursor >= len(v.options) {
			return v, nil
		}
		picked := pickedMsg{field: v.field, value: v.options[v.cursor].value}
		return v, tea.Sequence(popView(), func() tea.Msg { return picked })
	case tea.KeyRight:
		if v.kind == pickKato && v.cursor < len(v.options) {
			v.path = append(v.path, v.options[v.cursor].value.(domain.Kato))
			v.input.Reset()
			return v, v.search()
		}
	case tea.KeyLeft:
		if v.kind == pickKato && len(v.path) > 0 && v.input.Value() == "" {
			v.path = v.path[:len(v.path)-1]
			return v, v.search()
		}
	}

	before := v.input.Value()
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	if v.input.Value() == before {
		return v, cmd
	}
	return v, tea.Batch(cmd, v.debounced())
}

func (v *pickerView) View() string {
	app := v.state.App
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(formatter.Header(v.title))
	b.WriteString("\n")
	if len(v.path) > 0 {
		names := make([]string, len(v.path))
		for i, k := range v.path {
			names[i] = k.Name(app.Lang())
		}
		b.WriteString(formatter.Dim(app.T("hierarchy")+": "+strings.Join(names, " › ")) + "\n")
	}
	b.WriteString(v.input.View())
	b.WriteString("\n\n")

	switch {
	case v.tooShort:
		b.WriteString(formatter.Dim(app.T("search_min_chars", i18n.Vars{"n": v.minChars()})) + "\n")
	case v.loading:
		b.WriteString("  " + v.spinner.View() + " " + formatter.Dim(app.T("loading")) + "\n")
	case v.err != nil:
		b.WriteString(formatter.Failure(app.T("search_error")+" "+userMessage(app, v.err)) + "\n")
	case len(v.options) == 0 && (v.input.Value() != "" || !v.needsQuery()):
		b.WriteString(formatter.Dim(app.T("no_results")) + "\n")
	}
	if v.loading || v.err != nil {
		return b.String()
	}

	limit := max(v.state.ContentHeight()-8, 5)
	start := 0
	if v.cursor >= limit {
		start = v.cursor - limit + 1
	}
	for i := start; i < len(v.options) && i < start+limit; i++ {
		o := v.options[i]
		line := formatter.Cursor(i == v.cursor)
		if o.code != "" {
			line += formatter.StyleGreen.Render(o.code) + "  "
		}
		line += formatter.Truncate(o.label, 70)
		if o.badge != "" {
			line += "  " + o.badge
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
