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
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// fieldLabels maps item form fields to their i18n keys.
var fieldLabels = map[viewmodel.Field]string{
	viewmodel.FieldCode:          "enstru_label",
	viewmodel.FieldCostItem:      "expense_item",
	viewmodel.FieldAgsk:          "agsk_3",
	viewmodel.FieldFundingSource: "funding_source",
	viewmodel.FieldUnit:          "item_unit",
	viewmodel.FieldQuantity:      "item_quantity",
	viewmodel.FieldPrice:         "item_price",
	viewmodel.FieldResidentShare: "resident_share_label",
	viewmodel.FieldReason:        "non_resident_reason_label",
	viewmodel.FieldKatoPurchase:  "kato_purchase",
	viewmodel.FieldKatoDelivery:  "kato_delivery",
	viewmodel.FieldSpecsRu:       "additional_specs",
	viewmodel.FieldSpecsKk:       "additional_specs_kz",
}

// pickerFields are chosen from a catalog; the rest are typed.
var pickerFields = map[viewmodel.Field]pickerKind{
	viewmodel.FieldCode:          pickEnstru,
	viewmodel.FieldUnit:          pickMkei,
	viewmodel.FieldCostItem:      pickCostItem,
	viewmodel.FieldFundingSource: pickFundingSource,
	viewmodel.FieldAgsk:          pickAgsk,
	viewmodel.FieldKatoPurchase:  pickKato,
	viewmodel.FieldKatoDelivery:  pickKato,
}

// itemFormLoadedMsg carries what the item form starts from.
type itemFormLoadedMsg struct {
	planID  int64
	itemID  int64
	version *domain.Version
	item    *domain.Item
	err     error
}

func (itemFormLoadedMsg) data() {}

// ktpCheckedMsg carries the registry answer for a selected code.
type ktpCheckedMsg struct {
	code string
	ktp  bool
}

func (ktpCheckedMsg) data() {}

// itemSavedMsg reports the result of a submit.
type itemSavedMsg struct {
	item domain.Item
	err  error
}

// itemFormView edits one item of a plan's active version. itemID 0 adds
// a new item.
type itemFormView struct {
	state  *SharedState
	planID int64
	itemID int64

	form   viewmodel.ItemForm
	eval   viewmodel.FormEvaluator
	inputs map[viewmodel.Field]textinput.Model
	focus  viewmodel.Field

	loaded     bool
	spinner    spinner.Model
	err        error
	submitting bool
	showErrors bool
	submitErr  string
}

func newItemFormView(state *SharedState, planID, itemID int64) *itemFormView {
	inputs := make(map[viewmodel.Field]textinput.Model)
	for _, f := range viewmodel.FormFields {
		if _, ok := pickerFields[f]; ok {
			continue
		}
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 500
		switch f {
		case viewmodel.FieldQuantity, viewmodel.FieldPrice, viewmodel.FieldResidentShare:
			ti.CharLimit = 20
		}
		inputs[f] = ti
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = formatter.StylePurple

	return &itemFormView{
		state:   state,
		planID:  planID,
		itemID:  itemID,
		inputs:  inputs,
		focus:   viewmodel.FieldCode,
		spinner: sp,
	}
}

func (v *itemFormView) ID() ViewID          { return ViewItemForm }
func (v *itemFormView) CapturesInput() bool { return true }

func (v *itemFormView) Title() string {
	if v.itemID == 0 {
		return v.state.App.T("item_form_new_title")
	}
	return v.state.App.T("item_form_edit_title")
}

func (v *itemFormView) ShortHelp() []key.Binding {
	app := v.state.App
	return []key.Binding{
		hint("↑/↓", app.T("hint_field")),
		hint("enter", app.T("select")),
		hint("ctrl+s", app.T("save")),
		hint("esc", app.T("cancel")),
	}
}

func (v *itemFormView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load())
}

// load fetches the plan and, when editing, the item. Views below the form
// may be fetching the same plan concurrently.
func (v *itemFormView) load() tea.Cmd {
	app, planID, itemID := v.state.App, v.planID, v.itemID
	return func() tea.Msg {
		ctx := context.Background()
		msg := itemFormLoadedMsg{planID: planID, itemID: itemID}
		plan, err := app.Plans.Get(ctx, planID)
		if err != nil {
			msg.err = err
			return msg
		}
		if ver, ok := plan.Value.ActiveVersion(); ok {
			msg.version = ver
		}
		if itemID == 0 {
			return msg
		}
		snap, err := app.Items.Get(ctx, itemID)
		if err != nil {
			msg.err = err
			return msg
		}
		it := snap.Value
		msg.item = &it
		if it.Version != nil {
			msg.version = it.Version
		}
		return msg
	}
}

func (v *itemFormView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemFormLoadedMsg:
		if msg.planID != v.planID || msg.itemID != v.itemID || v.loaded {
			return v, nil
		}
		if errors.Is(msg.err, store.ErrStale) {
			// The winning request has committed; this load is served from it.
			return v, v.load()
		}
		v.loaded = true
		v.err = msg.err
		if msg.err != nil {
			return v, nil
		}
		if msg.item != nil {
			v.form = viewmodel.FromItem(msg.item, msg.version)
		} else {
			v.form = viewmodel.NewItemForm(msg.version)
		}
		v.syncInputs()
		return v, nil

	case pickedMsg:
		return v, v.applyPick(msg)

	case ktpCheckedMsg:
		v.form = v.form.ApplyKtp(msg.code, msg.ktp)
		return v, nil

	case itemSavedMsg:
		v.submitting = false
		if msg.err != nil {
			v.submitErr = userMessage(v.state.App, msg.err)
			v.showErrors = true
			return v, nil
		}
		return v, closeView(formatter.Success(v.state.App.T("item_saved", i18n.Vars{"number": msg.item.DisplayNumber()})))

	case spinner.TickMsg:
		if v.loaded && !v.submitting {
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

func (v *itemFormView) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, popView()
	}
	if !v.loaded || v.err != nil || v.submitting {
		return v, nil
	}
	status := v.eval.Evaluate(v.form)

	switch msg.String() {
	case "ctrl+s":
		return v, v.submit(status)
	case "down", "tab":
		v.moveFocus(status, 1)
		return v, v.focusInput()
	case "up", "shift+tab":
		v.moveFocus(status, -1)
		return v, v.focusInput()
	case "enter":
		if kind, ok := pickerFields[v.focus]; ok {
			if !status.Policy(v.focus).Editable {
				return v, nil
			}
			title := v.state.App.T(fieldLabels[v.focus])
			return v, pushView(newPickerView(v.state, kind, v.focus, title))
		}
		v.moveFocus(status, 1)
		return v, v.focusInput()
	case "delete", "ctrl+d":
		if v.focus == viewmodel.FieldCode {
			v.form = v.form.ClearCode()
			v.syncInputs()
		}
		return v, nil
	}

	ti, ok := v.inputs[v.focus]
	if !ok || !status.Policy(v.focus).Editable {
		return v, nil
	}
	var cmd tea.Cmd
	ti, cmd = ti.Update(msg)
	v.inputs[v.focus] = ti
	v.form = setText(v.form, v.focus, ti.Value())
	v.syncInputs()
	return v, cmd
}

// setText applies a typed value to the form.
func setText(f viewmodel.ItemForm, field viewmodel.Field, s string) viewmodel.ItemForm {
	switch field {
	case viewmodel.FieldSpecsRu:
		return f.SetSpecsRu(s)
	case viewmodel.FieldSpecsKk:
		return f.SetSpecsKk(s)
	case viewmodel.FieldQuantity:
		return f.SetQuantity(s)
	case viewmodel.FieldPrice:
		return f.SetPrice(s)
	case viewmodel.FieldResidentShare:
		return f.SetResidentShare(s)
	case viewmodel.FieldReason:
		return f.SetReason(s)
	}
	return f
}

// textValue reads a typed field back from the form.
func textValue(f viewmodel.ItemForm, field viewmodel.Field) string {
	switch field {
	case viewmodel.FieldSpecsRu:
		return f.SpecsRu
	case viewmodel.FieldSpecsKk:
		return f.SpecsKk
	case viewmodel.FieldQuantity:
		return f.Quantity
	case viewmodel.FieldPrice:
		return f.Price
	case viewmodel.FieldResidentShare:
		return f.ResidentShare
	case viewmodel.FieldReason:
		return f.Reason
	}
	return ""
}

// syncInputs makes every input show the form's value. The form may refuse
// or reset a value, e.g. the fixed quantity of works.
func (v *itemFormView) syncInputs() {
	for field, ti := range v.inputs {
		if want := textValue(v.form, field); ti.Value() != want {
			ti.SetValue(want)
			v.inputs[field] = ti
		}
	}
}

func (v *itemFormView) applyPick(msg pickedMsg) tea.Cmd {
	switch val := msg.value.(type) {
	case domain.Enstru:
		v.form = v.form.SelectCode(val, false)
		v.syncInputs()
		app, code := v.state.App, val.Code
		return func() tea.Msg {
			return ktpCheckedMsg{code: code, ktp: app.Catalog.CheckKtp(context.Background(), code)}
		}
	case domain.Mkei:
		v.form = v.form.SetUnit(val)
	case domain.CostItem:
		v.form = v.form.SetCostItem(val)
	case domain.FundingSource:
		v.form = v.form.SetFundingSource(val)
	case domain.AgskChoice:
		v.form = v.form.SetAgsk(val)
	case domain.Kato:
		if msg.field == viewmodel.FieldKatoPurchase {
			v.form = v.form.SetKatoPurchase(val)
		} else {
			v.form = v.form.SetKatoDelivery(val)
		}
	}
	return nil
}

func (v *itemFormView) submit(status viewmodel.FormStatus) tea.Cmd {
	app := v.state.App
	if status.Locked {
		v.submitErr = app.T("form_locked_warning")
		return nil
	}
	if !status.CanSubmit {
		v.showErrors = true
		v.submitErr = app.T("submit_blocked")
		return nil
	}
	v.submitting = true
	v.submitErr = ""
	form, planID, itemID := v.form, v.planID, v.itemID
	save := func() tea.Msg {
		ctx := context.Background()
		if itemID == 0 {
			it, err := app.Items.Add(ctx, planID, form)
			return itemSavedMsg{item: it, err: err}
		}
		it, err := app.Items.Update(ctx, planID, itemID, form)
		return itemSavedMsg{item: it, err: err}
	}
	return tea.Batch(v.spinner.Tick, save)
}

// visibleFields lists the fields shown for the current need type.
func visibleFields(status viewmodel.FormStatus) []viewmodel.Field {
	out := make([]viewmodel.Field, 0, len(viewmodel.FormFields))
	for _, f := range viewmodel.FormFields {
		if status.Policy(f).Visible {
			out = append(out, f)
		}
	}
	return out
}

func (v *itemFormView) moveFocus(status viewmodel.FormStatus, delta int) {
	fields := visibleFields(status)
	i := 0
	for j, f := range fields {
		if f == v.focus {
			i = j
			break
		}
	}
	i = min(max(i+delta, 0), len(fields)-1)
	v.focus = fields[i]
}

// focusInput focuses the text input of the focused field, if it has one.
func (v *itemFormView) focusInput() tea.Cmd {
	var cmd tea.Cmd
	for field, ti := range v.inputs {
		if field == v.focus {
			cmd = ti.Focus()
		} else {
			ti.Blur()
		}
		v.inputs[field] = ti
	}
	return cmd
}

func (v *itemFormView) choiceLabel(field viewmodel.Field) string {
	app := v.state.App
	lang := app.Lang()
	f := v.form
	switch field {
	case viewmodel.FieldCode:
		e, _ := f.Code.Get()
		return formatter.ChoiceLabel(app, e.Code, e.Name(lang))
	case viewmodel.FieldUnit:
		m, _ := f.Unit.Get()
		return formatter.ChoiceLabel(app, m.Code, m.Name(lang))
	case viewmodel.FieldCostItem:
		c, _ := f.CostItem.Get()
		return formatter.ChoiceLabel(app, "", c.Name(lang))
	case viewmodel.FieldFundingSource:
		s, _ := f.FundingSource.Get()
		return formatter.ChoiceLabel(app, "", s.Name(lang))
	case viewmodel.FieldAgsk:
		if a, ok := f.Agsk.Code(); ok {
			return formatter.ChoiceLabel(app, a.Code, a.NameRu)
		}
		if f.Agsk.IsPriceList() {
			return formatter.ChoiceLabel(app, "", app.T("price_list"))
		}
		return formatter.ChoiceLabel(app, "", "")
	case viewmodel.FieldKatoPurchase:
		k, _ := f.KatoPurchase.Get()
		return formatter.ChoiceLabel(app, k.Code, k.Name(lang))
	case viewmodel.FieldKatoDelivery:
		k, _ := f.KatoDelivery.Get()
		return formatter.ChoiceLabel(app, k.Code, k.Name(lang))
	}
	return ""
}

func (v *itemFormView) View() string {
	app := v.state.App
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(formatter.Header(v.Title()))
	b.WriteString("\n")

	switch {
	case !v.loaded:
		b.WriteString("  " + v.spinner.View() + " " + formatter.Dim(app.T("loading")) + "\n")
		return b.String()
	case v.err != nil:
		b.WriteString(formatter.Failure(app.T("error_loading_data")+" "+userMessage(app, v.err)) + "\n")
		return b.String()
	}

	status := v.eval.Evaluate(v.form)
	if status.Locked {
		b.WriteString(formatter.StyleYellow.Render(app.T("form_locked_warning")) + "\n")
	}
	ktp := formatter.Dim("—")
	if v.form.IsKtp {
		ktp = formatter.StyleGreen.Render("✔")
	}
	b.WriteString(formatter.Dim(app.T("need_type")+":") + " " + formatter.NeedTypeBadge(app, status.NeedType) +
		"   " + formatter.Dim(app.T("is_ktp_label")+":") + " " + ktp + "\n\n")

	for _, field := range visibleFields(status) {
		pol := status.Policy(field)
		label := app.T(fieldLabels[field])
		if pol.Required {
			label += " " + formatter.StyleRed.Render(app.T("required_mark"))
		}
		_, picked := pickerFields[field]
		var value string
		switch {
		case picked:
			value = v.choiceLabel(field)
		case field == v.focus && pol.Editable:
			ti := v.inputs[field]
			value = ti.View()
		default:
			value = textValue(v.form, field)
			if value == "" {
				value = "—"
			}
			value = formatter.Dim(value)
		}
		line := formatter.Cursor(field == v.focus) + formatter.PadRight(label, 42) + " " + value
		b.WriteString(line + "\n")
		if v.showErrors {
			if key := status.Error(field); key != "" {
				b.WriteString("    " + formatter.StyleRed.Render(app.T(key)) + "\n")
			}
		}
	}

	b.WriteString("\n" + formatter.Dim(app.T("total_amount")+":") + " " + formatter.Bold(formatter.Money(status.Total)) + "\n")
	if v.submitting {
		b.WriteString("  " + v.spinner.View() + " " + formatter.Dim(app.T("loading")) + "\n")
	}
	if v.submitErr != "" {
		b.WriteString(formatter.Failure(v.submitErr) + "\n")
	}
	return b.String()
}
