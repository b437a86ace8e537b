package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubView struct {
	id         ViewID
	title      string
	viewText   string
	captures   bool
	shortHelp  []key.Binding
	initCmd    tea.Cmd
	updateCmd  tea.Cmd
	updateSeen []tea.Msg
}

func (v *stubView) Init() tea.Cmd { return v.initCmd }

func (v *stubView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	v.updateSeen = append(v.updateSeen, msg)
	return v, v.updateCmd
}

func (v *stubView) View() string             { return v.viewText }
func (v *stubView) ID() ViewID               { return v.id }
func (v *stubView) ShortHelp() []key.Binding { return v.shortHelp }
func (v *stubView) Title() string            { return v.title }
func (v *stubView) CapturesInput() bool      { return v.captures }
func newStubView(id ViewID, title, text string) *stubView {
	return &stubView{id: id, title: title, viewText: text}
}

type stubDataMsg struct{}

func (stubDataMsg) data() {}

func TestNewAppModel_StartsAtPath(t *testing.T) {
	env := testApp(t)

	m := newAppModel(env.app, "/")
	require.Len(t, m.viewStack, 1)
	assert.Equal(t, ViewDashboard, m.activeView().ID())

	m = newAppModel(env.app, "/plans/4/items/new")
	require.Len(t, m.viewStack, 3)
	assert.Equal(t, ViewItemForm, m.activeView().ID())
}

func TestNewAppModel_SignedOutStartsAtLogin(t *testing.T) {
	env := newTestEnv(t)

	m := newAppModel(env.app, "/plans/4")
	require.Len(t, m.viewStack, 1)
	assert.Equal(t, ViewLogin, m.activeView().ID())
	assert.Equal(t, "/plans/4", m.state.Next)
}

func TestAppModel_NavigationMessages(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	v2 := newStubView(ViewPlan, "Plan", "plan view")

	model, cmd := m.Update(pushViewMsg{view: v2})
	m = model.(appModel)
	require.Nil(t, cmd)
	require.Len(t, m.viewStack, 2)
	assert.Equal(t, v2, m.activeView())

	model, cmd = m.Update(popViewMsg{})
	m = model.(appModel)
	require.Nil(t, cmd)
	require.Len(t, m.viewStack, 1)
	assert.Equal(t, ViewDashboard, m.activeView().ID())

	// The bottom view is never popped.
	model, _ = m.Update(popViewMsg{})
	m = model.(appModel)
	require.Len(t, m.viewStack, 1)
}

func TestAppModel_NavigateReplacesStack(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	m.viewStack = append(m.viewStack, newStubView(ViewPlan, "Plan", "plan"))

	model, cmd := m.Update(navigateMsg{path: "/plans/9/items/3/executions"})
	m = model.(appModel)
	require.NotNil(t, cmd)
	ids := make([]ViewID, len(m.viewStack))
	for i, v := range m.viewStack {
		ids[i] = v.ID()
	}
	assert.Equal(t, []ViewID{ViewDashboard, ViewPlan, ViewExecutions}, ids)

	model, cmd = m.Update(navigateMsg{path: "/bogus"})
	m = model.(appModel)
	require.NotNil(t, cmd)
	assert.Len(t, m.viewStack, 3, "an unknown path leaves the stack alone")
	out, ok := cmd().(cmdOutputMsg)
	require.True(t, ok)
	assert.Contains(t, out.output, "/bogus")
}

func TestAppModel_WindowResizeReachesEveryView(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	below := newStubView(ViewDashboard, "Plans", "plans")
	top := newStubView(ViewPlan, "Plan", "plan")
	m.viewStack = []View{below, top}

	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = model.(appModel)

	assert.Equal(t, 100, m.state.Width)
	assert.Equal(t, 30, m.state.Height)
	assert.NotZero(t, m.cmdBar.input.Width)
	for _, v := range []*stubView{below, top} {
		require.Len(t, v.updateSeen, 1)
		_, ok := v.updateSeen[0].(tea.WindowSizeMsg)
		assert.True(t, ok)
	}
}

func TestAppModel_DataMessagesAreBroadcast(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	below := newStubView(ViewPlan, "Plan", "plan")
	top := newStubView(ViewPicker, "Pick", "pick")
	m.viewStack = []View{below, top}

	model, _ := m.Update(stubDataMsg{})
	m = model.(appModel)

	assert.Len(t, below.updateSeen, 1)
	assert.Len(t, top.updateSeen, 1)

	// Other messages only reach the top view.
	model, _ = m.Update(struct{}{})
	_ = model.(appModel)
	assert.Len(t, below.updateSeen, 1)
	assert.Len(t, top.updateSeen, 2)
}

func TestAppModel_KeyHandling_GlobalAndCaptured(t *testing.T) {
	t.Run("colon focuses address bar", func(t *testing.T) {
		m := newAppModel(testApp(t).app, "/")
		m.viewStack = []View{newStubView(ViewDashboard, "Plans", "plans")}
		require.False(t, m.cmdBar.Focused())

		model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{':'}})
		m = model.(appModel)
		require.Nil(t, cmd)
		assert.True(t, m.cmdBar.Focused())
	})

	t.Run("q quits when active view does not capture input", func(t *testing.T) {
		m := newAppModel(testApp(t).app, "/")
		m.viewStack = []View{newStubView(ViewDashboard, "Plans", "plans")}

		model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		m = model.(appModel)
		require.NotNil(t, cmd)
		assert.True(t, m.quitting)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("capturing view receives q and does not quit", func(t *testing.T) {
		m := newAppModel(testApp(t).app, "/")
		v := newStubView(ViewItemForm, "Item", "item")
		v.captures = true
		m.viewStack = []View{v}

		model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		m = model.(appModel)
		require.Nil(t, cmd)
		assert.False(t, m.quitting)
		require.Len(t, v.updateSeen, 1)
		assert.Equal(t, "q", v.updateSeen[0].(tea.KeyMsg).String())
	})

	t.Run("esc pops back stack", func(t *testing.T) {
		m := newAppModel(testApp(t).app, "/")
		m.viewStack = []View{
			newStubView(ViewDashboard, "Plans", "plans"),
			newStubView(ViewPlan, "Plan", "plan"),
		}

		model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		m = model.(appModel)
		require.Nil(t, cmd)
		require.Len(t, m.viewStack, 1)
	})

	t.Run("esc first dismisses output", func(t *testing.T) {
		m := newAppModel(testApp(t).app, "/")
		m.viewStack = []View{
			newStubView(ViewDashboard, "Plans", "plans"),
			newStubView(ViewPlan, "Plan", "plan"),
		}
		m.showOutput("stale output")

		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		m = model.(appModel)
		assert.Len(t, m.viewStack, 2)
		assert.Empty(t, m.lastOutput)
		assert.False(t, m.outputActive)
	})
}

// batchMsgs runs every command of a batch and returns their messages.
func batchMsgs(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		if c != nil {
			out = append(out, c())
		}
	}
	return out
}

func TestAppModel_WizardCompletePopsAndRefreshes(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	m.viewStack = []View{
		newStubView(ViewDashboard, "Plans", "plans"),
		newStubView(ViewForm, "Wizard", "wizard"),
	}
	next := func() tea.Msg { return cmdOutputMsg{output: "done"} }

	model, cmd := m.Update(wizardCompleteMsg{nextCmd: next})
	m = model.(appModel)
	require.NotNil(t, cmd)
	require.Len(t, m.viewStack, 1)

	var gotOutput, gotRefresh bool
	for _, msg := range batchMsgs(t, cmd) {
		switch msg.(type) {
		case cmdOutputMsg:
			gotOutput = true
		case refreshViewMsg:
			gotRefresh = true
		}
	}
	assert.True(t, gotOutput, "batch should contain cmdOutputMsg")
	assert.True(t, gotRefresh, "batch should contain refreshViewMsg")
}

func TestAppModel_CloseViewShowsOutputBelow(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	m.viewStack = []View{
		newStubView(ViewPlan, "Plan", "plan"),
		newStubView(ViewItemForm, "Item", "item"),
	}

	model, cmd := m.Update(closeViewMsg{output: "saved", refresh: true})
	m = model.(appModel)
	require.Len(t, m.viewStack, 1)
	msgs := batchMsgs(t, cmd)
	assert.Contains(t, msgs, tea.Msg(cmdOutputMsg{output: "saved"}))
	assert.Contains(t, msgs, tea.Msg(refreshViewMsg{}))
}

func TestAppModel_ActionDoneShowsOutputThenRefreshes(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	m.viewStack = []View{newStubView(ViewPlan, "Plan", "plan")}

	model, cmd := m.Update(actionDoneMsg{output: "status changed"})
	m = model.(appModel)
	require.NotNil(t, cmd)
	assert.IsType(t, refreshViewMsg{}, cmd())
	assert.Equal(t, "status changed", m.lastOutput)
	assert.Contains(t, m.View(), "status changed")
}

func TestViewCapturesInput(t *testing.T) {
	assert.False(t, viewCapturesInput(nil))
	assert.True(t, viewCapturesInput(newStubView(ViewForm, "Form", "")))
	assert.True(t, viewCapturesInput(newStubView(ViewLogin, "Login", "")))
	assert.False(t, viewCapturesInput(newStubView(ViewDashboard, "Dash", "")))

	searching := newStubView(ViewDashboard, "Dash", "")
	searching.captures = true
	assert.True(t, viewCapturesInput(searching))
}

func TestAppModel_OutputViewportScroll(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	m.viewStack = []View{newStubView(ViewDashboard, "Plans", "plans")}

	// Height 10 leaves 5 lines of content.
	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = model.(appModel)

	lines := make([]string, 50)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	content := strings.Join(lines, "\n")

	model, _ = m.Update(cmdOutputMsg{output: content})
	m = model.(appModel)
	assert.True(t, m.outputActive)
	assert.Contains(t, m.View(), "line 1")

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(appModel)
	assert.True(t, m.outputActive)

	// Non-scroll key dismisses.
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = model.(appModel)
	assert.False(t, m.outputActive)
	assert.Empty(t, m.lastOutput)
}

func TestAppModel_OutputShortContentNoScroll(t *testing.T) {
	m := newAppModel(testApp(t).app, "/")
	m.viewStack = []View{newStubView(ViewDashboard, "Plans", "plans")}

	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = model.(appModel)

	model, _ = m.Update(cmdOutputMsg{output: "short output"})
	m = model.(appModel)
	assert.True(t, m.outputActive)

	view := m.View()
	assert.Contains(t, view, "short output")
	assert.NotContains(t, view, "pgup/pgdn")
}

func TestIsOutputScrollKey(t *testing.T) {
	scrollKeys := []tea.KeyType{
		tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown,
		tea.KeyHome, tea.KeyEnd, tea.KeyCtrlU, tea.KeyCtrlD,
	}
	for _, k := range scrollKeys {
		assert.True(t, isOutputScrollKey(tea.KeyMsg{Type: k}), "expected scroll key: %v", k)
	}

	nonScrollKeys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyRunes, Runes: []rune{':'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyEnter},
	}
	for _, k := range nonScrollKeys {
		assert.False(t, isOutputScrollKey(k), "expected non-scroll key: %v", k)
	}
}
