package cli

import (
	"testing"

	"github.com/alexanderramin/smeta/internal/teatest"
)

// TestDriver wraps teatest.Driver with inspection of the appModel: the view
// stack, the shared state and the address bar.
type TestDriver struct {
	*teatest.Driver
}

// NewTestDriver opens path in a fresh appModel and drains Init, which loads
// the first screen's data from the in-memory backend.
func NewTestDriver(t *testing.T, app *App, path string) *TestDriver {
	t.Helper()

	m := newAppModel(app, path)
	d := teatest.New(t, m, teatest.WithSize(120, 40))
	d.DrainInit()

	return &TestDriver{Driver: d}
}

// Command focuses the address bar with ':', types input and presses Enter.
// Output-only commands leave the bar focused; it is blurred afterwards so
// later keys reach the active view.
func (d *TestDriver) Command(input string) {
	d.T.Helper()
	d.PressKey(':')
	d.Type(input)
	d.PressEnter()
	if d.CmdBarFocused() {
		d.PressEsc()
	}
}

func (d *TestDriver) appModel() appModel {
	return d.Model.(appModel)
}

// ActiveView returns the top view on the stack.
func (d *TestDriver) ActiveView() View {
	m := d.appModel()
	return m.activeView()
}

// ActiveViewID returns the ViewID of the top view on the stack.
func (d *TestDriver) ActiveViewID() ViewID {
	v := d.ActiveView()
	if v == nil {
		return ViewID(-1)
	}
	return v.ID()
}

// ViewStackIDs returns the ViewIDs of all views on the stack, bottom to top.
func (d *TestDriver) ViewStackIDs() []ViewID {
	m := d.appModel()
	ids := make([]ViewID, len(m.viewStack))
	for i, v := range m.viewStack {
		ids[i] = v.ID()
	}
	return ids
}

// State returns the shared state for inspection.
func (d *TestDriver) State() *SharedState {
	return d.appModel().state
}

// IsQuitting reports whether the app has signaled a quit.
func (d *TestDriver) IsQuitting() bool {
	return d.appModel().quitting || d.Quitting
}

// CmdBarFocused returns whether the address bar currently has focus.
func (d *TestDriver) CmdBarFocused() bool {
	m := d.appModel()
	return m.cmdBar.Focused()
}

// LastOutput returns the output shown in the content area.
func (d *TestDriver) LastOutput() string {
	return d.appModel().lastOutput
}
