package cli

import (
	"context"
	"strings"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// loginResultMsg carries the outcome of a sign-in attempt.
type loginResultMsg struct {
	err error
}

// loginView asks for credentials and opens the remembered route on success.
type loginView struct {
	state    *SharedState
	form     *huh.Form
	username string
	password string

	busy    bool
	spinner spinner.Model
	err     string
}

func newLoginView(state *SharedState) *loginView {
	v := &loginView{state: state, spinner: spinner.New(spinner.WithSpinner(spinner.Dot))}
	v.spinner.Style = formatter.StylePurple
	v.form = loginForm(state.App, &v.username, &v.password)
	return v
}

func (v *loginView) ID() ViewID    { return ViewLogin }
func (v *loginView) Title() string { return v.state.App.T("login_title") }

func (v *loginView) ShortHelp() []key.Binding {
	return []key.Binding{
		hint("enter", v.state.App.T("login_button")),
		hint("ctrl+c", v.state.App.T("close")),
	}
}

func (v *loginView) Init() tea.Cmd {
	return v.form.Init()
}

func (v *loginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		v.busy = false
		if msg.err != nil {
			v.err = msg.err.Error()
			v.password = ""
			v.form = loginForm(v.state.App, &v.username, &v.password)
			return v, v.form.Init()
		}
		next := v.state.Next
		v.state.Next = ""
		if next == "" || next == "/login" {
			next = "/"
		}
		return v, navigate(next)

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case dataMsg, refreshViewMsg:
		return v, nil
	}

	if v.busy {
		return v, nil
	}

	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}
	if v.form.State == huh.StateCompleted {
		v.busy = true
		v.err = ""
		return v, tea.Batch(v.spinner.Tick, v.submit())
	}
	return v, cmd
}

func (v *loginView) submit() tea.Cmd {
	app := v.state.App
	username, password := strings.TrimSpace(v.username), v.password
	return func() tea.Msg {
		return loginResultMsg{err: execLogin(context.Background(), app, username, password)}
	}
}

func (v *loginView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(formatter.Header(v.state.App.T("app_title")))
	b.WriteString("\n\n")
	if v.busy {
		b.WriteString("  " + v.spinner.View() + " " + formatter.Dim(v.state.App.T("loading")) + "\n")
		return b.String()
	}
	b.WriteString(v.form.View())
	if v.err != "" {
		b.WriteString("\n" + formatter.Failure(v.err) + "\n")
	}
	return b.String()
}
