package cli

import (
	"context"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	tea "github.com/charmbracelet/bubbletea"
)

// Navigation messages used by views to request view transitions.
// The appModel handles these in its Update method.

// pushViewMsg pushes a new view onto the navigation stack.
type pushViewMsg struct {
	view View
}

// popViewMsg pops the current view off the navigation stack,
// returning to the previous view.
type popViewMsg struct{}

// navigateMsg replaces the whole stack with the views of a route path.
type navigateMsg struct {
	path string
}

// refreshViewMsg asks every view on the stack to reload its data.
type refreshViewMsg struct{}

// cmdOutputMsg carries text output from a command execution
// to be displayed transiently in the current view.
type cmdOutputMsg struct {
	output string
}

// wizardCompleteMsg is sent when a wizard form completes or is cancelled.
// The appModel handles it atomically: pop the wizard view, then run nextCmd.
type wizardCompleteMsg struct {
	nextCmd tea.Cmd
}

// closeViewMsg pops the active view and shows output on the view below.
// Views that mutate data send it with refresh set.
type closeViewMsg struct {
	output  string
	refresh bool
}

// actionDoneMsg reports a finished mutation. The appModel shows the output
// and refreshes every view on the stack.
type actionDoneMsg struct {
	output string
}

// quitMsg signals the app to quit.
type quitMsg struct{}

// dataMsg marks results of asynchronous loads. They are delivered to every
// view on the stack, so a view still receives its data after another view
// was pushed above it.
type dataMsg interface {
	data()
}

// pushView returns a tea.Cmd that pushes a view onto the stack.
func pushView(v View) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{view: v} }
}

// popView returns a tea.Cmd that pops the current view.
func popView() tea.Cmd {
	return func() tea.Msg { return popViewMsg{} }
}

// navigate returns a tea.Cmd that opens the route at path.
func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

// outputCmd shows text in the output area.
func outputCmd(text string) tea.Cmd {
	return func() tea.Msg { return cmdOutputMsg{output: text} }
}

// refreshCmd reloads every view on the stack.
func refreshCmd() tea.Msg { return refreshViewMsg{} }

// wizardCompleteOutput returns a wizardCompleteMsg that displays a message string.
func wizardCompleteOutput(text string) wizardCompleteMsg {
	return wizardCompleteMsg{nextCmd: outputCmd(text)}
}

// closeView pops the active view, refreshing the views below.
func closeView(output string) tea.Cmd {
	return func() tea.Msg { return closeViewMsg{output: output, refresh: true} }
}

// runAction performs a mutation off the UI loop. A failure is shown as
// output and nothing is refreshed.
func runAction(app *App, do func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := do(context.Background())
		if err != nil {
			return cmdOutputMsg{output: formatter.Failure(userMessage(app, err))}
		}
		return actionDoneMsg{output: formatter.Success(out)}
	}
}
