package cli

import (
	"github.com/alexanderramin/smeta/internal/i18n"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [PATH]",
		Short: "Open the full-screen interface",
		Long: `Open the full-screen interface at PATH (default /).

Paths:
  /login
  /plans
  /plans/{id}
  /plans/{id}/items/new
  /plans/{id}/items/{item}/edit
  /plans/{id}/items/{item}/executions

Press : to type a path or a command (lang, logout, refresh, back, quit).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
				if _, err := ParseRoute(path); err != nil {
					return &displayError{msg: app.T("unknown_route", i18n.Vars{"path": path}), err: err}
				}
			}
			return runTUI(app, path)
		},
	}
	// The TUI gates its own routes and shows the login form.
	return public(cmd)
}

// runTUI runs the interface until the user quits.
func runTUI(app *App, path string) error {
	p := tea.NewProgram(newAppModel(app, path), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
