package cli

import (
	"errors"
	"strings"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/config"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/alexanderramin/smeta/internal/repository"
	"github.com/alexanderramin/smeta/internal/service"
	"github.com/alexanderramin/smeta/internal/session"
	"github.com/alexanderramin/smeta/internal/viewmodel"
	"github.com/spf13/cobra"
)

// App holds the application context and the services used by commands and
// views.
type App struct {
	Session    *session.Context
	Translator *i18n.Translator
	Config     config.Config

	Auth       service.AuthService
	Plans      service.PlanService
	Items      service.ItemService
	Executions service.ExecutionService
	Catalog    service.CatalogService

	// History is the address bar history; nil keeps it in memory only.
	History repository.HistoryRepo

	// IsInteractive reports whether stdin is a terminal. Running smeta
	// without a subcommand starts the TUI when it returns true.
	IsInteractive func() bool
}

// T translates key in the session language.
func (a *App) T(key string, vars ...i18n.Vars) string {
	return a.Translator.T(a.Session.Lang(), key, vars...)
}

// Lang is the session language.
func (a *App) Lang() domain.Lang {
	return a.Session.Lang()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// annotationAuth marks commands that run without a token.
const annotationAuth = "auth"

func public(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationAuth] = "none"
	return cmd
}

// needsAuth reports whether cmd requires a token. Cobra's own help and
// completion commands never do.
func needsAuth(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationAuth] == "none" && c != cmd.Root() {
			return false
		}
		if c.Name() == "help" || c.Name() == "completion" || strings.HasPrefix(c.Name(), "__") {
			return false
		}
	}
	return cmd.Annotations[annotationAuth] != "none"
}

// NewRootCmd creates the top-level "smeta" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "smeta",
		Short:         "Procurement plan client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsAuth(cmd) || app.Session.Authenticated() {
				return nil
			}
			return &displayError{msg: app.T("not_logged_in"), err: api.ErrUnauthorized}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.interactive() {
				return runTUI(app, "/")
			}
			return cmd.Help()
		},
	}
	public(root)

	// Read by main before the App exists; declared here so help lists them
	// and cobra accepts them.
	root.PersistentFlags().String("config", "", "Config file (default ~/.smeta/config.yaml)")
	root.PersistentFlags().String("api", "", "Backend base URL")
	root.PersistentFlags().String("db", "", "Local settings database path")

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoAmICmd(app),
		newLangCmd(app),
		newPlanCmd(app),
		newVersionCmd(app),
		newItemCmd(app),
		newExecCmd(app),
		newCatalogCmd(app),
		newTUICmd(app),
	)

	return root
}

// displayError carries a localized message for the terminal while keeping
// the underlying error matchable.
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }
func (e *displayError) Unwrap() error { return e.err }

// userError maps err to the localized message shown to the user. API
// details are shown verbatim.
func userError(l formatter.Localizer, err error) error {
	if err == nil {
		return nil
	}
	var de *displayError
	if errors.As(err, &de) {
		return err
	}
	return &displayError{msg: userMessage(l, err), err: err}
}

func userMessage(l formatter.Localizer, err error) string {
	var (
		rejected *viewmodel.ExecutionRejected
		apiErr   *api.APIError
		invalid  *api.ValidationError
	)
	switch {
	case errors.Is(err, api.ErrNetwork), errors.Is(err, api.ErrTimeout):
		return l.T("error_network")
	case errors.Is(err, api.ErrUnauthorized):
		return l.T("error_unauthorized")
	case errors.As(err, &rejected):
		msgs := make([]string, 0, len(rejected.Errors))
		for _, key := range rejected.Keys() {
			msgs = append(msgs, l.T(key))
		}
		return strings.Join(dedupe(msgs), " ")
	case errors.Is(err, viewmodel.ErrFormIncomplete), errors.Is(err, viewmodel.ErrFormLocked):
		return l.T("submit_blocked")
	case errors.Is(err, session.ErrEmptyCredentials):
		return l.T("login_failed", i18n.Vars{"detail": l.T("error_fill_required_fields")})
	case errors.As(err, &apiErr):
		if len(apiErr.Errors) > 0 {
			return apiErr.Detail + ": " + strings.Join(apiErr.Errors, "; ")
		}
		return apiErr.Error()
	case errors.As(err, &invalid):
		return l.T("error_fill_required_fields") + " " + invalid.Error()
	}
	return err.Error()
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
