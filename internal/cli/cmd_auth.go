package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (username == "" || password == "") && app.interactive() {
				if err := loginForm(app, &username, &password).Run(); err != nil {
					return err
				}
			}
			if err := execLogin(context.Background(), app, username, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("logged_in_as", i18n.Vars{"user": app.Session.User()})))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")

	return public(cmd)
}

// execLogin signs in and maps failures to the login message.
func execLogin(ctx context.Context, app *App, username, password string) error {
	err := app.Auth.Login(ctx, username, password)
	if err == nil {
		return nil
	}
	msg := userMessage(app, err)
	if msg != app.T("error_network") {
		msg = app.T("login_failed", i18n.Vars{"detail": msg})
	}
	return &displayError{msg: msg, err: err}
}

func loginForm(app *App, username, password *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(app.T("username")).Value(username),
			huh.NewInput().Title(app.T("password")).EchoMode(huh.EchoModePassword).Value(password),
		).Title(app.T("login_title")),
	).WithTheme(smetaHuhTheme()).WithShowHelp(false)
}

func newLogoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Auth.Logout(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), app.T("logged_out"))
			return nil
		},
	}
	return public(cmd)
}

func newWhoAmICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and token expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !app.Session.Authenticated() {
				fmt.Fprintln(out, formatter.Dim(app.T("not_logged_in")))
				return nil
			}
			fmt.Fprintln(out, app.T("logged_in_as", i18n.Vars{"user": app.Session.User()}))
			claims := app.Session.Claims()
			if !claims.ExpiresAt.IsZero() {
				line := app.T("token_expires", i18n.Vars{"time": claims.ExpiresAt.Local().Format("02.01.2006 15:04")})
				if claims.Expired(time.Now()) {
					line = formatter.StyleRed.Render(line)
				}
				fmt.Fprintln(out, formatter.Dim(line))
			}
			return nil
		},
	}
	return public(cmd)
}

func newLangCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "lang [ru|kk]",
		Short:     "Show or switch the interface language",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"ru", "kk"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), app.Lang())
				return nil
			}
			lang, err := app.Auth.SetLang(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), app.T("lang_switched", i18n.Vars{"lang": string(lang)}))
			return nil
		},
	}
	return public(cmd)
}
