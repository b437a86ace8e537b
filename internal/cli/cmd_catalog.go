package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/spf13/cobra"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"cat"},
		Short:   "Search the reference catalogs",
	}

	cmd.AddCommand(
		newCatalogSearchCmd(app, "enstru", "Search commodity codes", func(ctx context.Context, q string) (string, error) {
			found, err := app.Catalog.SearchEnstru(ctx, q)
			return formatter.FormatEnstru(app, found), err
		}),
		newCatalogSearchCmd(app, "mkei", "Search units of measure", func(ctx context.Context, q string) (string, error) {
			found, err := app.Catalog.SearchMkei(ctx, q)
			return formatter.FormatMkei(app, found), err
		}),
		newCatalogSearchCmd(app, "agsk", "Search construction codes", func(ctx context.Context, q string) (string, error) {
			found, err := app.Catalog.SearchAgsk(ctx, q)
			return formatter.FormatAgsk(app, found), err
		}),
		newCatalogKatoCmd(app),
		newCatalogKtpCmd(app),
		newCatalogListsCmd(app),
	)

	return cmd
}

type searchFunc func(ctx context.Context, q string) (string, error)

func newCatalogSearchCmd(app *App, name, short string, search searchFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " QUERY",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, app, strings.Join(args, " "), search)
		},
	}
}

func runSearch(cmd *cobra.Command, app *App, q string, search searchFunc) error {
	if n := app.Config.UI.SearchMinChars; utf8.RuneCountInString(strings.TrimSpace(q)) < n {
		return &displayError{msg: app.T("search_min_chars", i18n.Vars{"n": n})}
	}
	out, err := search(context.Background(), q)
	if err != nil {
		return userError(app, err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func newCatalogKatoCmd(app *App) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "kato [QUERY]",
		Short: "Browse or search the region hierarchy",
		Long: `Without a query, list the children of --parent (or the top level).
With a query, search the whole hierarchy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if len(args) > 0 {
				return runSearch(cmd, app, strings.Join(args, " "), func(ctx context.Context, q string) (string, error) {
					found, err := app.Catalog.SearchKato(ctx, q)
					return formatter.FormatKato(app, found), err
				})
			}
			var parentID *int64
			if parent != "" {
				id, err := strconv.ParseInt(parent, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid parent id %q", parent)
				}
				parentID = &id
			}
			found, err := app.Catalog.KatoChildren(ctx, parentID)
			if err != nil {
				return userError(app, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatKato(app, found))
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent region id")

	return cmd
}

func newCatalogKtpCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ktp CODE",
		Short: "Check whether a commodity code is domestically produced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mark := formatter.Dim("—")
			if app.Catalog.CheckKtp(context.Background(), args[0]) {
				mark = formatter.StyleGreen.Render("✔")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n", args[0], app.T("is_ktp"), mark)
			return nil
		},
	}
}

func newCatalogListsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show cost items and funding sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			costs, err := app.Catalog.CostItems(ctx)
			if err != nil {
				return userError(app, err)
			}
			sources, err := app.Catalog.FundingSources(ctx)
			if err != nil {
				return userError(app, err)
			}

			out := cmd.OutOrStdout()
			t := formatter.NewTable("", app.T("expense_item"))
			for _, c := range costs {
				t.Row(formatter.Dim(strconv.FormatInt(c.ID, 10)), c.Name(app.Lang()))
			}
			fmt.Fprint(out, t.Render())
			fmt.Fprintln(out)
			t = formatter.NewTable("", app.T("funding_source"))
			for _, f := range sources {
				t.Row(formatter.Dim(strconv.FormatInt(f.ID, 10)), f.Name(app.Lang()))
			}
			fmt.Fprint(out, t.Render())
			return nil
		},
	}
}
