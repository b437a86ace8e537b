package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/alexanderramin/smeta/internal/service"
	"github.com/alexanderramin/smeta/internal/viewmodel"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan",
		Aliases: []string{"plans"},
		Short:   "List, create and inspect procurement plans",
	}

	cmd.AddCommand(
		newPlanListCmd(app),
		newPlanCreateCmd(app),
		newPlanShowCmd(app),
		newPlanDeleteCmd(app),
	)

	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	var search, tab string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := viewmodel.ParseTab(tab)
			if err != nil {
				return err
			}
			snap, err := app.Plans.List(context.Background())
			if err != nil {
				return userError(app, err)
			}
			plans := viewmodel.FilterPlans(snap.Value, t, search)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlanList(app, plans, formatter.NoCursor))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name or year")
	cmd.Flags().StringVar(&tab, "tab", "all", "Status tab (all, draft, pre_approved, approved, executed)")

	return cmd
}

func newPlanCreateCmd(app *App) *cobra.Command {
	var (
		name string
		year int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan with a first draft version",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Plans.Create(context.Background(), domain.PlanPayload{Name: strings.TrimSpace(name), Year: year})
			if err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("plan_created", i18n.Vars{"id": p.ID})))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Plan name")
	cmd.Flags().IntVar(&year, "year", 0, "Plan year")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func newPlanShowCmd(app *App) *cobra.Command {
	var (
		version  int
		page     int
		pageSize int
		query    string
		ktpOnly  bool
		types    []string
	)

	cmd := &cobra.Command{
		Use:   "show PLAN",
		Short: "Show a plan version with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("plan", args[0])
			if err != nil {
				return err
			}
			snap, err := app.Plans.Get(context.Background(), id)
			if err != nil {
				return userError(app, err)
			}
			p := snap.Value
			v, err := resolveVersion(app, &p, version)
			if err != nil {
				return err
			}

			filter := viewmodel.ItemFilter{Query: query, KtpOnly: ktpOnly}
			for _, t := range types {
				n, err := domain.ParseNeedType(t)
				if err != nil {
					return err
				}
				filter.NeedTypes = filter.NeedTypes.Toggle(n)
			}
			if pageSize <= 0 {
				pageSize = app.Config.UI.PageSize
			}
			table := viewmodel.BuildItemTable(v.Items, filter, page-1, pageSize)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.FormatPlanHeader(app, &p, v))
			fmt.Fprintln(out, formatter.FormatVersionStats(app, viewmodel.VersionMetrics(v)))
			fmt.Fprint(out, formatter.FormatItemTable(app, table, formatter.ItemTableOptions{
				Cursor:   formatter.NoCursor,
				Executed: v.Status == domain.StatusApproved,
			}))
			fmt.Fprintln(out, formatter.FormatPageFooter(app, table))
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.FormatVersions(app, &p, v.ID))
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Version number (default: active)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Items per page (default from config)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter items by code, name or specification")
	cmd.Flags().BoolVar(&ktpOnly, "ktp", false, "Only domestically produced items")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Need types to include (good, work, service)")

	return cmd
}

func newPlanDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PLAN",
		Short: "Delete a plan whose versions are all drafts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("plan", args[0])
			if err != nil {
				return err
			}
			if err := app.Plans.Delete(context.Background(), id); err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("plan_deleted", i18n.Vars{"id": id})))
			return nil
		},
	}
}

func newVersionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Manage plan versions",
	}

	cmd.AddCommand(
		newVersionCreateCmd(app),
		newVersionStatusCmd(app),
		newVersionDeleteCmd(app),
		newVersionExportCmd(app),
	)

	return cmd
}

func newVersionCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create PLAN",
		Short: "Copy the active version into a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("plan", args[0])
			if err != nil {
				return err
			}
			v, err := app.Plans.CreateVersion(context.Background(), id)
			if err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("version_created", i18n.Vars{"number": v.Number})))
			return nil
		},
	}
}

func newVersionStatusCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "status PLAN",
		Short: "Advance the active version's status",
		Long: `Advance the active version one step:
DRAFT -> PRE_APPROVED -> APPROVED. Without --to the next status is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := parseID("plan", args[0])
			if err != nil {
				return err
			}
			snap, err := app.Plans.Get(ctx, id)
			if err != nil {
				return userError(app, err)
			}
			p := snap.Value
			v, err := resolveVersion(app, &p, 0)
			if err != nil {
				return err
			}

			var target domain.PlanStatus
			if to == "" {
				next, ok := v.Status.Next()
				if !ok {
					return transitionError(app, v.Status, nil)
				}
				target = next
			} else if target, err = domain.ParsePlanStatus(to); err != nil {
				return err
			}

			updated, err := app.Plans.AdvanceStatus(ctx, id, v, target)
			if err != nil {
				if errors.Is(err, service.ErrInvalidTransition) {
					return transitionError(app, v.Status, err)
				}
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("status_changed", i18n.Vars{
				"number": updated.Number,
				"status": app.T("status_" + string(updated.Status)),
			})))
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target status (PRE_APPROVED or APPROVED)")

	return cmd
}

func newVersionDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-latest PLAN",
		Short: "Delete the newest version when it is a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("plan", args[0])
			if err != nil {
				return err
			}
			if err := app.Plans.DeleteLatestVersion(context.Background(), id); err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("version_deleted")))
			return nil
		},
	}
}

func newVersionExportCmd(app *App) *cobra.Command {
	var (
		version int
		out     string
	)

	cmd := &cobra.Command{
		Use:   "export PLAN",
		Short: "Download a version as an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := parseID("plan", args[0])
			if err != nil {
				return err
			}
			snap, err := app.Plans.Get(ctx, id)
			if err != nil {
				return userError(app, err)
			}
			p := snap.Value
			v, err := resolveVersion(app, &p, version)
			if err != nil {
				return err
			}
			if out == "" {
				out = app.Config.UI.ExportDir
			}
			stop := formatter.StartSpinner(cmd.ErrOrStderr(), app.interactive(), app.T("loading"))
			sum, err := app.Plans.Export(ctx, id, v, out)
			stop()
			if err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("export_saved", i18n.Vars{"path": sum.Path, "rows": sum.Rows})))
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Version number (default: active)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory to save into (default from config)")

	return cmd
}
