package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/spf13/cobra"
)

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Inspect, delete and import plan items",
	}

	cmd.AddCommand(
		newItemShowCmd(app),
		newItemDeleteCmd(app),
		newItemRevertCmd(app),
		newItemImportCmd(app),
		newItemTemplateCmd(app),
	)

	return cmd
}

func newItemShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ITEM",
		Short: "Show an item with its execution progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, _, err := resolveItem(context.Background(), app, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItemSummary(app, it))
			return nil
		},
	}
}

func newItemDeleteCmd(app *App) *cobra.Command {
	var plan string

	cmd := &cobra.Command{
		Use:   "delete ITEM",
		Short: "Delete an item from a draft version",
		Long: `Delete an item from a draft version. Items carried over from an
earlier version are only marked deleted and can be reverted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			it, planID, err := resolvePlanItem(ctx, app, plan, args[0])
			if err != nil {
				return err
			}
			if err := app.Items.Delete(ctx, planID, it.ID); err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("item_deleted")))
			return nil
		},
	}

	cmd.Flags().StringVar(&plan, "plan", "", "Plan the item must belong to")

	return cmd
}

func newItemRevertCmd(app *App) *cobra.Command {
	var plan string

	cmd := &cobra.Command{
		Use:   "revert ITEM",
		Short: "Restore an item to its state in the previous version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			it, planID, err := resolvePlanItem(ctx, app, plan, args[0])
			if err != nil {
				return err
			}
			reverted, err := app.Items.Revert(ctx, planID, it.ID)
			if err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("item_reverted", i18n.Vars{"number": reverted.DisplayNumber()})))
			return nil
		},
	}

	cmd.Flags().StringVar(&plan, "plan", "", "Plan the item must belong to")

	return cmd
}

func newItemImportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "import PLAN FILE",
		Short: "Import items from an Excel workbook into the active draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := parseID("plan", args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = app.Config.UI.ExportDir
			}
			stop := formatter.StartSpinner(cmd.ErrOrStderr(), app.interactive(), app.T("loading"))
			res, err := app.Items.Import(context.Background(), planID, args[1], out)
			stop()
			if err != nil {
				return userError(app, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatImportResult(app, res))
			if !res.Failed() {
				return nil
			}
			return &displayError{msg: app.T("import_errors_title")}
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory for the annotated error workbook")

	return cmd
}

func newItemTemplateCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Download the import workbook template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = app.Config.UI.ExportDir
			}
			stop := formatter.StartSpinner(cmd.ErrOrStderr(), app.interactive(), app.T("loading"))
			sum, err := app.Items.Template(context.Background(), out)
			stop()
			if err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("import_template_saved", i18n.Vars{"path": sum.Path})))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory to save into (default from config)")

	return cmd
}
