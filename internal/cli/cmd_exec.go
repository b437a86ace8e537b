package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/viewmodel"
	"github.com/spf13/cobra"
)

func newExecCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exec",
		Aliases: []string{"execution"},
		Short:   "Record contracts against approved items",
	}

	cmd.AddCommand(
		newExecListCmd(app),
		newExecAddCmd(app),
		newExecDeleteCmd(app),
	)

	return cmd
}

func newExecListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list ITEM",
		Short: "Show an item's execution report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			it, _, err := resolveItem(ctx, app, args[0])
			if err != nil {
				return err
			}
			snap, err := app.Executions.List(ctx, it.ID)
			if err != nil {
				return userError(app, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatItemSummary(app, it))
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.FormatProgress(app, viewmodel.ItemProgress(it, snap.Value), 20))
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.FormatExecutions(app, snap.Value, formatter.NoCursor))
			return nil
		},
	}
}

func newExecAddCmd(app *App) *cobra.Command {
	var entry viewmodel.ExecutionEntry

	cmd := &cobra.Command{
		Use:   "add ITEM",
		Short: "Record a contract against an item",
		Long: `Record a contract against an item of an approved version.
The quantity, unit price and sum may not exceed what remains of the plan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			it, planID, err := resolveItem(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := requireApproved(app, it); err != nil {
				return err
			}
			if _, err := app.Executions.Add(ctx, planID, it, entry); err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("execution_saved")))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&entry.SupplierName, "supplier", "", "Supplier name")
	f.StringVar(&entry.SupplierBIN, "bin", "", "Supplier BIN (12 digits)")
	f.StringVar(&entry.ResidencyCode, "residency", "", "Residency code")
	f.StringVar(&entry.OriginCode, "origin", "", "Country of origin code")
	f.StringVar(&entry.ContractNumber, "contract", "", "Contract number")
	f.StringVar(&entry.ContractDate, "date", "", "Contract date (YYYY-MM-DD)")
	f.StringVar(&entry.Quantity, "qty", "", "Contracted quantity")
	f.StringVar(&entry.Price, "price", "", "Contract unit price")
	f.StringVar(&entry.SupplyPhysical, "supply-physical", "", "Supplied volume, physical units")
	f.StringVar(&entry.SupplyValue, "supply-value", "", "Supplied volume, value")

	return cmd
}

func newExecDeleteCmd(app *App) *cobra.Command {
	var item string

	cmd := &cobra.Command{
		Use:   "delete EXECUTION",
		Short: "Delete a recorded contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := parseID("execution", args[0])
			if err != nil {
				return err
			}
			it, planID, err := resolveItem(ctx, app, item)
			if err != nil {
				return err
			}
			if err := requireApproved(app, it); err != nil {
				return err
			}
			if err := app.Executions.Delete(ctx, planID, it.ID, id); err != nil {
				return userError(app, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(app.T("execution_deleted")))
			return nil
		},
	}

	cmd.Flags().StringVar(&item, "item", "", "Item the contract belongs to")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}
