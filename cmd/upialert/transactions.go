package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shintopc/UPI-voice-alert/internal/cli"
	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/report"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn", "tx"},
		Short:   "List and manage recorded payments",
	}

	cmd.AddCommand(transactionsListCmd())
	cmd.AddCommand(transactionsDeleteCmd())
	cmd.AddCommand(transactionsClearCmd())

	return cmd
}

func transactionsListCmd() *cobra.Command {
	var (
		limit    int
		from, to string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded payments",
		Long: `List the most recent payments, newest first, or every payment between
two dates (inclusive) with --from and --to.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			var txns []model.Transaction
			if from == "" && to == "" {
				txns, err = store.GetRecentTransactions(ctx, limit)
			} else {
				var start, end time.Time
				start, end, err = report.ParseDayRange(from, to, time.Local)
				if err != nil {
					return err
				}
				txns, err = store.GetTransactionsInRange(ctx, start, end)
			}
			if err != nil {
				return fmt.Errorf("failed to load transactions: %w", err)
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), txns)
			}
			renderTransactions(cmd.OutOrStdout(), txns)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", report.RecentLimit, "number of recent payments to show")
	cmd.Flags().StringVar(&from, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day to include (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func transactionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one recorded payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteTransaction(ctx, args[0]); err != nil {
				return common.NewUserError(cli.FormatError("Transaction "+args[0]+" could not be deleted"), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted transaction "+args[0]))
			return nil
		},
	}
}

func transactionsClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded payment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return common.NewUserError(cli.FormatWarning("This deletes all payment history. Re-run with --yes to confirm."), nil)
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteAllTransactions(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("All transactions deleted"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	return cmd
}

func renderTransactions(w io.Writer, txns []model.Transaction) {
	if len(txns) == 0 {
		fmt.Fprintln(w, cli.FormatInfo("No payments recorded"))
		return
	}

	total := decimal.Zero
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"When", "Amount", "From", "App", "ID"})
	for _, txn := range txns {
		total = total.Add(txn.Amount)
		tw.AppendRow(table.Row{
			txn.OccurredAt.Format("02 Jan 2006 15:04"),
			cli.Rupees(txn.Amount),
			txn.PayerName,
			model.DisplayName(txn.SourceID),
			txn.ID,
		})
	}
	tw.AppendFooter(table.Row{cli.Payments(len(txns)), cli.Rupees(total)})
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	tw.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
