package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shintopc/UPI-voice-alert/internal/cli"
	"github.com/shintopc/UPI-voice-alert/internal/report"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const chartWidth = 30

func reportCmd() *cobra.Command {
	var details bool

	periods := make([]string, 0, len(report.Periods))
	for _, p := range report.Periods {
		periods = append(periods, string(p))
	}

	cmd := &cobra.Command{
		Use:       "report [period]",
		Short:     "Summarize payments received over a period",
		Long:      "Summarize payments for one of: " + strings.Join(periods, ", ") + " (default today).",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: periods,
		RunE: func(cmd *cobra.Command, args []string) error {
			period := report.PeriodToday
			if len(args) == 1 {
				p, err := report.ParsePeriod(args[0])
				if err != nil {
					return err
				}
				period = p
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			summary, err := report.NewReporter(store).Period(ctx, period, time.Now())
			if err != nil {
				return err
			}

			renderSummary(cmd.OutOrStdout(), summary)
			if details {
				renderTransactions(cmd.OutOrStdout(), summary.Transactions)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "list every payment in the period")

	return cmd
}

func renderSummary(w io.Writer, s report.Summary) {
	header := fmt.Sprintf("%s  %s\n%s, average %s\n%s",
		cli.FormatAmount(s.Total),
		cli.SubtleStyle.Render("received"),
		cli.Payments(s.Count),
		cli.Rupees(s.Average()),
		cli.SubtleStyle.Render(s.Start.Format("02 Jan 2006")+" to "+s.End.Add(-time.Nanosecond).Format("02 Jan 2006")),
	)
	fmt.Fprintln(w, cli.RenderBox(cli.ChartIcon+" "+s.Title, header))

	if s.Count == 0 {
		return
	}

	peak := decimal.Zero
	for _, b := range s.Buckets {
		peak = decimal.Max(peak, b.Total)
	}

	chart := table.NewWriter()
	chart.SetOutputMirror(w)
	chart.SetStyle(table.StyleLight)
	chart.Style().Options.DrawBorder = false
	chart.Style().Options.SeparateColumns = false
	for _, b := range s.Buckets {
		if b.Count == 0 {
			continue
		}
		chart.AppendRow(table.Row{b.Label, cli.Bar(b.Total, peak, chartWidth), cli.Rupees(b.Total)})
	}
	chart.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	chart.Render()

	if len(s.TopPayers) == 0 {
		return
	}

	payers := table.NewWriter()
	payers.SetOutputMirror(w)
	payers.SetStyle(table.StyleRounded)
	payers.SetTitle("Top payers")
	payers.AppendHeader(table.Row{"Payer", "Payments", "Total"})
	for _, p := range s.TopPayers {
		payers.AppendRow(table.Row{p.PayerName, p.Count, cli.Rupees(p.Total)})
	}
	payers.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	payers.Render()
}
