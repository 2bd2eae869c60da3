package main

import (
	"fmt"

	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/cli"
	"github.com/shintopc/UPI-voice-alert/internal/config"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	var title, body string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show how a notification would be read",
		Long: `Run the classifier over a notification title and body without recording
or announcing anything. Useful when tuning a custom rules file.`,
		Example: `  upialert classify --title "Ravi Kumar paid you ₹250.00" --body "Paid to your bank account"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if title == "" && body == "" {
				return fmt.Errorf("pass --title and/or --body")
			}

			classifier, err := buildClassifier()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := classifier.Classify(title, body)
			if !result.Accepted {
				fmt.Fprintln(out, cli.FormatWarning("Rejected: not a confirmed incoming payment"))
				return nil
			}

			settings, err := config.NewSettings(nil).Settings(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess("Accepted"))
			fmt.Fprintf(out, "  Amount:  %s\n", cli.FormatAmount(result.Amount))
			fmt.Fprintf(out, "  Payer:   %s\n", result.PayerName)
			fmt.Fprintf(out, "  Spoken:  %s\n", announce.RenderMessage(settings.Language, result.Amount, result.PayerName))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "notification title")
	cmd.Flags().StringVar(&body, "body", "", "notification body")

	return cmd
}
