package main

import (
	"fmt"
	"strings"

	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/cli"
	"github.com/shintopc/UPI-voice-alert/internal/config"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func speakCmd() *cobra.Command {
	var (
		language string
		amount   string
		payer    string
	)

	cmd := &cobra.Command{
		Use:   "speak [message]",
		Short: "Test the voice by announcing a message or a sample payment",
		Long: `Speak a message through the same queue and audio session used for payments.
With --amount the localized payment announcement is spoken instead.

Quiet hours and the voice switch apply here too.`,
		Example: `  upialert speak "Testing one two three"
  upialert speak --amount 250 --payer "Ravi Kumar" --language Hindi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			settings := config.NewSettings(nil)
			current, err := settings.Settings(ctx)
			if err != nil {
				return err
			}

			lang := current.Language
			if language != "" {
				lang = model.ParseLanguage(language)
			}

			var req announce.Request
			switch {
			case amount != "":
				value, err := decimal.NewFromString(amount)
				if err != nil || !value.IsPositive() {
					return fmt.Errorf("invalid --amount %q", amount)
				}
				req = announce.PaymentRequest(value, payer, lang, current.SpeechRate)
			case len(args) > 0:
				req = announce.MessageRequest(strings.Join(args, " "), lang, current.SpeechRate)
			default:
				return fmt.Errorf("nothing to say: pass a message or --amount")
			}

			results := make(chan announce.Result, 1)
			req.OnDone = func(r announce.Result) { results <- r }

			queue := buildQueue(settings)
			stop := runQueue(ctx, queue)
			defer stop()

			if err := queue.Enqueue(req); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(cli.SpeakerIcon+" "+req.Text()))
			select {
			case result := <-results:
				return reportResult(cmd, result)
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "announcement language (default from voice.language)")
	cmd.Flags().StringVar(&amount, "amount", "", "announce a sample payment of this amount")
	cmd.Flags().StringVar(&payer, "payer", "", "payer name for --amount")

	return cmd
}

func reportResult(cmd *cobra.Command, result announce.Result) error {
	out := cmd.OutOrStdout()
	switch result {
	case announce.ResultSpoken:
		fmt.Fprintln(out, cli.FormatSuccess("Spoken"))
	case announce.ResultMuted:
		fmt.Fprintln(out, cli.FormatWarning(cli.MuteIcon+" Skipped: quiet hours are on"))
	case announce.ResultVoiceDisabled:
		fmt.Fprintln(out, cli.FormatWarning(cli.MuteIcon+" Skipped: voice alerts are disabled"))
	default:
		return fmt.Errorf("announcement %s", result)
	}
	return nil
}
