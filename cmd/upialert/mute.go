package main

import (
	"fmt"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/cli"
	"github.com/shintopc/UPI-voice-alert/internal/config"
	"github.com/shintopc/UPI-voice-alert/internal/schedule"
	"github.com/spf13/cobra"
)

func muteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mute",
		Short: "Show the quiet hours and whether announcements are muted now",
		Long: `Show the configured quiet hours. Change them in the config file:

  schedule:
    enabled: true
    mute_start: "22:00"
    mute_end: "06:00"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.NewSettings(nil).Settings(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			now := time.Now()
			mute := settings.Mute
			window := schedule.FormatClock(mute.StartMinute) + " to " + schedule.FormatClock(mute.EndMinute)

			switch {
			case !settings.VoiceEnabled:
				fmt.Fprintln(out, cli.FormatWarning(cli.MuteIcon+" Voice alerts are disabled"))
			case !mute.Enabled:
				fmt.Fprintln(out, cli.FormatInfo(cli.SpeakerIcon+" Quiet hours are off ("+window+" when enabled)"))
				return nil
			case schedule.IsMutedAt(mute, now):
				fmt.Fprintln(out, cli.FormatWarning(cli.MuteIcon+" Muted now, quiet hours "+window))
			default:
				fmt.Fprintln(out, cli.FormatSuccess(cli.SpeakerIcon+" Announcing now, quiet hours "+window))
			}

			if next, ok := schedule.NextChange(mute, schedule.MinuteOfDay(now)); ok {
				fmt.Fprintln(out, cli.SubtleStyle.Render("Next change at "+schedule.FormatClock(next)))
			}
			return nil
		},
	}
}
