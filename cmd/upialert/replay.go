package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/schollz/progressbar/v3"
	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/cli"
	"github.com/shintopc/UPI-voice-alert/internal/config"
	"github.com/shintopc/UPI-voice-alert/internal/ingest"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/service"
	"github.com/shintopc/UPI-voice-alert/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// maxEventLine bounds one JSON line in a replay file.
const maxEventLine = 1 << 20

// silentAnnouncer collects announcement requests instead of speaking them.
type silentAnnouncer struct {
	requests []announce.Request
	mu       sync.Mutex
}

func (a *silentAnnouncer) Enqueue(req announce.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	return nil
}

func replayCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Feed recorded notifications through the pipeline",
		Long: `Replay a file of notification events, one JSON object per line:

  {"source_id": "com.phonepe.app", "title": "...", "body": "..."}

Accepted payments are recorded but never spoken. With --dry-run they are
kept in a throwaway in-memory database instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open events file: %w", err)
			}
			defer func() { _ = f.Close() }()

			events, err := readEvents(f)
			if err != nil {
				return err
			}

			var store service.Storage
			if dryRun {
				mem, err := storage.NewSQLiteStorage(":memory:")
				if err != nil {
					return err
				}
				if err := mem.Migrate(ctx); err != nil {
					_ = mem.Close()
					return err
				}
				store = mem
			} else {
				store, err = initStorage(ctx)
				if err != nil {
					return fmt.Errorf("failed to initialize storage: %w", err)
				}
			}
			defer func() { _ = store.Close() }()

			announcer := &silentAnnouncer{}
			pipeline, err := buildPipeline(store, announcer, config.NewSettings(nil))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			bar := progressbar.NewOptions(len(events),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Replaying notifications...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					if _, err := fmt.Fprintln(cmd.ErrOrStderr()); err != nil {
						slog.Warn("Failed to write newline after progress bar", "error", err)
					}
				}),
			)

			counts := make(map[ingest.Status]int)
			total := decimal.Zero
			for _, event := range events {
				if ctx.Err() != nil {
					fmt.Fprintln(out, cli.FormatWarning("Replay interrupted"))
					break
				}
				outcome := pipeline.Handle(ctx, event)
				counts[outcome.Status]++
				if outcome.Recorded() {
					total = total.Add(outcome.Transaction.Amount)
				}
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}

			renderReplay(out, counts, total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not write to the configured database")

	return cmd
}

// readEvents parses one notification event per non-blank line.
func readEvents(r io.Reader) ([]model.NotificationEvent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEventLine)

	var events []model.NotificationEvent
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var event model.NotificationEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func renderReplay(w io.Writer, counts map[ingest.Status]int, total decimal.Decimal) {
	statuses := make([]ingest.Status, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Outcome", "Events"})
	for _, status := range statuses {
		tw.AppendRow(table.Row{string(status), counts[status]})
	}
	tw.AppendFooter(table.Row{"Recorded", cli.Rupees(total)})
	tw.Style().Format.Footer = text.FormatDefault
	tw.Render()
}
