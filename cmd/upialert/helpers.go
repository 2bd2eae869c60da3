package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/classification"
	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/config"
	"github.com/shintopc/UPI-voice-alert/internal/ingest"
	"github.com/shintopc/UPI-voice-alert/internal/service"
	"github.com/shintopc/UPI-voice-alert/internal/speech"
	"github.com/shintopc/UPI-voice-alert/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens the record store with path expansion and runs migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.ExpandPath(viper.GetString(config.KeyDatabasePath))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// buildClassifier uses the configured rules file, or the built-in rules.
func buildClassifier() (*classification.Classifier, error) {
	path := viper.GetString(config.KeyRulesFile)
	if path == "" {
		return classification.MustDefault(), nil
	}

	rules, err := classification.LoadRules(config.ExpandPath(path))
	if err != nil {
		return nil, common.NewUserError("Classifier rules could not be loaded", err)
	}
	slog.Debug("Loaded classifier rules", "path", path)
	return classification.NewClassifier(rules)
}

// buildQueue wires the announcement queue to espeak-ng, ALSA and systemd-inhibit.
func buildQueue(settings service.SettingsProvider) *announce.Queue {
	var wake announce.WakeLock
	if viper.GetBool(config.KeyAudioWakeLock) {
		wake = speech.NewInhibitor("upialert")
	}

	session := announce.NewSession(
		speech.NewMixer(viper.GetString(config.KeyAudioControl)),
		wake,
		common.Component("audio_session"),
	)

	return announce.NewQueue(session, speech.NewEspeak(viper.GetString(config.KeyAnnounceEngine)), announce.QueueConfig{
		Settings: settings,
		Logger:   common.Component("announce_queue"),
		Timeout:  viper.GetDuration(config.KeyAnnounceTimeout),
	})
}

// buildPipeline wires the ingestion pipeline over store and announcer.
func buildPipeline(store service.RecordStore, announcer ingest.Announcer, settings *config.Settings) (*ingest.Pipeline, error) {
	classifier, err := buildClassifier()
	if err != nil {
		return nil, err
	}

	return ingest.NewPipeline(ingest.Config{
		Classifier: classifier,
		Store:      store,
		Announcer:  announcer,
		Settings:   settings,
		Logger:     slog.Default(),
		Sources:    settings.Sources(),
		SelfID:     settings.AppID(),
	})
}

// runQueue starts q in the background and returns a function that stops it
// and waits for the worker to exit.
func runQueue(ctx context.Context, q *announce.Queue) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := q.Run(ctx); err != nil {
			slog.Error("Announcement queue stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
