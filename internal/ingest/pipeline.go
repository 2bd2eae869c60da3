// Package ingest turns payment notifications into recorded transactions and
// spoken announcements.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/service"
)

// Status describes what happened to one notification event.
type Status string

// Event statuses.
const (
	StatusIgnoredSelf       Status = "ignored_self"
	StatusUnsupportedSource Status = "unsupported_source"
	StatusRejected          Status = "rejected"
	StatusPersistFailed     Status = "persist_failed"
	StatusEnqueueFailed     Status = "enqueue_failed"
	StatusAnnounced         Status = "announced"
)

// Outcome reports the result of Handle. Transaction is set once the payment
// has been recorded.
type Outcome struct {
	Transaction *model.Transaction
	Status      Status
}

// Recorded reports whether a transaction was persisted.
func (o Outcome) Recorded() bool {
	return o.Transaction != nil
}

// Classifier decides whether notification text is an incoming payment.
type Classifier interface {
	Classify(title, body string) model.Classification
}

// Announcer accepts announcement requests without blocking.
type Announcer interface {
	Enqueue(req announce.Request) error
}

// Config wires a Pipeline.
type Config struct {
	Classifier Classifier
	Store      service.RecordStore
	Announcer  Announcer
	Settings   service.SettingsProvider
	Logger     *slog.Logger
	Now        func() time.Time
	Sources    model.SourceSet
	SelfID     string
}

// Pipeline filters, classifies, records and announces notifications. Handle
// is safe for concurrent use.
type Pipeline struct {
	classifier Classifier
	store      service.RecordStore
	announcer  Announcer
	settings   service.SettingsProvider
	logger     *slog.Logger
	now        func() time.Time
	sources    model.SourceSet
	selfID     string
}

// NewPipeline validates cfg and builds a pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Classifier == nil:
		return nil, fmt.Errorf("%w: classifier", common.ErrMissingConfig)
	case cfg.Store == nil:
		return nil, fmt.Errorf("%w: record store", common.ErrMissingConfig)
	case cfg.Announcer == nil:
		return nil, fmt.Errorf("%w: announcer", common.ErrMissingConfig)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sources == nil {
		cfg.Sources = model.NewSourceSet()
	}

	return &Pipeline{
		classifier: cfg.Classifier,
		store:      cfg.Store,
		announcer:  cfg.Announcer,
		settings:   cfg.Settings,
		logger:     cfg.Logger.With("component", "ingest"),
		now:        cfg.Now,
		sources:    cfg.Sources,
		selfID:     cfg.SelfID,
	}, nil
}

// Handle processes one notification. Failures are logged and reflected in
// the outcome; nothing is returned as an error.
func (p *Pipeline) Handle(ctx context.Context, event model.NotificationEvent) Outcome {
	outcome := p.handle(ctx, event)
	eventsTotal.WithLabelValues(string(outcome.Status)).Inc()
	return outcome
}

func (p *Pipeline) handle(ctx context.Context, event model.NotificationEvent) Outcome {
	if p.selfID != "" && event.SourceID == p.selfID {
		return Outcome{Status: StatusIgnoredSelf}
	}

	if !p.sources.Contains(event.SourceID) {
		p.logger.Debug("Ignoring notification from unsupported source", "source", event.SourceID)
		return Outcome{Status: StatusUnsupportedSource}
	}

	result := p.classifier.Classify(event.Title, event.Body)
	if !result.Accepted {
		p.logger.Debug("Notification is not an incoming payment", "source", event.SourceID)
		return Outcome{Status: StatusRejected}
	}

	txn := model.NewTransaction(result.Amount, event.SourceID, result.PayerName, result.Evidence, p.now())
	if err := p.store.InsertTransaction(ctx, &txn); err != nil {
		p.logger.Error("Failed to record transaction, skipping announcement",
			"error", err,
			"source", event.SourceID,
			"amount", txn.Amount.String())
		return Outcome{Status: StatusPersistFailed}
	}

	amountReceived.WithLabelValues(model.DisplayName(event.SourceID)).Add(txn.Amount.InexactFloat64())

	settings := p.currentSettings(ctx)
	req := announce.PaymentRequest(txn.Amount, txn.PayerName, settings.Language, settings.SpeechRate)
	if err := p.announcer.Enqueue(req); err != nil {
		p.logger.Error("Failed to queue announcement", "error", err, "transaction_id", txn.ID)
		return Outcome{Status: StatusEnqueueFailed, Transaction: &txn}
	}

	p.logger.Info("Payment received",
		"transaction_id", txn.ID,
		"source", model.DisplayName(event.SourceID),
		"amount", txn.Amount.String(),
		"payer", txn.PayerName)

	return Outcome{Status: StatusAnnounced, Transaction: &txn}
}

// currentSettings reads language and rate at enqueue time.
func (p *Pipeline) currentSettings(ctx context.Context) model.Settings {
	if p.settings == nil {
		return model.DefaultSettings()
	}
	settings, err := p.settings.Settings(ctx)
	if err != nil {
		// Invalid keys keep their last valid values; the rest still apply.
		p.logger.Warn("Settings contain invalid values", "error", err)
	}
	return settings
}
