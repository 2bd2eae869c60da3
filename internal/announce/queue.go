// Package announce serializes spoken payment announcements over an exclusive
// audio session.
package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/schedule"
	"github.com/shintopc/UPI-voice-alert/internal/service"
)

// DefaultTimeout bounds how long a single synthesis may run.
const DefaultTimeout = 30 * time.Second

// speakGrace is how long a timed out synthesis gets to exit before the
// session is released anyway.
const speakGrace = 2 * time.Second

// ErrAlreadyRunning is returned when Run is called on a queue with an active worker.
var ErrAlreadyRunning = errors.New("announcement queue already running")

// QueueConfig configures a Queue. Zero values select defaults.
type QueueConfig struct {
	Settings  service.SettingsProvider
	Logger    *slog.Logger
	Now       func() time.Time
	Readiness service.RetryOptions
	Timeout   time.Duration
}

// Queue processes announcements one at a time in submission order.
type Queue struct {
	session   *Session
	synth     Synthesizer
	settings  service.SettingsProvider
	logger    *slog.Logger
	now       func() time.Time
	notify    chan struct{}
	pending   []Request
	readiness service.RetryOptions
	timeout   time.Duration
	grace     time.Duration
	mu        sync.Mutex
	running   atomic.Bool
	ready     atomic.Bool
	closed    bool
}

// NewQueue creates a queue that speaks through synth while holding session.
func NewQueue(session *Session, synth Synthesizer, cfg QueueConfig) *Queue {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Readiness.MaxAttempts <= 0 {
		cfg.Readiness = service.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		}
	}

	return &Queue{
		session:   session,
		synth:     synth,
		settings:  cfg.Settings,
		logger:    cfg.Logger.With("component", "announce_queue"),
		now:       cfg.Now,
		timeout:   cfg.Timeout,
		grace:     speakGrace,
		readiness: cfg.Readiness,
		notify:    make(chan struct{}, 1),
	}
}

// Enqueue appends req without blocking. It fails only after the worker has
// shut down.
func (q *Queue) Enqueue(req Request) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return common.ErrQueueClosed
	}
	q.pending = append(q.pending, req)
	depth := len(q.pending)
	q.mu.Unlock()

	queueDepth.Set(float64(depth))

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of requests waiting for the worker.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Ready reports whether the speech engine has come up.
func (q *Queue) Ready() bool {
	return q.ready.Load()
}

// Run is the single worker. It waits for the engine, then processes
// requests until ctx is canceled. An announcement in progress always runs
// to its release; requests still pending at shutdown are dropped.
func (q *Queue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer q.running.Store(false)
	defer q.shutdown()

	err := common.WithRetry(ctx, func() error {
		return q.synth.Ready(ctx)
	}, q.readiness)
	switch {
	case err == nil:
		q.setReady(true)
	case ctx.Err() != nil:
		return nil
	default:
		common.LogError(err, "Speech engine failed to initialize", common.Fields{"component": "announce_queue"})
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		req, ok := q.next()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-q.notify:
			}
			continue
		}

		q.process(ctx, req)
	}
}

func (q *Queue) next() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Request{}, false
	}
	req := q.pending[0]
	q.pending[0] = Request{}
	q.pending = q.pending[1:]
	queueDepth.Set(float64(len(q.pending)))
	return req, true
}

func (q *Queue) shutdown() {
	q.mu.Lock()
	q.closed = true
	dropped := q.pending
	q.pending = nil
	q.mu.Unlock()

	queueDepth.Set(0)
	if len(dropped) > 0 {
		q.logger.Warn("Dropping pending announcements on shutdown", "count", len(dropped))
	}
	for _, req := range dropped {
		announcementsTotal.WithLabelValues(string(ResultDropped)).Inc()
		q.complete(req, ResultDropped)
	}
}

func (q *Queue) setReady(ready bool) {
	q.ready.Store(ready)
	if ready {
		engineReady.Set(1)
	} else {
		engineReady.Set(0)
	}
}

// process handles one request from acquisition to release. It never
// returns early without releasing the session and never panics.
func (q *Queue) process(parent context.Context, req Request) {
	ctx := context.WithoutCancel(parent)
	result := ResultFailed
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Announcement panicked", "panic", r)
			result = ResultFailed
		}
		announcementDuration.Observe(time.Since(start).Seconds())
		announcementsTotal.WithLabelValues(string(result)).Inc()
		q.complete(req, result)
	}()

	lease, err := q.session.Acquire(ctx)
	if err != nil {
		q.logger.Error("Failed to acquire audio session", "error", err)
		return
	}
	defer lease.Release()

	utterance := req.Utterance()

	settings := q.currentSettings(ctx)
	if !settings.VoiceEnabled {
		q.logger.Debug("Voice disabled, skipping announcement")
		result = ResultVoiceDisabled
		return
	}
	if schedule.IsMutedAt(settings.Mute, q.now()) {
		q.logger.Debug("Muted by schedule, skipping announcement",
			"mute_start", schedule.FormatClock(settings.Mute.StartMinute),
			"mute_end", schedule.FormatClock(settings.Mute.EndMinute))
		result = ResultMuted
		return
	}

	if !q.ensureReady(ctx) {
		q.logger.Warn("Speech engine not ready, dropping announcement")
		result = ResultDropped
		return
	}

	lease.MaximizeVolume(ctx)

	if err := q.speak(ctx, utterance); err != nil {
		if errors.Is(err, common.ErrSynthesisTimeout) {
			q.logger.Warn("Speech synthesis timed out", "timeout", q.timeout)
			result = ResultTimedOut
			return
		}
		q.logger.Error("Speech synthesis failed", "error", err)
		result = ResultFailed
		return
	}

	q.logger.Info("Announced", "locale", utterance.Locale, "rate", utterance.Rate, "raw", req.IsRaw())
	result = ResultSpoken
}

func (q *Queue) currentSettings(ctx context.Context) model.Settings {
	if q.settings == nil {
		return model.DefaultSettings()
	}
	settings, err := q.settings.Settings(ctx)
	if err != nil {
		// Invalid keys keep their last valid values; the rest still apply.
		q.logger.Warn("Settings contain invalid values", "error", err)
	}
	return settings
}

// ensureReady makes one more readiness attempt when startup retries failed.
func (q *Queue) ensureReady(ctx context.Context) bool {
	if q.ready.Load() {
		return true
	}
	if err := q.synth.Ready(ctx); err != nil {
		q.logger.Debug("Speech engine still unavailable", "error", err)
		return false
	}
	q.setReady(true)
	return true
}

// speak waits for exactly one of completion, failure or timeout.
func (q *Queue) speak(ctx context.Context, u Utterance) error {
	speakCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("synthesizer panic: %v", r)
			}
		}()
		done <- q.synth.Speak(speakCtx, u)
	}()

	select {
	case err := <-done:
		return err
	case <-speakCtx.Done():
	}

	// The engine was told to stop; give it a moment so the session is not
	// released while it still holds the speaker.
	select {
	case <-done:
	case <-time.After(q.grace):
		q.logger.Warn("Synthesizer still running after timeout", "grace", q.grace)
	}
	return fmt.Errorf("%w after %s", common.ErrSynthesisTimeout, q.timeout)
}

func (q *Queue) complete(req Request, result Result) {
	if req.OnDone == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Completion callback panicked", "panic", r)
		}
	}()
	req.OnDone(result)
}
