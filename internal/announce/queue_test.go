package announce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/config"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	synth  *fakeSynth
	volume *fakeVolume
	wake   *fakeWake
	queue  *Queue
}

func newHarness(t *testing.T, cfg QueueConfig) *harness {
	t.Helper()
	h := &harness{
		synth:  &fakeSynth{},
		volume: newFakeVolume(30),
		wake:   &fakeWake{},
	}
	if cfg.Settings == nil {
		cfg.Settings = staticSettings{settings: model.DefaultSettings()}
	}
	if cfg.Readiness.MaxAttempts == 0 {
		cfg.Readiness = service.RetryOptions{MaxAttempts: 1, InitialDelay: time.Millisecond}
	}
	h.queue = NewQueue(NewSession(h.volume, h.wake, nil), h.synth, cfg)
	return h
}

// start runs the worker until the test ends.
func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.queue.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// enqueue submits req and returns a channel receiving its result.
func (h *harness) enqueue(t *testing.T, req Request) <-chan Result {
	t.Helper()
	results := make(chan Result, 1)
	req.OnDone = func(r Result) { results <- r }
	require.NoError(t, h.queue.Enqueue(req))
	return results
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for announcement")
		return ""
	}
}

func payment(amount int64) Request {
	return PaymentRequest(decimal.NewFromInt(amount), "Jane", model.LanguageEnglish, 1.0)
}

func TestQueue_SerializesConcurrentRequests(t *testing.T) {
	h := newHarness(t, QueueConfig{})
	h.synth.speakFn = func(context.Context, Utterance) error {
		time.Sleep(2 * time.Millisecond)
		return nil
	}
	h.start(t)

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Result
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			req := payment(int64(100 + i))
			req.OnDone = func(r Result) {
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				wg.Done()
			}
			assert.NoError(t, h.queue.Enqueue(req))
		}(i)
	}
	wg.Wait()

	assert.Len(t, h.synth.Calls(), n)
	assert.Equal(t, int32(1), h.synth.maxActive.Load())
	for _, r := range results {
		assert.Equal(t, ResultSpoken, r)
	}
	assert.Equal(t, 30, h.volume.Level())
	assert.Equal(t, int32(n), h.wake.acquired.Load())
	assert.Equal(t, int32(n), h.wake.released.Load())
	assert.Equal(t, State{}, h.queue.session.State())
}

func TestQueue_ProcessesInSubmissionOrder(t *testing.T) {
	h := newHarness(t, QueueConfig{})

	var last <-chan Result
	for i := 1; i <= 5; i++ {
		last = h.enqueue(t, MessageRequest(fmt.Sprintf("message %d", i), model.LanguageEnglish, 1.0))
	}
	assert.Equal(t, 5, h.queue.Pending())

	h.start(t)
	assert.Equal(t, ResultSpoken, waitResult(t, last))

	calls := h.synth.Calls()
	require.Len(t, calls, 5)
	for i, call := range calls {
		assert.Equal(t, fmt.Sprintf("message %d", i+1), call.Text)
	}
}

func TestQueue_SpeaksLocalizedPayment(t *testing.T) {
	h := newHarness(t, QueueConfig{})
	h.start(t)

	req := PaymentRequest(decimal.RequireFromString("500.50"), "Jane", model.LanguageEnglish, 1.0)
	assert.Equal(t, ResultSpoken, waitResult(t, h.enqueue(t, req)))

	calls := h.synth.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, Utterance{Text: "Received ₹500.5 from Jane", Locale: "en-IN", Rate: 1.0}, calls[0])
	assert.Equal(t, []int{100, 30}, h.volume.Sets())
}

func TestQueue_SkipsWhenMutedOrDisabled(t *testing.T) {
	muted := model.DefaultSettings()
	muted.Mute = model.MuteSchedule{Enabled: true, StartMinute: 22 * 60, EndMinute: 6 * 60}

	disabled := model.DefaultSettings()
	disabled.VoiceEnabled = false

	tests := []struct {
		name     string
		settings model.Settings
		hour     int
		want     Result
	}{
		{name: "inside overnight window", settings: muted, hour: 23, want: ResultMuted},
		{name: "early morning still muted", settings: muted, hour: 5, want: ResultMuted},
		{name: "outside window speaks", settings: muted, hour: 10, want: ResultSpoken},
		{name: "voice disabled", settings: disabled, hour: 10, want: ResultVoiceDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, QueueConfig{
				Settings: staticSettings{settings: tt.settings},
				Now:      fixedClock(tt.hour, 0),
			})
			h.start(t)

			assert.Equal(t, tt.want, waitResult(t, h.enqueue(t, payment(500))))

			if tt.want == ResultSpoken {
				assert.Len(t, h.synth.Calls(), 1)
			} else {
				assert.Empty(t, h.synth.Calls())
				assert.Empty(t, h.volume.Sets())
			}
			assert.Equal(t, h.wake.acquired.Load(), h.wake.released.Load())
			assert.Equal(t, State{}, h.queue.session.State())
		})
	}
}

func TestQueue_InvalidSettingKeepsVoiceSwitch(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set(config.KeyVoiceEnabled, false)
	v.Set(config.KeyVoiceSpeed, 3.0)

	h := newHarness(t, QueueConfig{Settings: config.NewSettings(v)})
	h.start(t)

	assert.Equal(t, ResultVoiceDisabled, waitResult(t, h.enqueue(t, payment(500))))
	assert.Empty(t, h.synth.Calls())
}

func TestQueue_SettingsErrorUsesReturnedSettings(t *testing.T) {
	quiet := model.DefaultSettings()
	quiet.Mute = model.MuteSchedule{Enabled: true, StartMinute: 0, EndMinute: 23*60 + 59}

	h := newHarness(t, QueueConfig{
		Settings: staticSettings{settings: quiet, err: common.ErrInvalidConfig},
		Now:      fixedClock(12, 0),
	})
	h.start(t)

	assert.Equal(t, ResultMuted, waitResult(t, h.enqueue(t, payment(500))))
}

func TestQueue_TimeoutStillReleases(t *testing.T) {
	h := newHarness(t, QueueConfig{Timeout: 20 * time.Millisecond})
	h.queue.grace = 10 * time.Millisecond
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	h.synth.speakFn = func(context.Context, Utterance) error {
		<-block
		return nil
	}
	h.start(t)

	assert.Equal(t, ResultTimedOut, waitResult(t, h.enqueue(t, payment(500))))
	assert.Equal(t, 30, h.volume.Level())
	assert.Equal(t, int32(1), h.wake.released.Load())
	assert.Equal(t, State{}, h.queue.session.State())
}

func TestQueue_TimeoutWaitsForSlowEngineToExit(t *testing.T) {
	h := newHarness(t, QueueConfig{Timeout: 20 * time.Millisecond})
	h.synth.speakFn = func(context.Context, Utterance) error {
		// Ignores cancellation, like an engine that finishes its sentence.
		time.Sleep(100 * time.Millisecond)
		return nil
	}
	h.start(t)

	first := h.enqueue(t, payment(500))
	second := h.enqueue(t, payment(600))

	assert.Equal(t, ResultTimedOut, waitResult(t, first))
	assert.Equal(t, ResultTimedOut, waitResult(t, second))
	assert.Equal(t, int32(1), h.synth.maxActive.Load())
	assert.Equal(t, 30, h.volume.Level())
}

func TestQueue_PermanentEngineErrorIsNotRetried(t *testing.T) {
	h := newHarness(t, QueueConfig{
		Readiness: service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond},
	})
	noDevice := errors.New("no audio device")
	h.synth.readyErrs = []error{noDevice, noDevice, nil}
	result := h.enqueue(t, payment(500))
	h.start(t)

	// One attempt at startup and one when the request arrives.
	assert.Equal(t, ResultDropped, waitResult(t, result))
	assert.False(t, h.queue.Ready())
}

func TestQueue_SynthesisErrorStillReleases(t *testing.T) {
	h := newHarness(t, QueueConfig{})
	h.synth.speakFn = func(context.Context, Utterance) error {
		return errEngineDown
	}
	h.start(t)

	assert.Equal(t, ResultFailed, waitResult(t, h.enqueue(t, payment(500))))
	assert.Equal(t, 30, h.volume.Level())
	assert.Equal(t, State{}, h.queue.session.State())
}

func TestQueue_PanicsAreContained(t *testing.T) {
	t.Run("synthesizer panic", func(t *testing.T) {
		h := newHarness(t, QueueConfig{})
		h.synth.speakFn = func(context.Context, Utterance) error {
			panic("tts crashed")
		}
		h.start(t)

		assert.Equal(t, ResultFailed, waitResult(t, h.enqueue(t, payment(500))))
		assert.Equal(t, 30, h.volume.Level())
	})

	t.Run("volume control panic", func(t *testing.T) {
		h := newHarness(t, QueueConfig{})
		h.volume.maxPanic = true
		h.start(t)

		assert.Equal(t, ResultFailed, waitResult(t, h.enqueue(t, payment(500))))
		assert.Equal(t, int32(1), h.wake.released.Load())

		// The worker survives and the session is free again.
		h.volume.maxPanic = false
		assert.Equal(t, ResultSpoken, waitResult(t, h.enqueue(t, payment(600))))
	})

	t.Run("callback panic", func(t *testing.T) {
		h := newHarness(t, QueueConfig{})
		h.start(t)

		require.NoError(t, h.queue.Enqueue(Request{
			Message: "boom",
			OnDone:  func(Result) { panic("callback") },
		}))
		assert.Equal(t, ResultSpoken, waitResult(t, h.enqueue(t, payment(700))))
	})
}

func TestQueue_EngineNeverReadyDropsRequests(t *testing.T) {
	h := newHarness(t, QueueConfig{})
	h.synth.readyErrs = []error{errEngineDown}
	h.start(t)

	assert.Equal(t, ResultDropped, waitResult(t, h.enqueue(t, payment(500))))
	assert.Empty(t, h.synth.Calls())
	assert.False(t, h.queue.Ready())
	assert.Equal(t, int32(1), h.wake.released.Load())
	assert.Equal(t, State{}, h.queue.session.State())
}

func TestQueue_WaitsForEngineReadiness(t *testing.T) {
	h := newHarness(t, QueueConfig{
		Readiness: service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond},
	})
	h.synth.readyErrs = []error{errEngineDown, nil}
	result := h.enqueue(t, payment(500))
	h.start(t)

	assert.Equal(t, ResultSpoken, waitResult(t, result))
	assert.True(t, h.queue.Ready())
}

func TestQueue_EngineRecoversAfterStartup(t *testing.T) {
	h := newHarness(t, QueueConfig{})
	h.synth.readyErrs = []error{errEngineDown, errEngineDown, nil}
	h.start(t)

	assert.Equal(t, ResultDropped, waitResult(t, h.enqueue(t, payment(500))))
	assert.Equal(t, ResultSpoken, waitResult(t, h.enqueue(t, payment(600))))
}

func TestQueue_ShutdownDropsPendingAndCloses(t *testing.T) {
	h := newHarness(t, QueueConfig{})
	first := h.enqueue(t, payment(500))
	second := h.enqueue(t, payment(600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.queue.Run(ctx))

	assert.Equal(t, ResultDropped, waitResult(t, first))
	assert.Equal(t, ResultDropped, waitResult(t, second))
	assert.ErrorIs(t, h.queue.Enqueue(payment(700)), common.ErrQueueClosed)
	assert.Empty(t, h.synth.Calls())
}

func TestQueue_RunTwice(t *testing.T) {
	h := newHarness(t, QueueConfig{})
	h.start(t)

	require.Eventually(t, func() bool { return h.queue.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, h.queue.Run(context.Background()), ErrAlreadyRunning)
}
