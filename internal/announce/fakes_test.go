package announce

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/model"
)

type fakeSynth struct {
	speakFn   func(ctx context.Context, u Utterance) error
	readyErrs []error
	calls     []Utterance
	mu        sync.Mutex
	active    atomic.Int32
	maxActive atomic.Int32
	readyN    int
}

func (f *fakeSynth) Ready(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyN++
	if len(f.readyErrs) == 0 {
		return nil
	}
	err := f.readyErrs[0]
	if len(f.readyErrs) > 1 {
		f.readyErrs = f.readyErrs[1:]
	}
	return err
}

func (f *fakeSynth) Speak(ctx context.Context, u Utterance) error {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		current := f.maxActive.Load()
		if n <= current || f.maxActive.CompareAndSwap(current, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, u)
	fn := f.speakFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, u)
	}
	return nil
}

func (f *fakeSynth) Calls() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.calls...)
}

type fakeVolume struct {
	getErr   error
	sets     []int
	level    int
	max      int
	mu       sync.Mutex
	maxPanic bool
}

func newFakeVolume(level int) *fakeVolume {
	return &fakeVolume{level: level, max: 100}
}

func (f *fakeVolume) Volume(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.level, nil
}

func (f *fakeVolume) MaxVolume(context.Context) (int, error) {
	if f.maxPanic {
		panic("mixer exploded")
	}
	return f.max, nil
}

func (f *fakeVolume) SetVolume(_ context.Context, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = level
	f.sets = append(f.sets, level)
	return nil
}

func (f *fakeVolume) Level() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

func (f *fakeVolume) Sets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.sets...)
}

type fakeWake struct {
	acquireErr error
	acquired   atomic.Int32
	released   atomic.Int32
}

func (f *fakeWake) Acquire(context.Context) error {
	if f.acquireErr != nil {
		return f.acquireErr
	}
	f.acquired.Add(1)
	return nil
}

func (f *fakeWake) Release(context.Context) error {
	f.released.Add(1)
	return nil
}

type staticSettings struct {
	err      error
	settings model.Settings
}

func (s staticSettings) Settings(context.Context) (model.Settings, error) {
	return s.settings, s.err
}

var errEngineDown = fmt.Errorf("engine down: %w", common.ErrEngineNotReady)

// fixedClock returns a clock pinned to the given wall time.
func fixedClock(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, 3, 15, hour, minute, 0, 0, time.Local)
	}
}
