package announce

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// restoreTimeout bounds the volume restore and wake-lock release.
const restoreTimeout = 5 * time.Second

// Utterance is one unit of speech handed to the synthesizer.
type Utterance struct {
	Text   string
	Locale string
	Rate   float64
}

// Synthesizer renders speech. Speak blocks until playback completes or fails.
type Synthesizer interface {
	Ready(ctx context.Context) error
	Speak(ctx context.Context, u Utterance) error
}

// VolumeControl reads and sets the level of the announcement output channel.
type VolumeControl interface {
	Volume(ctx context.Context) (int, error)
	MaxVolume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, level int) error
}

// WakeLock keeps the host awake while an announcement plays.
type WakeLock interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// State is a snapshot of the audio session.
type State struct {
	SavedVolume int
	Active      bool
	VolumeSaved bool
	LockHeld    bool
}

// Session is the exclusive audio output and wake resource. At most one
// Lease exists at a time.
type Session struct {
	volume VolumeControl
	wake   WakeLock
	logger *slog.Logger
	token  chan struct{}
	mu     sync.Mutex
	state  State
}

// NewSession creates a session. volume and wake may be nil when the host
// has no such control.
func NewSession(volume VolumeControl, wake WakeLock, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		volume: volume,
		wake:   wake,
		logger: logger.With("component", "audio_session"),
		token:  make(chan struct{}, 1),
	}
	s.token <- struct{}{}
	return s
}

// State returns the current session snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Acquire blocks until the session is free or ctx is done. A wake-lock
// failure is logged and does not prevent the lease.
func (s *Session) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case <-s.token:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	s.state = State{Active: true}
	s.mu.Unlock()

	if s.wake != nil {
		if err := s.wake.Acquire(ctx); err != nil {
			s.logger.Warn("Failed to acquire wake lock", "error", err)
		} else {
			s.setLockHeld(true)
		}
	}

	return &Lease{session: s}, nil
}

func (s *Session) setLockHeld(held bool) {
	s.mu.Lock()
	s.state.LockHeld = held
	s.mu.Unlock()
}

// Lease is the holder's handle on an acquired Session.
type Lease struct {
	session *Session
	once    sync.Once
}

// MaximizeVolume saves the current output level and raises it to the
// maximum. Failures are logged; the announcement still proceeds.
func (l *Lease) MaximizeVolume(ctx context.Context) {
	s := l.session
	if s.volume == nil {
		return
	}

	current, err := s.volume.Volume(ctx)
	if err != nil {
		s.logger.Warn("Failed to read volume", "error", err)
		return
	}

	s.mu.Lock()
	s.state.SavedVolume = current
	s.state.VolumeSaved = true
	s.mu.Unlock()

	maxLevel, err := s.volume.MaxVolume(ctx)
	if err != nil {
		s.logger.Warn("Failed to read maximum volume", "error", err)
		return
	}
	if err := s.volume.SetVolume(ctx, maxLevel); err != nil {
		s.logger.Warn("Failed to raise volume", "error", err, "target", maxLevel)
	}
}

// Release restores the saved volume, releases the wake lock and frees the
// session. It is safe to call more than once; errors are only logged.
func (l *Lease) Release() {
	l.once.Do(func() {
		s := l.session
		ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
		defer cancel()

		s.mu.Lock()
		state := s.state
		s.mu.Unlock()

		if state.VolumeSaved && s.volume != nil {
			s.guard("restore volume", func() error {
				return s.volume.SetVolume(ctx, state.SavedVolume)
			})
		}

		if state.LockHeld && s.wake != nil {
			s.guard("release wake lock", func() error {
				return s.wake.Release(ctx)
			})
		}

		s.mu.Lock()
		s.state = State{}
		s.mu.Unlock()

		s.token <- struct{}{}
	})
}

// guard runs one release step, logging its error or panic so that the
// remaining steps and the session hand-off always run.
func (s *Session) guard(step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Release step panicked", "step", step, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		s.logger.Error("Release step failed", "step", step, "error", err)
	}
}
