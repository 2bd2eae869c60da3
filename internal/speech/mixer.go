package speech

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// DefaultControl is the ALSA simple mixer control announcements play through.
const DefaultControl = "Master"

// ErrNoVolume indicates amixer output without a percentage reading.
var ErrNoVolume = errors.New("no volume level in mixer output")

var percentPattern = regexp.MustCompile(`\[(\d{1,3})%\]`)

// Mixer controls an ALSA mixer control through amixer, in percent.
type Mixer struct {
	run     Runner
	control string
}

// NewMixer returns a mixer for control.
func NewMixer(control string) *Mixer {
	if control == "" {
		control = DefaultControl
	}
	return &Mixer{control: control, run: ExecRunner}
}

// Volume returns the current level of the first channel.
func (m *Mixer) Volume(ctx context.Context) (int, error) {
	out, err := m.run(ctx, "amixer", "-M", "get", m.control)
	if err != nil {
		return 0, fmt.Errorf("read volume: %w", err)
	}
	return parsePercent(out)
}

// MaxVolume is always 100 percent.
func (m *Mixer) MaxVolume(context.Context) (int, error) {
	return 100, nil
}

// SetVolume sets every channel of the control to level percent.
func (m *Mixer) SetVolume(ctx context.Context, level int) error {
	level = max(0, min(level, 100))
	if _, err := m.run(ctx, "amixer", "-q", "-M", "set", m.control, strconv.Itoa(level)+"%"); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

func parsePercent(out []byte) (int, error) {
	match := percentPattern.FindSubmatch(out)
	if match == nil {
		return 0, ErrNoVolume
	}
	level, err := strconv.Atoi(string(match[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoVolume, err)
	}
	return level, nil
}
