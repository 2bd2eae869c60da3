package speech

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/common"
)

// DefaultEngine is the synthesizer binary used when none is configured.
const DefaultEngine = "espeak-ng"

// baseWordsPerMinute is the espeak-ng default speed that a rate of 1.0 maps to.
const baseWordsPerMinute = 175

// Espeak speaks utterances through the espeak-ng command line.
type Espeak struct {
	run    Runner
	lookup func(string) (string, error)
	binary string
}

// NewEspeak creates a synthesizer for binary, which may be a path or a name
// on PATH.
func NewEspeak(binary string) *Espeak {
	if binary == "" {
		binary = DefaultEngine
	}
	return &Espeak{
		binary: binary,
		run:    ExecRunner,
		lookup: exec.LookPath,
	}
}

// Ready checks that the engine is installed and responds.
func (e *Espeak) Ready(ctx context.Context) error {
	if _, err := e.lookup(e.binary); err != nil {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s not found: %w", common.ErrEngineNotReady, e.binary, err),
			Retryable: false,
		}
	}
	if _, err := e.run(ctx, e.binary, "--version"); err != nil {
		return fmt.Errorf("%w: %w", common.ErrEngineNotReady, err)
	}
	return nil
}

// Speak blocks until espeak-ng has finished playing u.
func (e *Espeak) Speak(ctx context.Context, u announce.Utterance) error {
	if _, err := e.run(ctx, e.binary, espeakArgs(u)...); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

func espeakArgs(u announce.Utterance) []string {
	return []string{
		"-v", espeakVoice(u.Locale),
		"-s", strconv.Itoa(wordsPerMinute(u.Rate)),
		"--", u.Text,
	}
}

// espeakVoice maps "ml-IN" to the espeak-ng voice "ml".
func espeakVoice(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	if lang == "" {
		return "en"
	}
	return strings.ToLower(lang)
}

func wordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1.0
	}
	return int(math.Round(baseWordsPerMinute * rate))
}
