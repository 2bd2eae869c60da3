package speech

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	args []string
}

// recorder returns a Runner that records calls and replies with out/err.
func recorder(out string, err error) (Runner, *[]recordedCall) {
	var calls []recordedCall
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, recordedCall{name: name, args: args})
		return []byte(out), err
	}, &calls
}

var (
	_ announce.Synthesizer   = (*Espeak)(nil)
	_ announce.VolumeControl = (*Mixer)(nil)
	_ announce.WakeLock      = (*Inhibitor)(nil)
)

func TestEspeak_Speak(t *testing.T) {
	run, calls := recorder("", nil)
	e := NewEspeak("")
	e.run = run

	err := e.Speak(context.Background(), announce.Utterance{
		Text:   "500രൂപ പേയ്‌മെന്റ് ചെയ്തിരിക്കുന്നു",
		Locale: "ml-IN",
		Rate:   0.8,
	})
	require.NoError(t, err)
	require.Len(t, *calls, 1)

	call := (*calls)[0]
	assert.Equal(t, DefaultEngine, call.name)
	assert.Equal(t, []string{"-v", "ml", "-s", "140", "--", "500രൂപ പേയ്‌മെന്റ് ചെയ്തിരിക്കുന്നു"}, call.args)
}

func TestEspeak_SpeakError(t *testing.T) {
	run, _ := recorder("", errors.New("exit status 1"))
	e := NewEspeak("espeak")
	e.run = run

	err := e.Speak(context.Background(), announce.Utterance{Text: "hi", Locale: "en-IN", Rate: 1})
	assert.ErrorContains(t, err, "exit status 1")
}

func TestEspeak_Ready(t *testing.T) {
	t.Run("missing binary is not retryable", func(t *testing.T) {
		e := NewEspeak("espeak-ng")
		e.lookup = func(string) (string, error) { return "", exec.ErrNotFound }

		err := e.Ready(context.Background())
		assert.ErrorIs(t, err, common.ErrEngineNotReady)
		var retryable *common.RetryableError
		require.ErrorAs(t, err, &retryable)
		assert.False(t, retryable.Retryable)
	})

	t.Run("version probe", func(t *testing.T) {
		run, calls := recorder("eSpeak NG text-to-speech: 1.51", nil)
		e := NewEspeak("espeak-ng")
		e.lookup = func(string) (string, error) { return "/usr/bin/espeak-ng", nil }
		e.run = run

		require.NoError(t, e.Ready(context.Background()))
		assert.Equal(t, []string{"--version"}, (*calls)[0].args)
	})

	t.Run("probe failure", func(t *testing.T) {
		run, _ := recorder("", errors.New("no audio device"))
		e := NewEspeak("espeak-ng")
		e.lookup = func(string) (string, error) { return "/usr/bin/espeak-ng", nil }
		e.run = run

		assert.ErrorIs(t, e.Ready(context.Background()), common.ErrEngineNotReady)
	})
}

func TestWordsPerMinute(t *testing.T) {
	assert.Equal(t, 175, wordsPerMinute(1.0))
	assert.Equal(t, 175, wordsPerMinute(0))
	assert.Equal(t, 263, wordsPerMinute(1.5))
	assert.Equal(t, "en", espeakVoice(""))
	assert.Equal(t, "hi", espeakVoice("hi-IN"))
}

const amixerOutput = `Simple mixer control 'Master',0
  Capabilities: pvolume pswitch pswitch-joined
  Playback channels: Front Left - Front Right
  Limits: Playback 0 - 65536
  Mono:
  Front Left: Playback 24904 [38%] [on]
  Front Right: Playback 24904 [38%] [on]
`

func TestMixer_Volume(t *testing.T) {
	run, calls := recorder(amixerOutput, nil)
	m := NewMixer("")
	m.run = run

	level, err := m.Volume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 38, level)
	assert.Equal(t, recordedCall{name: "amixer", args: []string{"-M", "get", "Master"}}, (*calls)[0])

	maxLevel, err := m.MaxVolume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, maxLevel)
}

func TestMixer_VolumeUnparseable(t *testing.T) {
	run, _ := recorder("Simple mixer control 'PCM',0\n", nil)
	m := NewMixer("PCM")
	m.run = run

	_, err := m.Volume(context.Background())
	assert.ErrorIs(t, err, ErrNoVolume)
}

func TestMixer_SetVolume(t *testing.T) {
	run, calls := recorder("", nil)
	m := NewMixer("Speaker")
	m.run = run

	require.NoError(t, m.SetVolume(context.Background(), 150))
	require.NoError(t, m.SetVolume(context.Background(), 42))

	assert.Equal(t, []string{"-q", "-M", "set", "Speaker", "100%"}, (*calls)[0].args)
	assert.Equal(t, []string{"-q", "-M", "set", "Speaker", "42%"}, (*calls)[1].args)
}

func held(i *Inhibitor) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cmd != nil
}

func TestInhibitor_AcquireRelease(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	i := &Inhibitor{binary: "sleep", args: []string{"30"}}
	ctx := context.Background()

	require.NoError(t, i.Acquire(ctx))
	assert.True(t, held(i))
	require.NoError(t, i.Acquire(ctx))

	require.NoError(t, i.Release(ctx))
	assert.False(t, held(i))
	require.NoError(t, i.Release(ctx))
}

func TestInhibitor_MissingBinary(t *testing.T) {
	i := &Inhibitor{binary: "definitely-not-a-real-binary-upialert"}

	assert.Error(t, i.Acquire(context.Background()))
	assert.False(t, held(i))
}
