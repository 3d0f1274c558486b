package native

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

type recordedRun struct {
	path string
	args []string
}

func newTestSynthesizer(installed map[string]string, run runFunc) *Synthesizer {
	return &Synthesizer{
		engines: DefaultEngines,
		lookPath: func(name string) (string, error) {
			if path, ok := installed[name]; ok {
				return path, nil
			}
			return "", exec.ErrNotFound
		},
		run: run,
	}
}

func TestSpeakUsesFirstInstalledEngine(t *testing.T) {
	t.Parallel()

	var runs []recordedRun
	synth := newTestSynthesizer(map[string]string{"espeak": "/usr/bin/espeak", "say": "/usr/bin/say"}, func(ctx context.Context, path string, args ...string) (string, error) {
		runs = append(runs, recordedRun{path: path, args: args})
		return "", nil
	})

	err := synth.Speak(context.Background(), " Dzień dobry ", domain.VoiceOptions{Rate: 1.2, Pitch: 1, Voice: "pl"})
	require.NoError(t, err)
	assert.Equal(t, []recordedRun{{
		path: "/usr/bin/espeak",
		args: []string{"-s", "210", "-p", "50", "-v", "pl", "--", "Dzień dobry"},
	}}, runs)
}

func TestEngineArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		engine string
		opts   domain.VoiceOptions
		want   []string
	}{
		{name: "defaults", engine: "espeak-ng", want: []string{"--", "hej"}},
		{name: "say ignores pitch", engine: "say", opts: domain.VoiceOptions{Rate: 1, Pitch: 2, Voice: "Zosia"}, want: []string{"-r", "175", "-v", "Zosia", "hej"}},
		{name: "pitch is capped", engine: "espeak-ng", opts: domain.VoiceOptions{Pitch: 3}, want: []string{"-p", "99", "--", "hej"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, engineArgs(tt.engine, "hej", tt.opts))
		})
	}
}

func TestSpeakWithoutEngine(t *testing.T) {
	t.Parallel()

	synth := newTestSynthesizer(nil, func(ctx context.Context, path string, args ...string) (string, error) {
		t.Error("unexpected run")
		return "", nil
	})

	assert.False(t, synth.Available())
	err := synth.Speak(context.Background(), "hej", domain.VoiceOptions{})
	require.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestSpeakReportsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	synth := newTestSynthesizer(map[string]string{"espeak-ng": "/usr/bin/espeak-ng"}, func(ctx context.Context, path string, args ...string) (string, error) {
		cancel()
		return "", errors.New("signal: killed")
	})

	err := synth.Speak(ctx, "hej", domain.VoiceOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSpeakWrapsEngineFailure(t *testing.T) {
	t.Parallel()

	synth := newTestSynthesizer(map[string]string{"espeak-ng": "/usr/bin/espeak-ng"}, func(ctx context.Context, path string, args ...string) (string, error) {
		return "unknown voice\n", errors.New("exit status 1")
	})

	err := synth.Speak(context.Background(), "hej", domain.VoiceOptions{Voice: "xx"})
	require.EqualError(t, err, "espeak-ng: exit status 1: unknown voice")
}

func TestSpeakSkipsBlankText(t *testing.T) {
	t.Parallel()

	synth := newTestSynthesizer(nil, nil)
	require.NoError(t, synth.Speak(context.Background(), "  ", domain.VoiceOptions{}))
}
