// Package native speaks through a local command line synthesizer.
package native

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

// DefaultEngines is the lookup order when no engine is configured.
var DefaultEngines = []string{"espeak-ng", "espeak", "say"}

const baseWordsPerMinute = 175

type runFunc func(ctx context.Context, path string, args ...string) (stderr string, err error)

type Synthesizer struct {
	engines  []string
	lookPath func(string) (string, error)
	run      runFunc
}

var _ ports.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer(engines ...string) *Synthesizer {
	if len(engines) == 0 {
		engines = DefaultEngines
	}
	return &Synthesizer{engines: engines, lookPath: exec.LookPath, run: runEngine}
}

// Available reports whether any configured engine is installed.
func (s *Synthesizer) Available() bool {
	_, _, err := s.locate()
	return err == nil
}

// Speak blocks until the engine exits. Cancelling ctx kills the engine and returns ctx.Err().
func (s *Synthesizer) Speak(ctx context.Context, text string, opts domain.VoiceOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	name, path, err := s.locate()
	if err != nil {
		return err
	}

	stderr, err := s.run(ctx, path, engineArgs(name, text, opts)...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		if stderr = strings.TrimSpace(stderr); stderr != "" {
			return fmt.Errorf("%s: %w: %s", name, err, stderr)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *Synthesizer) locate() (string, string, error) {
	for _, name := range s.engines {
		path, err := s.lookPath(name)
		if err == nil {
			return name, path, nil
		}
		if !errors.Is(err, exec.ErrNotFound) {
			return "", "", fmt.Errorf("locate %s: %w", name, err)
		}
	}
	return "", "", fmt.Errorf("%w: none of %s installed", domain.ErrEngineUnavailable, strings.Join(s.engines, ", "))
}

func engineArgs(name string, text string, opts domain.VoiceOptions) []string {
	var args []string
	if opts.Rate > 0 {
		wpm := int(math.Round(baseWordsPerMinute * opts.Rate))
		switch name {
		case "say":
			args = append(args, "-r", strconv.Itoa(wpm))
		default:
			args = append(args, "-s", strconv.Itoa(wpm))
		}
	}
	if opts.Pitch > 0 && name != "say" {
		pitch := min(99, int(math.Round(50*opts.Pitch)))
		args = append(args, "-p", strconv.Itoa(pitch))
	}
	if opts.Voice != "" {
		args = append(args, "-v", opts.Voice)
	}
	if name != "say" {
		args = append(args, "--")
	}
	return append(args, text)
}

func runEngine(ctx context.Context, path string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}
