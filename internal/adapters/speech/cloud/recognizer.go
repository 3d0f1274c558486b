package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

const (
	defaultLanguage      = "pl"
	transcriptionTimeout = time.Minute
)

type recordFunc func(ctx context.Context, path string) error

// Recognizer records from the default microphone until the listen context ends, then
// transcribes the recording with Whisper and emits one final transcript.
type Recognizer struct {
	client   *openai.Client
	language string
	record   recordFunc
	probe    func() error
	logger   *slog.Logger
}

var _ ports.Recognizer = (*Recognizer)(nil)

func NewRecognizer(cfg Config, logger *slog.Logger) (*Recognizer, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	language := cfg.Language
	if language == "" {
		language = defaultLanguage
	}
	return &Recognizer{
		client:   client,
		language: language,
		record:   recordMicrophone,
		probe:    probeRecorder,
		logger:   logger,
	}, nil
}

func (r *Recognizer) Listen(ctx context.Context) (<-chan domain.Transcript, error) {
	if r.probe != nil {
		if err := r.probe(); err != nil {
			return nil, err
		}
	}
	dir, err := os.MkdirTemp("", "freeflow-listen-*")
	if err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}
	path := filepath.Join(dir, "utterance.wav")

	out := make(chan domain.Transcript, 1)
	go func() {
		defer close(out)
		defer func() { _ = os.RemoveAll(dir) }()

		if err := r.record(ctx, path); err != nil && ctx.Err() == nil {
			r.logger.Warn("recording failed", "error", err)
			return
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			r.logger.Debug("nothing recorded")
			return
		}

		transcribeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), transcriptionTimeout)
		defer cancel()
		resp, err := r.client.CreateTranscription(transcribeCtx, openai.AudioRequest{
			Model:    openai.Whisper1,
			FilePath: path,
			Language: r.language,
		})
		if err != nil {
			r.logger.Warn("transcription failed", "error", err)
			return
		}
		if text := strings.TrimSpace(resp.Text); text != "" {
			out <- domain.Transcript{Text: text, Final: true}
		}
	}()
	return out, nil
}

// recordMicrophone runs arecord or sox rec. Cancellation sends SIGINT so the recorder can
// finish the wav header.
func recordMicrophone(ctx context.Context, path string) error {
	name, args, err := recorderCommand(path)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 2 * time.Second
	err = cmd.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func probeRecorder() error {
	_, _, err := recorderCommand("")
	return err
}

func recorderCommand(path string) (string, []string, error) {
	if found, err := exec.LookPath("arecord"); err == nil {
		return found, []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", path}, nil
	}
	if found, err := exec.LookPath("rec"); err == nil {
		return found, []string{"-q", "-r", "16000", "-c", "1", path}, nil
	}
	return "", nil, errors.Join(domain.ErrEngineUnavailable, errors.New("no recorder installed (arecord or rec)"))
}
