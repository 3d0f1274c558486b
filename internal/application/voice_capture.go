package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

type VoiceState struct {
	Listening  bool
	Transcript string
	Interim    string
	Error      string
}

// VoiceCapture turns a recognizer stream into listening state. It never touches playback.
type VoiceCapture struct {
	recognizer ports.Recognizer
	logger     *slog.Logger

	mu      sync.Mutex
	state   VoiceState
	cancel  context.CancelFunc
	done    chan struct{}
	onFinal func(text string)
}

func NewVoiceCapture(recognizer ports.Recognizer, logger *slog.Logger) *VoiceCapture {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoiceCapture{recognizer: recognizer, logger: logger}
}

// OnFinal registers fn to receive each final transcript segment.
func (v *VoiceCapture) OnFinal(fn func(text string)) {
	v.mu.Lock()
	v.onFinal = fn
	v.mu.Unlock()
}

// Start begins listening. Calling Start while already listening does nothing.
func (v *VoiceCapture) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state.Listening {
		return nil
	}
	if v.recognizer == nil {
		v.state.Error = domain.ErrEngineUnavailable.Error()
		return domain.ErrEngineUnavailable
	}

	if v.cancel != nil {
		v.cancel()
	}

	listenCtx, cancel := context.WithCancel(ctx)
	transcripts, err := v.recognizer.Listen(listenCtx)
	if err != nil {
		cancel()
		v.state.Error = err.Error()
		return fmt.Errorf("start recognizer: %w", err)
	}

	v.state.Listening = true
	v.state.Interim = ""
	v.state.Error = ""
	v.cancel = cancel
	v.done = make(chan struct{})
	go v.consume(transcripts, v.done)

	return nil
}

func (v *VoiceCapture) consume(transcripts <-chan domain.Transcript, done chan struct{}) {
	defer close(done)

	for transcript := range transcripts {
		text := strings.TrimSpace(transcript.Text)

		v.mu.Lock()
		if !transcript.Final {
			v.state.Interim = text
			v.mu.Unlock()
			continue
		}
		v.state.Interim = ""
		if text != "" {
			if v.state.Transcript != "" {
				v.state.Transcript += " "
			}
			v.state.Transcript += text
		}
		onFinal := v.onFinal
		v.mu.Unlock()

		if text != "" && onFinal != nil {
			onFinal(text)
		}
	}

	v.mu.Lock()
	v.state.Listening = false
	v.state.Interim = ""
	v.mu.Unlock()
	v.logger.Debug("voice capture finished")
}

// Stop ends listening and waits until the recognizer has delivered its last transcript.
func (v *VoiceCapture) Stop() {
	v.mu.Lock()
	cancel, done := v.cancel, v.done
	v.cancel, v.done = nil, nil
	v.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the recognizer stream ends on its own or ctx is done.
func (v *VoiceCapture) Wait(ctx context.Context) {
	v.mu.Lock()
	done := v.done
	v.mu.Unlock()

	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (v *VoiceCapture) State() VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Reset clears the collected transcript without affecting an active session.
func (v *VoiceCapture) Reset() {
	v.mu.Lock()
	v.state.Transcript = ""
	v.state.Interim = ""
	v.state.Error = ""
	v.mu.Unlock()
}
