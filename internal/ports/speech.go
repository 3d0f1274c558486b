package ports

import (
	"context"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

// Synthesizer speaks text on the local device. Speak blocks until the utterance finishes
// and returns ctx.Err() when it was cut short by cancellation.
type Synthesizer interface {
	Speak(ctx context.Context, text string, opts domain.VoiceOptions) error
}

// SpeechFetcher retrieves an encoded audio clip for text from a remote service.
type SpeechFetcher interface {
	Fetch(ctx context.Context, text string, opts domain.VoiceOptions) ([]byte, error)
}

// AudioElement is one loaded clip. Ended is closed when playback reaches the end on its own.
type AudioElement interface {
	Play() error
	Pause()
	Rewind()
	Ended() <-chan struct{}
}

type AudioPlayer interface {
	Load(ctx context.Context, audio []byte) (AudioElement, error)
}

// Recognizer streams transcripts until ctx is cancelled, then closes the channel.
type Recognizer interface {
	Listen(ctx context.Context) (<-chan domain.Transcript, error)
}
