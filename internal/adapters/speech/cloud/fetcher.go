package cloud

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

const maxSpeechBytes = 16 << 20

// Fetcher downloads synthesized speech as mp3.
type Fetcher struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

var _ ports.SpeechFetcher = (*Fetcher)(nil)

func NewFetcher(cfg Config) (*Fetcher, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	voice := openai.VoiceAlloy
	if cfg.Voice != "" {
		voice = openai.SpeechVoice(cfg.Voice)
	}
	return &Fetcher{client: client, voice: voice}, nil
}

func (f *Fetcher) Fetch(ctx context.Context, text string, opts domain.VoiceOptions) ([]byte, error) {
	voice := f.voice
	if opts.Voice != "" {
		voice = openai.SpeechVoice(opts.Voice)
	}
	speed := opts.Rate
	if speed > 0 {
		speed = min(max(speed, 0.25), 4)
	}

	resp, err := f.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer func() { _ = resp.Close() }()

	audio, err := io.ReadAll(io.LimitReader(resp, maxSpeechBytes))
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return audio, nil
}
