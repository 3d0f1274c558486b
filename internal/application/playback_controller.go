package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

var ErrPlaybackFailed = errors.New("playback failed")

const (
	chunkJitter         = 50 * time.Millisecond
	DefaultChunkPause   = 300 * time.Millisecond
	DefaultChunkMaxRune = 220
)

type PlaybackDeps struct {
	Synthesizer ports.Synthesizer
	Fetcher     ports.SpeechFetcher
	Player      ports.AudioPlayer
	Logger      *slog.Logger
	// Jitter returns the random offset added to every pause between chunks.
	Jitter func() time.Duration
}

type utterance struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type audioHandle struct {
	element   ports.AudioElement
	displaced chan struct{}
}

type asyncRequest struct {
	cancel context.CancelFunc
}

// PlaybackController keeps at most one output audible: either a native utterance or a
// loaded audio element. Every start operation tears the previous output down first.
type PlaybackController struct {
	synth   ports.Synthesizer
	fetcher ports.SpeechFetcher
	player  ports.AudioPlayer
	logger  *slog.Logger
	jitter  func() time.Duration

	// teardown serializes Stop so a second caller cannot start output while the first is
	// still waiting for an utterance to go silent.
	teardown sync.Mutex

	mu        sync.Mutex
	utterance *utterance
	audio     *audioHandle
	request   *asyncRequest
	stopped   chan struct{}
}

func NewPlaybackController(deps PlaybackDeps) *PlaybackController {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jitter := deps.Jitter
	if jitter == nil {
		jitter = randomJitter
	}

	return &PlaybackController{
		synth:   deps.Synthesizer,
		fetcher: deps.Fetcher,
		player:  deps.Player,
		logger:  logger,
		jitter:  jitter,
		stopped: make(chan struct{}),
	}
}

func randomJitter() time.Duration {
	return time.Duration(rand.Int64N(int64(2*chunkJitter)+1)) - chunkJitter
}

// Stop silences everything and aborts pending audio fetches. It is safe to call at any time.
func (c *PlaybackController) Stop() {
	c.halt(true)
}

// halt tears down the current output and returns the channel the next halt will close.
// Output started under that channel must not begin once it is closed.
func (c *PlaybackController) halt(cancelRequest bool) chan struct{} {
	c.teardown.Lock()
	defer c.teardown.Unlock()

	c.mu.Lock()
	current := c.utterance
	c.utterance = nil
	audio := c.audio
	c.audio = nil
	var request *asyncRequest
	if cancelRequest {
		request = c.request
		c.request = nil
	}
	close(c.stopped)
	c.stopped = make(chan struct{})
	next := c.stopped
	c.mu.Unlock()

	if current != nil {
		current.cancel()
		<-current.done
	}
	if audio != nil {
		close(audio.displaced)
		audio.element.Pause()
		audio.element.Rewind()
	}
	if request != nil {
		request.cancel()
	}
	return next
}

// Speak says text with the native synthesizer and blocks until it finishes. Interruption by
// Stop or ctx is not an error.
func (c *PlaybackController) Speak(ctx context.Context, text string, opts domain.VoiceOptions) error {
	stopped := c.halt(true)

	err := c.speakOne(ctx, text, opts, stopped)
	if errors.Is(err, domain.ErrSpeechInterrupted) {
		return nil
	}
	return err
}

// PlayChunked speaks chunks in order with a jittered pause between them. A concurrent Stop
// ends the loop and no later chunk starts.
func (c *PlaybackController) PlayChunked(ctx context.Context, chunks []string, opts domain.ChunkOptions) error {
	stopped := c.halt(true)

	for i, chunk := range chunks {
		if i > 0 {
			pause := opts.PauseBetweenChunks + c.jitter()
			if pause < 0 {
				pause = 0
			}
			timer := time.NewTimer(pause)
			select {
			case <-stopped:
				timer.Stop()
				return nil
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}

		err := c.speakOne(ctx, chunk, opts.VoiceOptions, stopped)
		if errors.Is(err, domain.ErrSpeechInterrupted) {
			return nil
		}
		if err != nil {
			return err
		}
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(chunks))
		}
	}
	return nil
}

func (c *PlaybackController) speakOne(ctx context.Context, text string, opts domain.VoiceOptions, stopped chan struct{}) error {
	if c.synth == nil {
		return domain.ErrEngineUnavailable
	}

	c.mu.Lock()
	if isClosed(stopped) {
		c.mu.Unlock()
		return domain.ErrSpeechInterrupted
	}
	speakCtx, cancel := context.WithCancel(ctx)
	current := &utterance{cancel: cancel, done: make(chan struct{})}
	c.utterance = current
	c.mu.Unlock()

	err := c.synth.Speak(speakCtx, text, opts)
	interrupted := speakCtx.Err() != nil
	close(current.done)
	cancel()

	c.mu.Lock()
	if c.utterance == current {
		c.utterance = nil
	}
	c.mu.Unlock()

	switch {
	case err == nil:
		return nil
	case interrupted || errors.Is(err, domain.ErrSpeechInterrupted):
		return domain.ErrSpeechInterrupted
	default:
		c.logger.Warn("speech synthesis failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	}
}

// RegisterAudio makes element the current output, silencing whatever played before. The
// reference is dropped once the element ends on its own.
func (c *PlaybackController) RegisterAudio(element ports.AudioElement) {
	_ = c.register(context.Background(), element)
}

func (c *PlaybackController) register(ctx context.Context, element ports.AudioElement) *audioHandle {
	stopped := c.halt(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || isClosed(stopped) {
		return nil
	}

	handle := &audioHandle{element: element, displaced: make(chan struct{})}
	c.audio = handle
	go c.watch(handle)
	return handle
}

func (c *PlaybackController) watch(handle *audioHandle) {
	select {
	case <-handle.element.Ended():
		c.mu.Lock()
		if c.audio == handle {
			c.audio = nil
		}
		c.mu.Unlock()
	case <-handle.displaced:
	}
}

// StartAsyncRequest stops playback and returns a context for fetching the next clip. The
// next Stop or start operation cancels it.
func (c *PlaybackController) StartAsyncRequest(ctx context.Context) context.Context {
	requestCtx, _ := c.startAsync(ctx)
	return requestCtx
}

func (c *PlaybackController) startAsync(ctx context.Context) (context.Context, *asyncRequest) {
	c.Stop()

	requestCtx, cancel := context.WithCancel(ctx)
	request := &asyncRequest{cancel: cancel}

	c.mu.Lock()
	c.request = request
	c.mu.Unlock()

	return requestCtx, request
}

func (c *PlaybackController) finishAsync(request *asyncRequest) {
	c.mu.Lock()
	if c.request == request {
		c.request = nil
	}
	c.mu.Unlock()
	request.cancel()
}

// SpeakCloud fetches a clip for text and plays it to the end.
func (c *PlaybackController) SpeakCloud(ctx context.Context, text string, opts domain.VoiceOptions) error {
	if c.fetcher == nil || c.player == nil {
		return domain.ErrEngineUnavailable
	}

	requestCtx, request := c.startAsync(ctx)
	defer c.finishAsync(request)

	audio, err := c.fetcher.Fetch(requestCtx, text, opts)
	if err != nil {
		if requestCtx.Err() != nil {
			c.logger.Debug("speech fetch aborted", "error", err)
			return nil
		}
		return fmt.Errorf("fetch speech: %w", err)
	}

	return c.playLoaded(requestCtx, audio)
}

// PlayAudio plays an already encoded clip, such as one returned by the brain.
func (c *PlaybackController) PlayAudio(ctx context.Context, audio []byte) error {
	if c.player == nil {
		return domain.ErrEngineUnavailable
	}

	requestCtx, request := c.startAsync(ctx)
	defer c.finishAsync(request)

	return c.playLoaded(requestCtx, audio)
}

func (c *PlaybackController) playLoaded(ctx context.Context, audio []byte) error {
	element, err := c.player.Load(ctx, audio)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("load audio: %w", err)
	}

	handle := c.register(ctx, element)
	if handle == nil {
		return nil
	}

	if err := c.playCurrent(handle); err != nil {
		c.release(handle)
		c.logger.Warn("audio playback failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	}

	select {
	case <-element.Ended():
	case <-handle.displaced:
	case <-ctx.Done():
		c.release(handle)
	}
	return nil
}

// playCurrent starts handle only while it is still current, so a Stop that already
// displaced it cannot be followed by sound.
func (c *PlaybackController) playCurrent(handle *audioHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audio != handle {
		return nil
	}
	return handle.element.Play()
}

// release silences handle if it is still the current output.
func (c *PlaybackController) release(handle *audioHandle) {
	c.mu.Lock()
	if c.audio != handle {
		c.mu.Unlock()
		return
	}
	c.audio = nil
	c.mu.Unlock()

	close(handle.displaced)
	handle.element.Pause()
	handle.element.Rewind()
}

// Active reports whether an utterance or an audio element is current.
func (c *PlaybackController) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.utterance != nil || c.audio != nil
}

// SplitIntoChunks breaks text at sentence ends, packing sentences into chunks of at most
// maxRunes runes. A single longer sentence is split at word boundaries.
func SplitIntoChunks(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultChunkMaxRune
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, sentence := range splitSentences(text) {
		for _, piece := range splitLong(sentence, maxRunes) {
			if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(piece) > maxRunes {
				flush()
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(piece)
		}
	}
	flush()

	return chunks
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' && r != '\n' {
			continue
		}
		if i+1 < len(runes) && !isSpace(runes[i+1]) {
			continue
		}
		if sentence := strings.TrimSpace(string(runes[start : i+1])); sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func splitLong(sentence string, maxRunes int) []string {
	if utf8.RuneCountInString(sentence) <= maxRunes {
		return []string{sentence}
	}

	var pieces []string
	var current strings.Builder
	for _, word := range strings.Fields(sentence) {
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(word) > maxRunes {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
