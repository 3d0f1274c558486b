package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

func newTestConfig(t *testing.T, handler http.HandlerFunc) Config {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return Config{APIKey: "sk-test", BaseURL: server.URL + "/v1", Timeout: 5 * time.Second}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewFetcher(Config{})
	require.EqualError(t, err, "openai api key is required")

	_, err = NewRecognizer(Config{APIKey: " "}, nil)
	require.EqualError(t, err, "openai api key is required")
}

func TestFetcherRequestsMP3Speech(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tts-1", body["model"])
		assert.Equal(t, "Dzień dobry", body["input"])
		assert.Equal(t, "nova", body["voice"])
		assert.Equal(t, "mp3", body["response_format"])
		assert.Equal(t, 4.0, body["speed"])

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-mp3-bytes"))
	})
	cfg.Voice = "nova"

	fetcher, err := NewFetcher(cfg)
	require.NoError(t, err)

	audio, err := fetcher.Fetch(context.Background(), "Dzień dobry", domain.VoiceOptions{Rate: 9})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-mp3-bytes"), audio)
}

func TestFetcherWrapsAPIErrors(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	fetcher, err := NewFetcher(cfg)
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), "hej", domain.VoiceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create speech")
}

func TestRecognizerTranscribesAfterRecordingStops(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "pl", r.FormValue("language"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("RIFF-wav"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" dwa razy pierogi "}`))
	})

	recognizer, err := NewRecognizer(cfg, discardLogger())
	require.NoError(t, err)
	recognizer.probe = nil
	recognizer.record = func(ctx context.Context, path string) error {
		require.NoError(t, os.WriteFile(path, []byte("RIFF-wav"), 0o600))
		<-ctx.Done()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	transcripts, err := recognizer.Listen(ctx)
	require.NoError(t, err)
	cancel()

	var got []domain.Transcript
	for transcript := range transcripts {
		got = append(got, transcript)
	}
	assert.Equal(t, []domain.Transcript{{Text: "dwa razy pierogi", Final: true}}, got)
}

func TestRecognizerSkipsEmptyRecording(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected transcription request")
	})

	recognizer, err := NewRecognizer(cfg, discardLogger())
	require.NoError(t, err)
	recognizer.probe = nil
	recognizer.record = func(ctx context.Context, path string) error {
		return nil
	}

	transcripts, err := recognizer.Listen(context.Background())
	require.NoError(t, err)
	_, open := <-transcripts
	assert.False(t, open)
}

func TestRecognizerReportsMissingRecorder(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, func(w http.ResponseWriter, r *http.Request) {})
	recognizer, err := NewRecognizer(cfg, discardLogger())
	require.NoError(t, err)
	recognizer.probe = func() error { return errors.Join(domain.ErrEngineUnavailable, errors.New("no recorder")) }

	_, err = recognizer.Listen(context.Background())
	require.ErrorIs(t, err, domain.ErrEngineUnavailable)
}
