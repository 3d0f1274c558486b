package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ndoemo02/Freeflow-Final/internal/adapters/backend"
	"github.com/ndoemo02/Freeflow-Final/internal/adapters/credentials"
	tomlrepo "github.com/ndoemo02/Freeflow-Final/internal/adapters/repo/toml"
	"github.com/ndoemo02/Freeflow-Final/internal/adapters/restaurants/supabase"
	redissession "github.com/ndoemo02/Freeflow-Final/internal/adapters/session/redis"
	"github.com/ndoemo02/Freeflow-Final/internal/adapters/speech/cloud"
	"github.com/ndoemo02/Freeflow-Final/internal/adapters/speech/native"
	"github.com/ndoemo02/Freeflow-Final/internal/adapters/speech/player"
	"github.com/ndoemo02/Freeflow-Final/internal/application"
	"github.com/ndoemo02/Freeflow-Final/internal/config"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
	"github.com/spf13/viper"
)

type app struct {
	cfg        config.Config
	viper      *viper.Viper
	logger     *slog.Logger
	tokens     *application.TokenService
	httpClient *http.Client
	now        func() time.Time
}

func wireApp() (*app, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v, err := config.NewViper("")
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}

	fileCredentials, err := tomlrepo.NewCredentialStore(v)
	if err != nil {
		return nil, fmt.Errorf("wire credential file: %w", err)
	}
	secretStore, err := credentials.NewDefaultChain(fileCredentials)
	if err != nil {
		return nil, fmt.Errorf("wire credential chain: %w", err)
	}

	return &app{
		cfg:        cfg,
		viper:      v,
		logger:     config.NewLogger(io.Discard, false),
		tokens:     application.NewTokenService(secretStore),
		httpClient: http.DefaultClient,
		now:        time.Now,
	}, nil
}

func (a *app) setupLogging(w io.Writer, debug bool) {
	a.logger = config.SetupLogging(w, debug || a.cfg.Features.Debug)
}

func (a *app) backendClient(ctx context.Context) backend.Client {
	adminToken := a.cfg.AdminToken
	if adminToken == "" {
		if stored, err := a.tokens.AdminToken(ctx); err == nil {
			adminToken = stored
		}
	}
	return backend.Client{
		API:            backend.DefaultAPI(a.cfg.BaseURL),
		HTTPClient:     a.httpClient,
		RequestTimeout: a.cfg.Timeout,
		AdminToken:     adminToken,
		Logger:         a.logger,
	}
}

// sessionRepository returns the configured session store and a closer for it.
func (a *app) sessionRepository() (ports.SessionRepository, func(), error) {
	if a.cfg.UsesRedisSessions() {
		repo, err := redissession.New(redissession.Config{
			URL:     a.cfg.Session.RedisURL,
			Profile: a.cfg.Session.Profile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("wire redis session store: %w", err)
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				a.logger.Debug("close redis session store", "error", err)
			}
		}, nil
	}

	repo, err := tomlrepo.NewSessionRepository(a.viper)
	if err != nil {
		return nil, nil, fmt.Errorf("wire session repository: %w", err)
	}
	return repo, func() {}, nil
}

func (a *app) conversation(ctx context.Context, includeTTS bool) (*application.ConversationService, func(), error) {
	sessions, closeSessions, err := a.sessionRepository()
	if err != nil {
		return nil, nil, err
	}
	svc := application.NewConversationService(ctx, a.backendClient(ctx), sessions, application.ConversationOptions{
		IncludeTTS: includeTTS,
		Meta:       map[string]any{"channel": "cli"},
		Logger:     a.logger,
	})
	return svc, closeSessions, nil
}

// restaurantResolver is nil when Supabase is not configured. Carts then only accept
// restaurant ids.
func (a *app) restaurantResolver() (ports.RestaurantResolver, error) {
	if a.cfg.Supabase.URL == "" || a.cfg.Supabase.Key == "" {
		return nil, nil
	}
	resolver, err := supabase.New(supabase.Config{URL: a.cfg.Supabase.URL, APIKey: a.cfg.Supabase.Key})
	if err != nil {
		return nil, fmt.Errorf("wire restaurant resolver: %w", err)
	}
	return resolver, nil
}

func (a *app) cartService(ctx context.Context, confirmer ports.Confirmer) (*application.CartService, error) {
	repo, err := tomlrepo.NewCartRepository(a.viper)
	if err != nil {
		return nil, fmt.Errorf("wire cart repository: %w", err)
	}
	resolver, err := a.restaurantResolver()
	if err != nil {
		return nil, err
	}
	return application.NewCartService(ctx, application.CartDeps{
		Repo:        repo,
		Orders:      a.backendClient(ctx),
		Restaurants: resolver,
		Identity:    a.tokens,
		Confirmer:   confirmer,
		Logger:      a.logger,
	}), nil
}

func (a *app) kdsPoller(ctx context.Context, limit int) *application.KDSPoller {
	if limit <= 0 {
		limit = a.cfg.KDS.Limit
	}
	return application.NewKDSPoller(a.backendClient(ctx), application.KDSPollerConfig{
		PollInterval: a.cfg.KDS.PollInterval,
		Limit:        limit,
		Enabled:      true,
		Logger:       a.logger,
	})
}

func (a *app) cloudConfig() cloud.Config {
	return cloud.Config{
		APIKey:   a.cfg.OpenAI.APIKey,
		BaseURL:  a.cfg.OpenAI.BaseURL,
		Timeout:  a.cfg.Timeout,
		Voice:    a.cfg.Speech.Voice,
		Language: a.cfg.Speech.Language,
	}
}

// playback wires the controller for engine. auto prefers a local speech engine and falls
// back to cloud speech when none is installed.
func (a *app) playback(engine string) (*application.PlaybackController, error) {
	if engine == "" {
		engine = a.cfg.SpeechEngine()
	}
	deps := application.PlaybackDeps{Player: player.New(), Logger: a.logger}

	synth := native.NewSynthesizer()
	switch engine {
	case "native":
		deps.Synthesizer = synth
	case "cloud":
		fetcher, err := cloud.NewFetcher(a.cloudConfig())
		if err != nil {
			return nil, fmt.Errorf("wire cloud speech: %w", err)
		}
		deps.Fetcher = fetcher
	case "auto":
		if synth.Available() {
			deps.Synthesizer = synth
		}
		if fetcher, err := cloud.NewFetcher(a.cloudConfig()); err == nil {
			deps.Fetcher = fetcher
		} else if deps.Synthesizer == nil {
			return nil, fmt.Errorf("%w: no local engine and cloud speech failed: %w", domain.ErrEngineUnavailable, err)
		}
	default:
		return nil, fmt.Errorf("unsupported speech engine %q", engine)
	}
	return application.NewPlaybackController(deps), nil
}

func (a *app) voiceOptions() domain.VoiceOptions {
	return domain.VoiceOptions{
		Rate:  a.cfg.Speech.Rate,
		Pitch: a.cfg.Speech.Pitch,
		Voice: a.cfg.Speech.Voice,
	}
}

func (a *app) voiceCapture() (*application.VoiceCapture, error) {
	recognizer, err := cloud.NewRecognizer(a.cloudConfig(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("wire speech recognizer: %w", err)
	}
	return application.NewVoiceCapture(recognizer, a.logger), nil
}

// promptConfirmer asks on the terminal. Anything but an explicit yes declines.
type promptConfirmer struct {
	in     *bufio.Reader
	out    io.Writer
	assume bool
}

func newPromptConfirmer(in io.Reader, out io.Writer, assumeYes bool) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out, assume: assumeYes}
}

func (c *promptConfirmer) Confirm(_ context.Context, prompt string) bool {
	if c.assume {
		return true
	}
	_, _ = fmt.Fprintf(c.out, "%s [t/N] ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "t", "tak", "y", "yes":
		return true
	default:
		return false
	}
}
