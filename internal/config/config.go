// Package config loads FreeFlow client settings from config.toml, FF_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "FF"
	DefaultStateDir   = ".freeflow"
	ProductionBaseURL = "https://freeflow-final.vercel.app"
	LocalBaseURL      = "http://localhost:3000"
)

const (
	KeyBaseURL         = "api.base_url"
	KeyHost            = "api.host"
	KeyTimeout         = "api.timeout"
	KeyPollInterval    = "kds.poll_interval"
	KeyOrderLimit      = "kds.limit"
	KeyStation         = "kds.station"
	KeySpeechEngine    = "speech.engine"
	KeySpeechRate      = "speech.rate"
	KeySpeechPitch     = "speech.pitch"
	KeySpeechVoice     = "speech.voice"
	KeySpeechLanguage  = "speech.language"
	KeyChunkPause      = "speech.chunk_pause"
	KeyOpenAIKey       = "openai.api_key"
	KeyOpenAIBaseURL   = "openai.base_url"
	KeySupabaseURL     = "supabase.url"
	KeySupabaseKey     = "supabase.key"
	KeySessionStore    = "session.store"
	KeySessionProfile  = "session.profile"
	KeyRedisURL        = "redis.url"
	KeyDebug           = "features.debug"
	KeyImmersive       = "features.immersive"
	KeyTTS             = "features.tts"
	KeyStateDir        = "state.dir"
	KeyAdminToken      = "admin_token"
	sessionStoreTOML   = "toml"
	sessionStoreRedis  = "redis"
	speechEngineAuto   = "auto"
	speechEngineNative = "native"
	speechEngineCloud  = "cloud"
)

var tunnelHostSuffixes = []string{"ngrok-free.app", "ngrok.io", "ngrok.app", "trycloudflare.com", "loca.lt"}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	StateDir   string
	AdminToken string
	KDS        KDSConfig
	Speech     SpeechConfig
	OpenAI     OpenAIConfig
	Supabase   SupabaseConfig
	Session    SessionConfig
	Features   Features
}

type KDSConfig struct {
	PollInterval time.Duration
	Limit        int
	Station      string
}

type SpeechConfig struct {
	Engine     string
	Rate       float64
	Pitch      float64
	Voice      string
	Language   string
	ChunkPause time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

type SupabaseConfig struct {
	URL string
	Key string
}

type SessionConfig struct {
	Store    string
	RedisURL string
	Profile  string
}

type Features struct {
	Debug     bool
	Immersive bool
	TTS       bool
}

// NewViper returns a viper instance bound to FF_* variables and config.toml in stateDir.
// An empty stateDir means ~/.freeflow.
func NewViper(stateDir string) (*viper.Viper, error) {
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		stateDir = filepath.Join(home, DefaultStateDir)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if envDir := v.GetString(KeyStateDir); envDir != "" {
		stateDir = envDir
	}
	v.SetDefault(KeyStateDir, stateDir)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(stateDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyPollInterval, 5*time.Second)
	v.SetDefault(KeyOrderLimit, 50)
	v.SetDefault(KeyStation, "all")
	v.SetDefault(KeySpeechEngine, speechEngineAuto)
	v.SetDefault(KeySpeechRate, 1.0)
	v.SetDefault(KeySpeechPitch, 1.0)
	v.SetDefault(KeySpeechLanguage, "pl")
	v.SetDefault(KeyChunkPause, 300*time.Millisecond)
	v.SetDefault(KeySessionStore, sessionStoreTOML)
	v.SetDefault(KeySessionProfile, "default")
	v.SetDefault(KeyTTS, true)
	v.SetDefault(KeyOpenAIKey, os.Getenv("OPENAI_API_KEY"))
}

// LoadDotEnv loads the first existing file of paths into the environment without overriding
// variables that are already set. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	baseURL, err := ResolveBaseURL(v.GetString(KeyBaseURL), v.GetString(KeyHost))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaseURL:    baseURL,
		Timeout:    v.GetDuration(KeyTimeout),
		StateDir:   v.GetString(KeyStateDir),
		AdminToken: strings.TrimSpace(v.GetString(KeyAdminToken)),
		KDS: KDSConfig{
			PollInterval: v.GetDuration(KeyPollInterval),
			Limit:        v.GetInt(KeyOrderLimit),
			Station:      v.GetString(KeyStation),
		},
		Speech: SpeechConfig{
			Engine:     strings.ToLower(v.GetString(KeySpeechEngine)),
			Rate:       v.GetFloat64(KeySpeechRate),
			Pitch:      v.GetFloat64(KeySpeechPitch),
			Voice:      v.GetString(KeySpeechVoice),
			Language:   v.GetString(KeySpeechLanguage),
			ChunkPause: v.GetDuration(KeyChunkPause),
		},
		OpenAI: OpenAIConfig{
			APIKey:  v.GetString(KeyOpenAIKey),
			BaseURL: v.GetString(KeyOpenAIBaseURL),
		},
		Supabase: SupabaseConfig{
			URL: v.GetString(KeySupabaseURL),
			Key: v.GetString(KeySupabaseKey),
		},
		Session: SessionConfig{
			Store:    strings.ToLower(v.GetString(KeySessionStore)),
			RedisURL: v.GetString(KeyRedisURL),
			Profile:  v.GetString(KeySessionProfile),
		},
		Features: Features{
			Debug:     v.GetBool(KeyDebug),
			Immersive: v.GetBool(KeyImmersive),
			TTS:       v.GetBool(KeyTTS),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Session.Store {
	case sessionStoreTOML:
	case sessionStoreRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("%s=redis requires %s", KeySessionStore, KeyRedisURL)
		}
	default:
		return fmt.Errorf("unsupported %s %q (want toml or redis)", KeySessionStore, c.Session.Store)
	}

	switch c.Speech.Engine {
	case speechEngineAuto, speechEngineNative, speechEngineCloud:
	default:
		return fmt.Errorf("unsupported %s %q (want auto, native or cloud)", KeySpeechEngine, c.Speech.Engine)
	}
	return nil
}

func (c Config) UsesRedisSessions() bool {
	return c.Session.Store == sessionStoreRedis
}

func (c Config) SpeechEngine() string {
	return c.Speech.Engine
}

// ResolveBaseURL returns explicit when set. Otherwise it derives the backend from the host
// the client runs against: local development, a tunnel, or production.
func ResolveBaseURL(explicit string, host string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		parsed, err := url.Parse(explicit)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return "", fmt.Errorf("invalid %s %q", KeyBaseURL, explicit)
		}
		return strings.TrimRight(explicit, "/"), nil
	}

	hostname := strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = h
	}
	switch {
	case hostname == "":
		return ProductionBaseURL, nil
	case hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1":
		return LocalBaseURL, nil
	case isTunnelHost(hostname):
		return "https://" + hostname, nil
	default:
		return ProductionBaseURL, nil
	}
}

func isTunnelHost(hostname string) bool {
	for _, suffix := range tunnelHostSuffixes {
		if hostname == suffix || strings.HasSuffix(hostname, "."+suffix) {
			return true
		}
	}
	return false
}
