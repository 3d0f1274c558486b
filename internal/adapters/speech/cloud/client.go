// Package cloud implements speech synthesis and recognition on the OpenAI audio API.
package cloud

import (
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Voice    string
	Language string
}

func newClient(cfg Config) (*openai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}
	config.HTTPClient = httpClient

	return openai.NewClientWithConfig(config), nil
}
