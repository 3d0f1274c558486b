package cmd

import (
	"fmt"
	"strings"

	"github.com/ndoemo02/Freeflow-Final/internal/config"
	"github.com/spf13/cobra"
)

type configView struct {
	BaseURL       string `json:"base_url"`
	Timeout       string `json:"timeout"`
	StateDir      string `json:"state_dir"`
	ConfigFile    string `json:"config_file,omitempty"`
	AdminToken    string `json:"admin_token"`
	PollInterval  string `json:"kds_poll_interval"`
	OrderLimit    int    `json:"kds_limit"`
	Station       string `json:"kds_station"`
	SpeechEngine  string `json:"speech_engine"`
	SpeechVoice   string `json:"speech_voice,omitempty"`
	Language      string `json:"speech_language"`
	OpenAIKey     string `json:"openai_api_key"`
	SupabaseURL   string `json:"supabase_url,omitempty"`
	SupabaseKey   string `json:"supabase_key"`
	SessionStore  string `json:"session_store"`
	SessionTarget string `json:"session_profile"`
	Debug         bool   `json:"debug"`
	TTS           bool   `json:"tts"`
}

func newConfigCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := newConfigView(app.cfg, app.viper.ConfigFileUsed())
			if asJSON {
				return writeJSON(cmd, view)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "base url:      %s\n", view.BaseURL)
			fmt.Fprintf(&b, "timeout:       %s\n", view.Timeout)
			fmt.Fprintf(&b, "state dir:     %s\n", view.StateDir)
			if view.ConfigFile != "" {
				fmt.Fprintf(&b, "config file:   %s\n", view.ConfigFile)
			}
			fmt.Fprintf(&b, "admin token:   %s\n", view.AdminToken)
			fmt.Fprintf(&b, "kds:           every %s, limit %d, station %s\n", view.PollInterval, view.OrderLimit, view.Station)
			fmt.Fprintf(&b, "speech:        %s (%s)\n", view.SpeechEngine, view.Language)
			fmt.Fprintf(&b, "openai key:    %s\n", view.OpenAIKey)
			fmt.Fprintf(&b, "supabase:      %s\n", valueOr(view.SupabaseURL, "not configured"))
			fmt.Fprintf(&b, "sessions:      %s (profile %s)\n", view.SessionStore, view.SessionTarget)
			_, err := fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newConfigView(cfg config.Config, configFile string) configView {
	return configView{
		BaseURL:       cfg.BaseURL,
		Timeout:       cfg.Timeout.String(),
		StateDir:      cfg.StateDir,
		ConfigFile:    configFile,
		AdminToken:    maskSecret(cfg.AdminToken),
		PollInterval:  cfg.KDS.PollInterval.String(),
		OrderLimit:    cfg.KDS.Limit,
		Station:       cfg.KDS.Station,
		SpeechEngine:  cfg.SpeechEngine(),
		SpeechVoice:   cfg.Speech.Voice,
		Language:      cfg.Speech.Language,
		OpenAIKey:     maskSecret(cfg.OpenAI.APIKey),
		SupabaseURL:   cfg.Supabase.URL,
		SupabaseKey:   maskSecret(cfg.Supabase.Key),
		SessionStore:  cfg.Session.Store,
		SessionTarget: cfg.Session.Profile,
		Debug:         cfg.Features.Debug,
		TTS:           cfg.Features.TTS,
	}
}

func maskSecret(value string) string {
	switch {
	case value == "":
		return "not set"
	case len(value) <= 8:
		return "****"
	default:
		return value[:4] + "****"
	}
}

func valueOr(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
