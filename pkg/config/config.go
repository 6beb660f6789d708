package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Bot      BotConfig      `json:"bot"`
	Channels ChannelsConfig `json:"channels"`
	Provider ProviderConfig `json:"provider"`
	Memory   MemoryConfig   `json:"memory"`
	Tools    ToolsConfig    `json:"tools"`
	Voice    VoiceConfig    `json:"voice"`
	Security SecurityConfig `json:"security"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type BotConfig struct {
	Name    string `json:"name" env:"IRONBOT_NAME"`
	OwnerID string `json:"owner_id" env:"IRONBOT_OWNER_ID"`
	DataDir string `json:"data_dir" env:"IRONBOT_DATA_DIR"`
}

type ChannelsConfig struct {
	Discord  DiscordConfig  `json:"discord"`
	Telegram TelegramConfig `json:"telegram"`
	Console  ConsoleConfig  `json:"console"`
}

type DiscordConfig struct {
	Enabled   bool     `json:"enabled" env:"IRONBOT_CHANNELS_DISCORD_ENABLED"`
	Token     string   `json:"token" env:"IRONBOT_CHANNELS_DISCORD_TOKEN"`
	AllowFrom []string `json:"allow_from" env:"IRONBOT_CHANNELS_DISCORD_ALLOW_FROM"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled" env:"IRONBOT_CHANNELS_TELEGRAM_ENABLED"`
	Token     string   `json:"token" env:"IRONBOT_CHANNELS_TELEGRAM_TOKEN"`
	AllowFrom []string `json:"allow_from" env:"IRONBOT_CHANNELS_TELEGRAM_ALLOW_FROM"`
}

type ConsoleConfig struct {
	Enabled bool `json:"enabled" env:"IRONBOT_CHANNELS_CONSOLE_ENABLED"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" env:"IRONBOT_PROVIDER_API_KEY"`
	APIBase string `json:"api_base" env:"IRONBOT_PROVIDER_API_BASE"`
	Model   string `json:"model" env:"IRONBOT_PROVIDER_MODEL"`
}

type MemoryConfig struct {
	// ExtractEveryN triggers a background extraction cycle whenever a user's
	// message count is a positive multiple of N. Zero disables extraction.
	ExtractEveryN       int     `json:"extract_every_n" env:"IRONBOT_MEMORY_EXTRACT_EVERY_N"`
	HistoryWindow       int     `json:"history_window" env:"IRONBOT_MEMORY_HISTORY_WINDOW"`
	PromptLimit         int     `json:"prompt_limit" env:"IRONBOT_MEMORY_PROMPT_LIMIT"`
	ConfidenceThreshold float64 `json:"confidence_threshold" env:"IRONBOT_MEMORY_CONFIDENCE_THRESHOLD"`
}

type WebSearchConfig struct {
	Enabled      bool   `json:"enabled" env:"IRONBOT_TOOLS_WEB_SEARCH_ENABLED"`
	BraveAPIKey  string `json:"brave_api_key" env:"IRONBOT_TOOLS_WEB_SEARCH_BRAVE_API_KEY"`
	SerperAPIKey string `json:"serper_api_key" env:"IRONBOT_TOOLS_WEB_SEARCH_SERPER_API_KEY"`
	TavilyAPIKey string `json:"tavily_api_key" env:"IRONBOT_TOOLS_WEB_SEARCH_TAVILY_API_KEY"`
	MaxResults   int    `json:"max_results" env:"IRONBOT_TOOLS_WEB_SEARCH_MAX_RESULTS"`
}

type ToolsConfig struct {
	WebSearch WebSearchConfig `json:"web_search"`
}

type VoiceConfig struct {
	Enabled          bool   `json:"enabled" env:"IRONBOT_VOICE_ENABLED"`
	ElevenLabsAPIKey string `json:"elevenlabs_api_key" env:"IRONBOT_VOICE_ELEVENLABS_API_KEY"`
	VoiceID          string `json:"voice_id" env:"IRONBOT_VOICE_VOICE_ID"`
}

type SecurityConfig struct {
	GuardEnabled     bool    `json:"guard_enabled" env:"IRONBOT_SECURITY_GUARD_ENABLED"`
	GuardSensitivity float64 `json:"guard_sensitivity" env:"IRONBOT_SECURITY_GUARD_SENSITIVITY"`
	RateLimitCalls   int     `json:"rate_limit_calls" env:"IRONBOT_SECURITY_RATE_LIMIT_CALLS"`
	RateLimitWindow  int     `json:"rate_limit_window_seconds" env:"IRONBOT_SECURITY_RATE_LIMIT_WINDOW_SECONDS"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" env:"IRONBOT_METRICS_ENABLED"`
	Addr    string `json:"addr" env:"IRONBOT_METRICS_ADDR"`
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Name:    "ironbot",
			OwnerID: "",
			DataDir: "~/.ironbot",
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Enabled:   false,
				Token:     "",
				AllowFrom: []string{},
			},
			Telegram: TelegramConfig{
				Enabled:   false,
				Token:     "",
				AllowFrom: []string{},
			},
			Console: ConsoleConfig{
				Enabled: false,
			},
		},
		Provider: ProviderConfig{
			APIKey:  "",
			APIBase: "",
			Model:   "gpt-4o-mini",
		},
		Memory: MemoryConfig{
			ExtractEveryN:       10,
			HistoryWindow:       10,
			PromptLimit:         5,
			ConfidenceThreshold: 0.7,
		},
		Tools: ToolsConfig{
			WebSearch: WebSearchConfig{
				Enabled:    false,
				MaxResults: 5,
			},
		},
		Voice: VoiceConfig{
			Enabled: false,
		},
		Security: SecurityConfig{
			GuardEnabled:     true,
			GuardSensitivity: 0.5,
			RateLimitCalls:   5,
			RateLimitWindow:  60,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9190",
		},
	}
}

// LoadConfig reads the JSON config at path and applies environment variable
// overrides. A missing file is not an error; defaults are used.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// DataDir returns the bot data directory with "~" expanded.
func (c *Config) DataDir() string {
	return expandHome(c.Bot.DataDir)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
