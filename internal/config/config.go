package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	DefaultURL       = "https://api.groq.com/openai/v1"
	DefaultModel     = "openai/gpt-oss-120b"
	DefaultSearchURL = "https://api.tavily.com"
)

// Config is the persisted config file schema.
type Config struct {
	Provider           string        `toml:"provider"`
	URL                string        `toml:"url"`
	Token              string        `toml:"token"`
	Model              string        `toml:"model"`
	Temperature        float64       `toml:"temperature"`
	Retries            int           `toml:"retries"`
	MaxRounds          int           `toml:"max_rounds"`
	RequestTimeoutSecs int           `toml:"request_timeout_seconds"`
	ToolTimeoutSecs    int           `toml:"tool_timeout_seconds"`
	AbortOnToolError   bool          `toml:"abort_on_tool_error"`
	LogLevel           string        `toml:"log_level,omitempty"`
	Search             SearchConfig  `toml:"search"`
	Session            SessionConfig `toml:"session"`
	Source             string        `toml:"-"`
}

// SearchConfig 配置 web_search 工具。
type SearchConfig struct {
	URL        string  `toml:"url"`
	APIKey     string  `toml:"api_key"`
	MaxResults int     `toml:"max_results"`
	Topic      string  `toml:"topic"`
	RatePerSec float64 `toml:"rate_per_second"`
}

// SessionConfig 配置会话存储后端。
type SessionConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir,omitempty"`
}

func Default() Config {
	return Config{
		Provider:           ProviderOpenAI,
		URL:                DefaultURL,
		Model:              DefaultModel,
		Temperature:        0,
		Retries:            2,
		MaxRounds:          5,
		RequestTimeoutSecs: 120,
		ToolTimeoutSecs:    30,
		Search: SearchConfig{
			URL:        DefaultSearchURL,
			MaxResults: 3,
			Topic:      "general",
			RatePerSec: 2,
		},
		Session: SessionConfig{
			Backend: BackendFile,
		},
	}
}

// HomeDir returns ~/.search-chat, or "" when $HOME is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".search-chat")
}

func DefaultPath() string {
	dir := HomeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	switch cfg.Provider {
	case ProviderAnthropic:
		if env := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")); env != "" {
			cfg.URL = env
		}
		if env := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); env != "" {
			cfg.Token = env
		}
	default:
		if env := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); env != "" {
			cfg.URL = env
		}
		if env := strings.TrimSpace(os.Getenv("GROQ_API_KEY")); env != "" {
			cfg.Token = env
		} else if env := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); env != "" && cfg.Token == "" {
			cfg.Token = env
		}
	}
	if env := strings.TrimSpace(os.Getenv("TAVILY_API_KEY")); env != "" {
		cfg.Search.APIKey = env
	}
}

// Validate rejects values the runtime cannot work with.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderOpenAI, ProviderAnthropic)
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model is empty")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", c.Retries)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("max_rounds must be >= 1, got %d", c.MaxRounds)
	}
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 20 {
		return fmt.Errorf("search.max_results must be within 1..20, got %d", c.Search.MaxResults)
	}
	switch c.Search.Topic {
	case "general", "news", "finance":
	default:
		return fmt.Errorf("unknown search.topic %q", c.Search.Topic)
	}
	switch c.Session.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown session.backend %q", c.Session.Backend)
	}
	return nil
}

// RequestTimeout 返回单次模型调用的超时。
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// ToolTimeout 返回单次工具调用的超时。
func (c Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSecs) * time.Second
}

// SessionDir resolves the directory used by the file and sqlite session backends.
func (c Config) SessionDir() string {
	if dir := strings.TrimSpace(c.Session.Dir); dir != "" {
		return dir
	}
	home := HomeDir()
	if home == "" {
		return filepath.Join(os.TempDir(), "search-chat", "sessions")
	}
	return filepath.Join(home, "sessions")
}
