package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const fileHeader = `# search-chat configuration.
# provider = openai (any OpenAI-compatible endpoint, Groq by default) | anthropic
# token and search.api_key may instead come from GROQ_API_KEY / OPENAI_API_KEY /
# ANTHROPIC_AUTH_TOKEN and TAVILY_API_KEY; keys from the environment are never written here.
# session.backend = file | sqlite | memory

`

// LoadFile reads path over the defaults without applying environment overrides.
// login/logout use it so that Save only writes what the file already held.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save validates cfg and writes it atomically with mode 0600, since it may hold API keys.
func Save(path string, cfg Config) error {
	if path == "" {
		path = cfg.Source
	}
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return errors.New("config path is empty and $HOME is not set")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}
	body, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	buf.Write(body)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
