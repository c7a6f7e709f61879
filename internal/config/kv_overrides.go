package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	if len(overrides) == 0 {
		return cfg
	}
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "provider":
			cfg.Provider = strings.ToLower(val)
		case "url":
			cfg.URL = val
		case "token":
			cfg.Token = val
		case "model":
			cfg.Model = val
		case "temperature":
			if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 {
				cfg.Temperature = f
			}
		case "retries":
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				cfg.Retries = n
			}
		case "max_rounds", "max-rounds":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.MaxRounds = n
			}
		case "request_timeout_seconds", "timeout":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.RequestTimeoutSecs = n
			}
		case "tool_timeout_seconds", "tool_timeout", "tool-timeout":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.ToolTimeoutSecs = n
			}
		case "abort_on_tool_error":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.AbortOnToolError = b
			}
		case "log_level":
			cfg.LogLevel = val
		case "search.url":
			cfg.Search.URL = val
		case "search.api_key":
			cfg.Search.APIKey = val
		case "search.max_results":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.Search.MaxResults = n
			}
		case "search.topic":
			cfg.Search.Topic = strings.ToLower(val)
		case "search.rate_per_second":
			if f, err := strconv.ParseFloat(val, 64); err == nil && f > 0 {
				cfg.Search.RatePerSec = f
			}
		case "session.backend":
			cfg.Session.Backend = strings.ToLower(val)
		case "session.dir":
			cfg.Session.Dir = val
		}
	}
	return cfg
}
