package openai

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"search-chat/internal/agent"
	"search-chat/internal/config"
)

func TestIntegration_Invoke_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in -short mode")
	}
	if strings.TrimSpace(os.Getenv("SEARCH_CHAT_OPENAI_INTEGRATION")) != "1" {
		t.Skip("set SEARCH_CHAT_OPENAI_INTEGRATION=1 to enable this integration test")
	}

	silenceRootLogger(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	if cfg.Provider != config.ProviderOpenAI {
		t.Skipf("config provider=%q; this integration test expects an openai-compatible provider", cfg.Provider)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		t.Skip("no token configured (set GROQ_API_KEY or OPENAI_API_KEY)")
	}

	client, err := New(Options{
		APIKey:      cfg.Token,
		BaseURL:     cfg.URL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxRetries:  cfg.Retries,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	got, err := client.Invoke(ctx, agent.Prompt{
		Messages: []agent.Message{
			{Role: agent.RoleUser, Content: "Reply with exactly the word ping in lowercase, nothing else."},
		},
	})
	if err != nil {
		t.Fatalf("Invoke() error (base_url=%q model=%q): %v", cfg.URL, cfg.Model, err)
	}
	if strings.ToLower(strings.TrimSpace(got.Content)) != "ping" {
		t.Fatalf("Invoke() = %q, want %q", got.Content, "ping")
	}
}
