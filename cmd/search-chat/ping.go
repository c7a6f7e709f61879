package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"search-chat/internal/agent"
	openaimodel "search-chat/internal/agent/openai"
	"search-chat/internal/config"
)

func runPing(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cfgPath string
	var modelOverride string
	var baseURLOverride string
	var timeoutSeconds int
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.search-chat/config.toml)")
	fs.StringVar(&modelOverride, "model", "", "Model name (default from config)")
	fs.StringVar(&baseURLOverride, "base-url", "", "Override base URL (trailing /v1 is ok)")
	fs.IntVar(&timeoutSeconds, "timeout", 30, "Timeout seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	overrides := prependOverrides(root.overrides, nil)
	if m := strings.TrimSpace(modelOverride); m != "" {
		overrides = append(overrides, "model="+m)
	}
	if u := strings.TrimSpace(baseURLOverride); u != "" {
		overrides = append(overrides, "url="+u)
	}
	cfg, err := loadConfig(cfgPath, overrides)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return errors.New("missing token: set GROQ_API_KEY or configure token in ~/.search-chat/config.toml")
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	if cfg.Provider == config.ProviderOpenAI {
		addr, err := openaimodel.CheckReachable(ctx, cfg.URL)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "reachable: %s\n", addr)
	}
	cfg.Retries = 0
	client, err := newProviderClient(cfg)
	if err != nil {
		return err
	}
	reply, err := client.Invoke(ctx, agent.Prompt{
		Model:    cfg.Model,
		System:   "Reply with exactly the word pong in lowercase and nothing else.",
		Messages: []agent.Message{{Role: agent.RoleUser, Content: "ping"}},
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "ok: %s\n", strings.TrimSpace(reply.Content))
	return nil
}
