package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"search-chat/internal/agent"
	anthropicmodel "search-chat/internal/agent/anthropic"
	openaimodel "search-chat/internal/agent/openai"
	"search-chat/internal/config"
	"search-chat/internal/events"
	"search-chat/internal/execution"
	"search-chat/internal/instructions"
	"search-chat/internal/logger"
	"search-chat/internal/prompts"
	"search-chat/internal/session"
	"search-chat/internal/tools"
	"search-chat/internal/tools/handlers"
)

const sqliteFileName = "sessions.db"

// app 聚合一次运行所需的配置、存储与执行引擎。
type app struct {
	cfg    config.Config
	store  session.Store
	engine *execution.Engine
	bus    *events.Bus
	// echo 为 true 表示没有可用凭据，模型退化为回显。
	echo    bool
	closers []io.Closer
}

func loadConfig(path string, overrides []string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	cfg = config.ApplyKVOverrides(cfg, overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", cfg.Source, err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warnf("ignore log_level %q: %v", cfg.LogLevel, err)
	}
	return cfg, nil
}

func newApp(cfg config.Config) (*app, error) {
	store, closer, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: store, bus: events.NewBus()}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	sink, sinkCloser := events.NewLogSink(events.DefaultEventLogPath)
	a.bus.Handle(sink)
	if sinkCloser != nil {
		a.closers = append(a.closers, sinkCloser)
	}

	client, echo, err := buildModelClient(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.echo = echo

	temperature := cfg.Temperature
	a.engine = execution.NewEngine(execution.Options{
		Client:           client,
		Tools:            buildTools(cfg),
		Store:            store,
		Bus:              a.bus,
		Model:            cfg.Model,
		System:           systemPrompt(time.Now()),
		Temperature:      &temperature,
		MaxRounds:        cfg.MaxRounds,
		RequestTimeout:   cfg.RequestTimeout(),
		AbortOnToolError: cfg.AbortOnToolError,
	})
	return a, nil
}

func (a *app) Close() {
	if a == nil {
		return
	}
	if a.bus != nil {
		a.bus.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warnf("close: %v", err)
		}
	}
	a.closers = nil
}

// systemPrompt 在内置提示词后追加用户的 instructions 文件。
func systemPrompt(now time.Time) string {
	return instructions.Compose(prompts.System(now, ""), instructions.Discover(config.HomeDir(), ""))
}

// buildStore 按 session.backend 选择会话存储；sqlite 需要调用方关闭。
func buildStore(cfg config.Config) (session.Store, io.Closer, error) {
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil, nil
	case config.BackendSQLite:
		path := filepath.Join(cfg.SessionDir(), sqliteFileName)
		store, err := session.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.BackendFile, "":
		return session.NewFileStore(cfg.SessionDir()), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// buildModelClient 返回配置的模型客户端；缺少 token 时退回 EchoClient。
func buildModelClient(cfg config.Config) (agent.ModelClient, bool, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		log.Warnf("no token configured for provider %s; falling back to echo mode", cfg.Provider)
		return agent.EchoClient{Prefix: "echo: "}, true, nil
	}
	client, err := newProviderClient(cfg)
	if err != nil {
		return nil, false, err
	}
	return client, false, nil
}

func newProviderClient(cfg config.Config) (agent.ModelClient, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		client, err := anthropicmodel.New(anthropicmodel.Options{
			Token:       cfg.Token,
			BaseURL:     cfg.URL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.Retries,
		})
		if err != nil {
			return nil, fmt.Errorf("init anthropic client: %w", err)
		}
		return client, nil
	default:
		client, err := openaimodel.New(openaimodel.Options{
			APIKey:      cfg.Token,
			BaseURL:     cfg.URL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.Retries,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		return client, nil
	}
}

// buildTools 注册 web_search；没有 Tavily key 时模型看不到任何工具。
func buildTools(cfg config.Config) *tools.Registry {
	registry := tools.NewRegistry()
	registry.SetTimeout(cfg.ToolTimeout())
	search, err := handlers.NewWebSearch(handlers.SearchOptions{
		BaseURL:    cfg.Search.URL,
		APIKey:     cfg.Search.APIKey,
		MaxResults: cfg.Search.MaxResults,
		Topic:      cfg.Search.Topic,
		RatePerSec: cfg.Search.RatePerSec,
	})
	if err != nil {
		log.Warnf("web_search disabled: %v", err)
		return registry
	}
	registry.Register(search)
	return registry
}
