package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"search-chat/internal/agent"
	"search-chat/internal/tools"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	WebSearchName = "web_search"

	defaultSearchURL   = "https://api.tavily.com"
	maxSnippetBytes    = 1200
	maxErrorBodyBytes  = 512
	defaultHTTPTimeout = 20 * time.Second
)

// SearchOptions 配置 Tavily 搜索。
type SearchOptions struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Topic      string
	// RatePerSec 限制对外请求频率，<=0 表示不限流。
	RatePerSec float64
	HTTPClient *http.Client
}

// WebSearch 通过 Tavily 搜索接口回答模型的 web_search 调用。
type WebSearch struct {
	endpoint   string
	apiKey     string
	maxResults int
	topic      string
	limiter    *rate.Limiter
	client     *http.Client
}

var _ tools.Handler = (*WebSearch)(nil)

func NewWebSearch(opts SearchOptions) (*WebSearch, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("missing TAVILY_API_KEY")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultSearchURL
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	topic := strings.TrimSpace(opts.Topic)
	if topic == "" {
		topic = "general"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return &WebSearch{
		endpoint:   base + "/search",
		apiKey:     key,
		maxResults: maxResults,
		topic:      topic,
		limiter:    limiter,
		client:     client,
	}, nil
}

func (w *WebSearch) Name() string { return WebSearchName }

func (w *WebSearch) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        WebSearchName,
		Description: fmt.Sprintf("Search the web for up-to-date information. Returns up to %d results with title, url and content.", w.maxResults),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query.",
				},
			},
			"required":             []string{"query"},
			"additionalProperties": false,
		},
	}
}

type searchArgs struct {
	Query string `json:"query"`
}

// SearchResult 是返回给模型的单条结果。
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchPayload 是 web_search 的输出负载。
type SearchPayload struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []SearchResult `json:"results"`
}

func (w *WebSearch) Handle(ctx context.Context, raw json.RawMessage) (string, error) {
	var args searchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("%w: %v", tools.ErrInvalidArguments, err)
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "", fmt.Errorf("%w: query is empty", tools.ErrInvalidArguments)
	}
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	body, err := json.Marshal(map[string]any{
		"query":        query,
		"max_results":  w.maxResults,
		"topic":        w.topic,
		"search_depth": "basic",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http_%d: %s", resp.StatusCode, strings.TrimSpace(truncate(string(data), maxErrorBodyBytes)))
	}
	if !gjson.ValidBytes(data) {
		return "", errors.New("search response is not valid JSON")
	}

	payload := parseSearchResponse(query, data, w.maxResults)
	out, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseSearchResponse(query string, data []byte, limit int) SearchPayload {
	doc := gjson.ParseBytes(data)
	payload := SearchPayload{
		Query:   query,
		Answer:  strings.TrimSpace(doc.Get("answer").String()),
		Results: []SearchResult{},
	}
	if q := strings.TrimSpace(doc.Get("query").String()); q != "" {
		payload.Query = q
	}
	doc.Get("results").ForEach(func(_, item gjson.Result) bool {
		if len(payload.Results) >= limit {
			return false
		}
		url := strings.TrimSpace(item.Get("url").String())
		if url == "" {
			return true
		}
		payload.Results = append(payload.Results, SearchResult{
			Title:   strings.TrimSpace(item.Get("title").String()),
			URL:     url,
			Content: truncate(strings.TrimSpace(item.Get("content").String()), maxSnippetBytes),
		})
		return true
	})
	return payload
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
