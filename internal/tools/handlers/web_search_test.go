package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"search-chat/internal/tools"
)

func newSearchServer(t *testing.T, status int, body string, seen func(r *http.Request, payload map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)
		if seen != nil {
			seen(r, payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewWebSearchRequiresKey(t *testing.T) {
	if _, err := NewWebSearch(SearchOptions{}); err == nil {
		t.Fatalf("NewWebSearch without key expected error")
	}
}

func TestWebSearchSpec(t *testing.T) {
	ws, err := NewWebSearch(SearchOptions{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewWebSearch: %v", err)
	}
	spec := ws.Spec()
	if spec.Name != WebSearchName {
		t.Fatalf("spec.Name = %q", spec.Name)
	}
	if req := spec.RequiredParams(); len(req) != 1 || req[0] != "query" {
		t.Fatalf("required = %v", req)
	}
	if !strings.Contains(spec.Description, "up to 3 results") {
		t.Fatalf("description should mention the result bound: %q", spec.Description)
	}
}

func TestWebSearchHandleSendsBoundsAndParsesResults(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	srv := newSearchServer(t, http.StatusOK, `{
  "query": "latest ai news",
  "answer": "",
  "results": [
    {"title": "One", "url": "https://one.example", "content": "first", "score": 0.9},
    {"title": "No URL", "url": "", "content": "skipped"},
    {"title": "Two", "url": "https://two.example", "content": "second", "score": 0.8},
    {"title": "Three", "url": "https://three.example", "content": "third", "score": 0.7}
  ],
  "response_time": 0.5
}`, func(r *http.Request, payload map[string]any) {
		gotAuth = r.Header.Get("Authorization")
		gotPayload = payload
	})

	ws, err := NewWebSearch(SearchOptions{BaseURL: srv.URL + "/", APIKey: "tvly-test", MaxResults: 2, Topic: "news"})
	if err != nil {
		t.Fatalf("NewWebSearch: %v", err)
	}
	out, err := ws.Handle(context.Background(), json.RawMessage(`{"query":"  latest ai news "}`))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if gotAuth != "Bearer tvly-test" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotPayload["query"] != "latest ai news" || gotPayload["topic"] != "news" || gotPayload["max_results"] != float64(2) {
		t.Fatalf("request payload = %v", gotPayload)
	}

	var payload SearchPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if payload.Query != "latest ai news" || len(payload.Results) != 2 {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.Results[0].URL != "https://one.example" || payload.Results[1].Title != "Two" {
		t.Fatalf("results = %+v", payload.Results)
	}
	if strings.Contains(out, `"answer"`) {
		t.Fatalf("empty answer should be omitted: %s", out)
	}
}

func TestWebSearchHandleErrors(t *testing.T) {
	srv := newSearchServer(t, http.StatusUnauthorized, `{"detail":{"error":"Unauthorized: missing or invalid API key."}}`, nil)
	ws, err := NewWebSearch(SearchOptions{BaseURL: srv.URL, APIKey: "bad"})
	if err != nil {
		t.Fatalf("NewWebSearch: %v", err)
	}

	if _, err := ws.Handle(context.Background(), json.RawMessage(`{"query":""}`)); !errors.Is(err, tools.ErrInvalidArguments) {
		t.Fatalf("empty query error = %v, want ErrInvalidArguments", err)
	}
	if _, err := ws.Handle(context.Background(), json.RawMessage(`not json`)); !errors.Is(err, tools.ErrInvalidArguments) {
		t.Fatalf("bad args error = %v, want ErrInvalidArguments", err)
	}
	_, err = ws.Handle(context.Background(), json.RawMessage(`{"query":"x"}`))
	if err == nil || !strings.Contains(err.Error(), "http_401") {
		t.Fatalf("http error = %v, want http_401", err)
	}
}

func TestWebSearchRejectsInvalidJSONBody(t *testing.T) {
	srv := newSearchServer(t, http.StatusOK, `<html>oops</html>`, nil)
	ws, _ := NewWebSearch(SearchOptions{BaseURL: srv.URL, APIKey: "k"})
	if _, err := ws.Handle(context.Background(), json.RawMessage(`{"query":"x"}`)); err == nil {
		t.Fatalf("expected error for non-JSON body")
	}
}

func TestWebSearchRateLimitHonoursContext(t *testing.T) {
	var calls atomic.Int64
	srv := newSearchServer(t, http.StatusOK, `{"results":[]}`, func(*http.Request, map[string]any) { calls.Add(1) })
	ws, _ := NewWebSearch(SearchOptions{BaseURL: srv.URL, APIKey: "k", RatePerSec: 0.01})

	if _, err := ws.Handle(context.Background(), json.RawMessage(`{"query":"first"}`)); err != nil {
		t.Fatalf("first Handle: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := ws.Handle(ctx, json.RawMessage(`{"query":"second"}`)); err == nil {
		t.Fatalf("second Handle should be throttled past the deadline")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("server calls = %d, want 1", got)
	}
}

func TestTruncateKeepsUTF8(t *testing.T) {
	got := truncate("héllo", 2)
	if got != "h…" {
		t.Fatalf("truncate = %q", got)
	}
	if truncate("abc", 5) != "abc" {
		t.Fatalf("short strings should be unchanged")
	}
}
