package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunPing_UsesConfigFile(t *testing.T) {
	home := isolate(t)
	model, calls := modelServer(t, `{"role":"assistant","content":"pong"}`)

	cfgPath := filepath.Join(home, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(`
provider = "openai"
url = "`+model.URL+`"
token = "test-key"
model = "openai/gpt-oss-120b"
`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	if err := runPing(rootArgs{}, []string{"--config", cfgPath, "--timeout", "5"}, &out); err != nil {
		t.Fatalf("runPing: %v", err)
	}
	if !strings.Contains(out.String(), "reachable: 127.0.0.1:") || !strings.Contains(out.String(), "ok: pong") {
		t.Fatalf("ping output = %q", out.String())
	}
	if calls.Load() != 1 {
		t.Fatalf("model calls = %d, want 1", calls.Load())
	}
}

func TestRunPing_RequiresToken(t *testing.T) {
	isolate(t)
	err := runPing(rootArgs{}, nil, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "missing token") {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestRunPing_UnreachableBaseURL(t *testing.T) {
	isolate(t)
	root := rootArgs{overrides: []string{"token=test-key"}}
	err := runPing(root, []string{"-base-url", "http://127.0.0.1:1", "-timeout", "2"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "cannot connect") {
		t.Fatalf("expected connection error, got %v", err)
	}
}
