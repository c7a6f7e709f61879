package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"search-chat/internal/agent"
	"search-chat/internal/config"
	"search-chat/internal/session"
)

func seedSessions(t *testing.T, dir string) {
	t.Helper()
	store := session.NewFileStore(dir)
	for _, rec := range []session.Record{
		{ID: "older", Messages: []agent.Message{{Role: agent.RoleUser, Content: "first question"}, {Role: agent.RoleAssistant, Content: "a"}}},
		{ID: "newer", Messages: []agent.Message{{Role: agent.RoleUser, Content: "second question"}, {Role: agent.RoleAssistant, Content: "b"}}},
	} {
		if _, err := store.Save(rec); err != nil {
			t.Fatalf("save %s: %v", rec.ID, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunSessions_ListsNewestFirst(t *testing.T) {
	home := isolate(t)
	dir := home + "/sessions-test"
	seedSessions(t, dir)

	var out bytes.Buffer
	root := rootArgs{overrides: []string{"session.dir=" + dir}}
	if err := runSessions(root, nil, &out); err != nil {
		t.Fatalf("runSessions: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "newer") || !strings.Contains(lines[0], "2 msgs  second question") {
		t.Fatalf("unexpected first line %q", lines[0])
	}

	out.Reset()
	if err := runSessions(root, []string{"-n", "1"}, &out); err != nil {
		t.Fatalf("runSessions: %v", err)
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Fatalf("expected one line with -n 1, got %q", out.String())
	}
}

func TestRunSessions_Empty(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	if err := runSessions(rootArgs{}, []string{"-store", "memory"}, &out); err != nil {
		t.Fatalf("runSessions: %v", err)
	}
	if strings.TrimSpace(out.String()) != "no saved sessions" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestLastSessionID(t *testing.T) {
	home := isolate(t)
	cfg := config.Default()
	cfg.Session.Dir = home + "/s"
	if _, err := lastSessionID(cfg); !errors.Is(err, errNoSessions) {
		t.Fatalf("expected errNoSessions, got %v", err)
	}
	seedSessions(t, cfg.Session.Dir)
	id, err := lastSessionID(cfg)
	if err != nil || id != "newer" {
		t.Fatalf("lastSessionID = %q, %v", id, err)
	}
}

func TestFormatSessionLineTruncatesPreview(t *testing.T) {
	rec := session.Record{
		ID:       "abc",
		Updated:  time.Date(2026, 1, 2, 3, 4, 0, 0, time.Local),
		Messages: []agent.Message{{Role: agent.RoleUser, Content: strings.Repeat("long ", 40)}},
	}
	line := formatSessionLine(rec)
	if !strings.HasPrefix(line, "abc  2026-01-02 03:04    1 msgs  ") || !strings.HasSuffix(line, "…") {
		t.Fatalf("unexpected line %q", line)
	}
	if got := formatSessionLine(session.Record{ID: "x"}); !strings.HasSuffix(got, "(empty)") {
		t.Fatalf("expected (empty) preview, got %q", got)
	}
}

func TestPrintExitSummary(t *testing.T) {
	var out bytes.Buffer
	printExitSummary(&out, "abc", nil)
	if out.Len() != 0 {
		t.Fatalf("expected nothing for empty history, got %q", out.String())
	}
	printExitSummary(&out, "abc", []agent.Message{
		{Role: agent.RoleUser, Content: "12345678"},
		{Role: agent.RoleAssistant, Content: "1234"},
	})
	want := "Token usage (approx): total=3 input=2 output=1\nTo continue this session, run search-chat resume abc\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}
