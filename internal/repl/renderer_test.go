package repl

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"search-chat/internal/events"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

func newPlainRenderer(buf *bytes.Buffer) *Renderer {
	return NewRenderer(RendererOptions{SessionID: "sess-1", Width: 60, Writer: buf})
}

func TestRenderer_RendersTurnProgress(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainRenderer(&buf)

	now := time.Now()
	r.Handle(events.Event{Type: events.EventModelRequest, SessionID: "sess-1", Timestamp: now})
	r.Handle(events.Event{
		Type:       events.EventToolStarted,
		SessionID:  "sess-1",
		Tool:       "web_search",
		ToolCallID: "call-1",
		Detail:     `{"query":"weather in Paris"}`,
		Timestamp:  now,
	})
	r.Handle(events.Event{
		Type:       events.EventToolCompleted,
		SessionID:  "sess-1",
		Tool:       "web_search",
		ToolCallID: "call-1",
		Timestamp:  now,
	})
	r.Handle(events.Event{Type: events.EventModelRequest, SessionID: "sess-1", Round: 1, Timestamp: now})
	r.Answer("It is sunny.")

	out := stripANSI(buf.String())
	for _, want := range []string{
		"calling LLM...\n",
		"🔍 searching weather in Paris",
		"✓ web_search completed",
		"calling LLM... (after 1 tool round(s))",
		"AI: It is sunny.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderer_ToolFailureShowsError(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainRenderer(&buf)

	r.Handle(events.Event{
		Type:      events.EventToolCompleted,
		SessionID: "sess-1",
		Tool:      "web_search",
		Error:     "search backend returned 502",
	})

	out := stripANSI(buf.String())
	if !strings.Contains(out, "✗ web_search failed") {
		t.Fatalf("missing failure header:\n%s", out)
	}
	if !strings.Contains(out, "└ search backend returned 502") {
		t.Fatalf("missing error detail:\n%s", out)
	}
}

func TestRenderer_IgnoresOtherSessions(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainRenderer(&buf)

	r.Handle(events.Event{Type: events.EventModelRequest, SessionID: "other"})
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	r.SetSession("other")
	r.Handle(events.Event{Type: events.EventModelRequest, SessionID: "other"})
	if !strings.Contains(stripANSI(buf.String()), "calling LLM...") {
		t.Fatalf("expected output after SetSession, got %q", buf.String())
	}
}

func TestRenderer_UnhandledEventsAreSilent(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainRenderer(&buf)

	r.Handle(events.Event{Type: events.EventModelReply, SessionID: "sess-1"})
	r.Handle(events.Event{Type: events.EventTurnCompleted, SessionID: "sess-1"})
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestRenderer_ErrorAndNotice(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainRenderer(&buf)

	r.Notice("session %s", "abc")
	r.Error(errors.New("model unavailable: boom"))
	r.Error(nil)

	out := stripANSI(buf.String())
	if out != "session abc\nerror: model unavailable: boom\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderer_MultilineAnswerKeepsLines(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainRenderer(&buf)

	r.Answer("first\nsecond\n")
	out := stripANSI(buf.String())
	if out != "AI: first\nsecond\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderer_RegisterRendererOverridesDefault(t *testing.T) {
	var buf bytes.Buffer
	r := newPlainRenderer(&buf)
	r.RegisterRenderer(stubRenderer{typ: events.EventModelRequest, text: "thinking"})

	r.Handle(events.Event{Type: events.EventModelRequest, SessionID: "sess-1"})
	if got := stripANSI(buf.String()); got != "thinking\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

type stubRenderer struct {
	typ  events.EventType
	text string
}

func (s stubRenderer) Type() events.EventType { return s.typ }

func (s stubRenderer) Handle(r *Renderer, _ events.Event) {
	r.ScrollbackAppend(newNoticeCell(s.text))
}

func TestWrapAndTruncate(t *testing.T) {
	lines := wrapAndTruncate("one two three four five six", 9, 2)
	if len(lines) != 2 || lines[0] != "one two" || lines[1] != "three" {
		t.Fatalf("unexpected lines %#v", lines)
	}
	if got := wrapAndTruncate("", 10, 3); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}
