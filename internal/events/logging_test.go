package events

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"search-chat/internal/logger"

	"github.com/sirupsen/logrus"
)

func TestLogHandlerWritesOneLinePerEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	bus := NewBus()
	defer bus.Close()
	bus.Handle(LogHandler(newBufferLogger(buf)))

	bus.Publish(Event{Type: EventModelRequest, SessionID: "s1"})
	bus.Publish(Event{Type: EventToolStarted, SessionID: "s1", Round: 1, Tool: "web_search", ToolCallID: "c1", Detail: `{"query":"go"}`})
	bus.Publish(Event{Type: EventToolCompleted, SessionID: "s1", Round: 1, Tool: "web_search", ToolCallID: "c1", Error: "http_502"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "model.request") || !strings.Contains(lines[0], "session_id=s1") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "tool=web_search") || !strings.Contains(lines[1], `detail={"query":"go"}`) {
		t.Fatalf("unexpected tool start line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARNING]") || !strings.Contains(lines[2], "error=http_502") {
		t.Fatalf("unexpected tool failure line %q", lines[2])
	}
}

func TestNewLogSinkWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.log")
	handle, closer := NewLogSink(path)
	if closer == nil {
		t.Fatalf("expected file closer")
	}
	handle(Event{Type: EventTurnCompleted, SessionID: "s2", Round: 2})
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "turn.completed") || !strings.Contains(string(data), "round=2") {
		t.Fatalf("unexpected log content %q", string(data))
	}
}

func newBufferLogger(buf *bytes.Buffer) *logger.LogEntry {
	l := logrus.New()
	l.SetFormatter(logger.PlainFormatter{})
	l.SetOutput(buf)
	return logrus.NewEntry(l)
}
