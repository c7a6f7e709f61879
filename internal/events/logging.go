package events

import (
	"io"

	"search-chat/internal/logger"
)

// DefaultEventLogPath 回合事件日志的默认路径。
const DefaultEventLogPath = "logs/events.log"

// log 复用全局 logger，标记事件组件。
var log = logger.Named("events")

// NewLogSink opens path and returns a handler for Bus.Handle that writes one line per event.
// When the file cannot be opened the handler falls back to the global logger and the closer is nil.
func NewLogSink(path string) (func(Event), io.Closer) {
	entry, closer := newEventLogger(path)
	return LogHandler(entry), closer
}

func newEventLogger(path string) (*logger.LogEntry, io.Closer) {
	if path == "" {
		return logger.Named("events"), nil
	}
	entry, closer, _, err := logger.SetupComponentFile("events", path)
	if err != nil {
		log.Warnf("failed to set up events log file (%s): %v", path, err)
		return logger.Named("events"), nil
	}
	return entry, closer
}

// LogHandler 把事件写成一行结构化日志；带 Error 的事件记为 warning。
func LogHandler(entry *logger.LogEntry) func(Event) {
	return func(evt Event) {
		fields := logger.Fields{
			"session_id": evt.SessionID,
			"round":      evt.Round,
		}
		if evt.Tool != "" {
			fields["tool"] = evt.Tool
			fields["tool_call_id"] = evt.ToolCallID
		}
		if evt.ToolCalls > 0 {
			fields["tool_calls"] = evt.ToolCalls
		}
		if evt.Detail != "" {
			fields["detail"] = logger.Preview(logger.Sanitize(evt.Detail), 200)
		}
		e := entry.WithFields(fields)
		if evt.Error != "" {
			e.WithField("error", evt.Error).Warn(string(evt.Type))
			return
		}
		e.Info(string(evt.Type))
	}
}
