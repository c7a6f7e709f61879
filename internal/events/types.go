package events

import "time"

// EventType 标识回合进度事件的类型。
type EventType string

const (
	EventModelRequest  EventType = "model.request"
	EventModelReply    EventType = "model.reply"
	EventToolStarted   EventType = "tool.started"
	EventToolCompleted EventType = "tool.completed"
	EventTurnCompleted EventType = "turn.completed"
	EventTurnFailed    EventType = "turn.failed"
)

// Event describes progress within one turn.
type Event struct {
	Type       EventType
	SessionID  string
	Round      int
	Tool       string
	ToolCallID string
	ToolCalls  int
	// Detail 携带工具参数预览等附加信息。
	Detail     string
	Error      string
	Timestamp  time.Time
}
