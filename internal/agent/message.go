package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// ToolCall 是助手消息中携带的一次结构化工具调用请求。
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message 是对话中的一条记录。ToolCalls 仅出现在 assistant 消息上，ToolCallID 仅出现在 tool 消息上。
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

var ErrInvalidMessage = errors.New("invalid message")

// Validate checks the minimal shape a message needs before it can be recorded.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleTool, RoleSystem:
	case "":
		return fmt.Errorf("%w: missing role", ErrInvalidMessage)
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, m.Role)
	}
	if m.Content == "" && len(m.ToolCalls) == 0 {
		return fmt.Errorf("%w: %s message has empty content", ErrInvalidMessage, m.Role)
	}
	if len(m.ToolCalls) > 0 && m.Role != RoleAssistant {
		return fmt.Errorf("%w: tool calls on %s message", ErrInvalidMessage, m.Role)
	}
	if m.Role == RoleTool && strings.TrimSpace(m.ToolCallID) == "" {
		return fmt.Errorf("%w: tool message without tool_call_id", ErrInvalidMessage)
	}
	for i, call := range m.ToolCalls {
		if strings.TrimSpace(call.ID) == "" {
			return fmt.Errorf("%w: tool_calls[%d] missing id", ErrInvalidMessage, i)
		}
		if strings.TrimSpace(call.Name) == "" {
			return fmt.Errorf("%w: tool_calls[%d] missing name", ErrInvalidMessage, i)
		}
	}
	return nil
}

// HasToolCalls reports whether the message requests any tool invocation.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	out := m
	if len(m.ToolCalls) > 0 {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, call := range m.ToolCalls {
			out.ToolCalls[i] = ToolCall{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: append(json.RawMessage(nil), call.Arguments...),
			}
		}
	}
	return out
}

// ArgumentsOrEmpty returns the raw arguments, substituting an empty JSON object when unset.
func (c ToolCall) ArgumentsOrEmpty() json.RawMessage {
	if len(strings.TrimSpace(string(c.Arguments))) == 0 {
		return json.RawMessage("{}")
	}
	return c.Arguments
}
