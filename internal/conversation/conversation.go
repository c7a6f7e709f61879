// Package conversation holds the ordered, append-only message history of one session.
package conversation

import (
	"search-chat/internal/agent"
)

// Conversation 按追加顺序保存一个会话的全部消息，追加后的消息不会被修改、删除或重排。
// 同一时刻只允许一个回合持有它，因此内部不加锁。
type Conversation struct {
	sessionID string
	messages  []agent.Message
}

// New creates a conversation for sessionID, optionally seeded with restored history.
// Seed messages are copied as-is; they were validated when first recorded.
func New(sessionID string, seed ...agent.Message) *Conversation {
	c := &Conversation{
		sessionID: sessionID,
		messages:  make([]agent.Message, 0, len(seed)),
	}
	for _, msg := range seed {
		c.messages = append(c.messages, msg.Clone())
	}
	return c
}

// SessionID 返回所属会话标识。
func (c *Conversation) SessionID() string {
	return c.sessionID
}

// Append validates msg and adds it to the end of the history.
func (c *Conversation) Append(msg agent.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	c.messages = append(c.messages, msg.Clone())
	return nil
}

// Snapshot returns a deep copy of the full ordered history.
func (c *Conversation) Snapshot() []agent.Message {
	out := make([]agent.Message, len(c.messages))
	for i, msg := range c.messages {
		out[i] = msg.Clone()
	}
	return out
}

// Len 返回当前消息数。
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recently appended message.
func (c *Conversation) Last() (agent.Message, bool) {
	if len(c.messages) == 0 {
		return agent.Message{}, false
	}
	return c.messages[len(c.messages)-1].Clone(), true
}

// LastAnswer returns the content of the latest assistant message without tool calls.
func (c *Conversation) LastAnswer() (string, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		msg := c.messages[i]
		if msg.Role == agent.RoleAssistant && !msg.HasToolCalls() {
			return msg.Content, true
		}
	}
	return "", false
}
