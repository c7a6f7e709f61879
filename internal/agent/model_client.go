package agent

import (
	"context"
	"errors"

	"search-chat/internal/logger"
)

// ErrMalformedReply 表示模型返回的内容无法映射为 Message。
var ErrMalformedReply = errors.New("malformed model reply")

// ModelClient 定义模型客户端接口：输入完整对话，返回一条 assistant 消息（可能携带工具调用）。
type ModelClient interface {
	Invoke(ctx context.Context, prompt Prompt) (Message, error)
}

// EchoClient is a fallback when no API key is available.
type EchoClient struct {
	Prefix string
}

func (c EchoClient) Invoke(_ context.Context, prompt Prompt) (Message, error) {
	for i := len(prompt.Messages) - 1; i >= 0; i-- {
		msg := prompt.Messages[i]
		if msg.Role == RoleUser {
			return Message{Role: RoleAssistant, Content: c.Prefix + msg.Content}, nil
		}
	}
	return Message{}, errors.New("no messages to echo")
}

// ToLLMMessages 将内部消息转换为日志友好的结构。
func ToLLMMessages(msgs []Message) []logger.LLMMessage {
	out := make([]logger.LLMMessage, 0, len(msgs))
	for _, msg := range msgs {
		entry := logger.LLMMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			entry.ToolCalls = append(entry.ToolCalls, call.Name+"#"+call.ID)
		}
		out = append(out, entry)
	}
	return out
}
