package conversation

import "search-chat/internal/agent"

// approxBytesPerToken 粗估：不依赖 tokenizer，按 4 字节 ≈ 1 token。
const approxBytesPerToken = 4

// Usage 是按消息内容粗估的 token 数。
type Usage struct {
	Input  int64
	Output int64
}

func (u Usage) Total() int64 {
	return u.Input + u.Output
}

// ApproxTokenCount returns ceil(len(text)/4).
func ApproxTokenCount(text string) int64 {
	if text == "" {
		return 0
	}
	return int64((len(text) + approxBytesPerToken - 1) / approxBytesPerToken)
}

// EstimateUsage counts assistant text and tool call arguments as output; everything else is input.
func EstimateUsage(msgs []agent.Message) Usage {
	var u Usage
	for _, msg := range msgs {
		tokens := ApproxTokenCount(msg.Content)
		if msg.Role != agent.RoleAssistant {
			u.Input += tokens
			continue
		}
		u.Output += tokens
		for _, call := range msg.ToolCalls {
			u.Output += ApproxTokenCount(call.Name) + ApproxTokenCount(string(call.Arguments))
		}
	}
	return u
}
