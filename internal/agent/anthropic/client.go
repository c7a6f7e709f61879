package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"search-chat/internal/agent"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 2048

type Options struct {
	Token       string
	BaseURL     string
	Model       string
	Temperature float64
	MaxRetries  int
	MaxTokens   int64
}

type Client struct {
	api         *anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

var _ agent.ModelClient = (*Client)(nil)

func New(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("missing token")
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(token),
		option.WithMaxRetries(retries),
	}
	if base := normalizeBaseURL(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	client := anthropic.NewClient(reqOpts...)
	return &Client{
		api:         &client,
		model:       strings.TrimSpace(opts.Model),
		temperature: opts.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		base = strings.TrimSuffix(base, "/v1")
		base = strings.TrimRight(base, "/")
	}
	return base
}

func (c *Client) resolveModel(m string) anthropic.Model {
	if strings.TrimSpace(m) != "" {
		return anthropic.Model(strings.TrimSpace(m))
	}
	return anthropic.Model(c.model)
}

// Invoke 调用 Messages API；tool_use 块会映射为 ToolCalls。
func (c *Client) Invoke(ctx context.Context, prompt agent.Prompt) (agent.Message, error) {
	params := buildMessageParams(prompt, c.resolveModel(prompt.Model))
	params.MaxTokens = c.maxTokens
	temperature := c.temperature
	if prompt.Temperature != nil {
		temperature = *prompt.Temperature
	}
	params.Temperature = anthropic.Float(temperature)

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return agent.Message{}, wrapHTTPError(err)
	}
	if msg == nil {
		return agent.Message{}, fmt.Errorf("%w: empty response", agent.ErrMalformedReply)
	}
	return fromContent(msg.Content)
}

func buildMessageParams(prompt agent.Prompt, model anthropic.Model) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	if text := strings.TrimSpace(prompt.System); text != "" {
		system = append(system, anthropic.TextBlockParam{Text: text})
	}

	// 连续的 tool 消息合并为一个 user turn，多个 tool_result 块按原顺序排列。
	var pendingResults []anthropic.ContentBlockParamUnion
	flushResults := func() {
		if len(pendingResults) == 0 {
			return
		}
		messages = append(messages, anthropic.NewUserMessage(pendingResults...))
		pendingResults = nil
	}

	for _, msg := range prompt.Messages {
		if msg.Role == agent.RoleTool {
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, isErrorPayload(msg.Content)))
			continue
		}
		flushResults()

		text := strings.TrimSpace(msg.Content)
		switch msg.Role {
		case agent.RoleSystem:
			if text != "" {
				system = append(system, anthropic.TextBlockParam{Text: text})
			}
		case agent.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.ArgumentsOrEmpty(), call.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			if text != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
			}
		}
	}
	flushResults()

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: defaultMaxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(prompt.Tools) > 0 {
		params.Tools = toTools(prompt.Tools)
	}
	return params
}

func toTools(specs []agent.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		tool := anthropic.ToolParam{
			Name: name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: spec.Properties(),
				Required:   spec.RequiredParams(),
			},
		}
		if desc := strings.TrimSpace(spec.Description); desc != "" {
			tool.Description = anthropic.String(desc)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

func fromContent(blocks []anthropic.ContentBlockUnion) (agent.Message, error) {
	out := agent.Message{Role: agent.RoleAssistant}
	var sb strings.Builder
	for _, block := range blocks {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.Name) == "" {
				return agent.Message{}, fmt.Errorf("%w: tool_use without id or name", agent.ErrMalformedReply)
			}
			args := json.RawMessage(strings.TrimSpace(string(v.Input)))
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			if !json.Valid(args) {
				return agent.Message{}, fmt.Errorf("%w: invalid input for %s", agent.ErrMalformedReply, v.Name)
			}
			out.ToolCalls = append(out.ToolCalls, agent.ToolCall{ID: v.ID, Name: v.Name, Arguments: args})
		}
	}
	out.Content = strings.TrimSpace(sb.String())
	if out.Content == "" && len(out.ToolCalls) == 0 {
		return agent.Message{}, fmt.Errorf("%w: empty assistant message", agent.ErrMalformedReply)
	}
	return out, nil
}

// isErrorPayload reports whether a tool message carries the {"error": ...} failure payload.
func isErrorPayload(content string) bool {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return false
	}
	_, ok := payload["error"]
	return ok && len(payload) == 1
}

func wrapHTTPError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		if raw := strings.TrimSpace(apiErr.RawJSON()); raw != "" {
			return fmt.Errorf("http_%d: %s", apiErr.StatusCode, raw)
		}
		return fmt.Errorf("http_%d: %v", apiErr.StatusCode, err)
	}
	return err
}
