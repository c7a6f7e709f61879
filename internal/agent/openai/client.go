package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"search-chat/internal/agent"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxRetries  int
}

// Client 基于 chat completions 协议调用 OpenAI 兼容的模型服务。
type Client struct {
	api         *openai.Client
	model       string
	temperature float64
}

// 确保Client实现了agent.ModelClient接口
var _ agent.ModelClient = (*Client)(nil)

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("missing api key")
	}
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	cfg := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(strings.TrimRight(normalizeBaseURL(base), "/") + "/"),
		option.WithMaxRetries(retries),
	}
	client := openai.NewClient(cfg...)

	return &Client{
		api:         &client,
		model:       opts.Model,
		temperature: opts.Temperature,
	}, nil
}

func (c *Client) resolveModel(model string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return c.model
}

// Invoke 发送一次 chat completion 请求，并把第一个 choice 映射为 assistant 消息。
func (c *Client) Invoke(ctx context.Context, prompt agent.Prompt) (agent.Message, error) {
	params := c.buildParams(prompt)
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return agent.Message{}, wrapHTTPError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return agent.Message{}, fmt.Errorf("%w: no completion choices returned", agent.ErrMalformedReply)
	}
	return fromChatMessage(resp.Choices[0].Message)
}

func (c *Client) buildParams(prompt agent.Prompt) openai.ChatCompletionNewParams {
	temperature := c.temperature
	if prompt.Temperature != nil {
		temperature = *prompt.Temperature
	}
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.resolveModel(prompt.Model)),
		Messages:    toChatMessages(prompt.System, prompt.Messages),
		Temperature: openai.Float(temperature),
	}
	if len(prompt.Tools) > 0 {
		params.Tools = toChatTools(prompt.Tools)
	}
	return params
}

func toChatMessages(system string, msgs []agent.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if text := strings.TrimSpace(system); text != "" {
		out = append(out, openai.SystemMessage(text))
	}
	for _, msg := range msgs {
		switch msg.Role {
		case agent.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case agent.RoleAssistant:
			out = append(out, toAssistantParam(msg))
		case agent.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func toAssistantParam(msg agent.Message) openai.ChatCompletionMessageParamUnion {
	if !msg.HasToolCalls() {
		return openai.AssistantMessage(msg.Content)
	}
	param := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		param.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}
	for _, call := range msg.ToolCalls {
		param.ToolCalls = append(param.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: string(call.ArgumentsOrEmpty()),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &param}
}

func toChatTools(specs []agent.ToolSpec) []openai.ChatCompletionToolUnionParam {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		fn := shared.FunctionDefinitionParam{
			Name:       name,
			Parameters: spec.Parameters,
			Strict:     openai.Bool(true),
		}
		if desc := strings.TrimSpace(spec.Description); desc != "" {
			fn.Description = openai.String(desc)
		}
		tools = append(tools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: fn,
			},
		})
	}
	return tools
}

func fromChatMessage(msg openai.ChatCompletionMessage) (agent.Message, error) {
	out := agent.Message{Role: agent.RoleAssistant, Content: msg.Content}
	for _, call := range msg.ToolCalls {
		if strings.TrimSpace(call.ID) == "" || strings.TrimSpace(call.Function.Name) == "" {
			return agent.Message{}, fmt.Errorf("%w: tool call without id or name", agent.ErrMalformedReply)
		}
		args := strings.TrimSpace(call.Function.Arguments)
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return agent.Message{}, fmt.Errorf("%w: invalid arguments for %s", agent.ErrMalformedReply, call.Function.Name)
		}
		out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	if out.Content == "" && len(out.ToolCalls) == 0 {
		return agent.Message{}, fmt.Errorf("%w: empty assistant message", agent.ErrMalformedReply)
	}
	return out, nil
}

func wrapHTTPError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		raw := strings.TrimSpace(apiErr.RawJSON())
		if raw != "" {
			return fmt.Errorf("http_%d: %s", apiErr.StatusCode, raw)
		}
		return fmt.Errorf("http_%d: %v", apiErr.StatusCode, err)
	}
	return err
}
