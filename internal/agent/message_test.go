package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMessageValidate(t *testing.T) {
	cases := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{name: "user", msg: Message{Role: RoleUser, Content: "hi"}},
		{name: "missing role", msg: Message{Content: "hi"}, wantErr: true},
		{name: "unknown role", msg: Message{Role: "robot", Content: "hi"}, wantErr: true},
		{name: "empty content", msg: Message{Role: RoleAssistant}, wantErr: true},
		{
			name: "empty content with tool calls",
			msg: Message{Role: RoleAssistant, ToolCalls: []ToolCall{
				{ID: "call_1", Name: "web_search", Arguments: json.RawMessage(`{"query":"go"}`)},
			}},
		},
		{
			name: "tool call missing id",
			msg: Message{Role: RoleAssistant, ToolCalls: []ToolCall{
				{Name: "web_search"},
			}},
			wantErr: true,
		},
		{
			name: "tool call missing name",
			msg: Message{Role: RoleAssistant, ToolCalls: []ToolCall{
				{ID: "call_1"},
			}},
			wantErr: true,
		},
		{
			name: "tool calls on user message",
			msg: Message{Role: RoleUser, Content: "x", ToolCalls: []ToolCall{
				{ID: "call_1", Name: "web_search"},
			}},
			wantErr: true,
		},
		{name: "tool result", msg: Message{Role: RoleTool, Content: "{}", ToolCallID: "call_1"}},
		{name: "tool result without id", msg: Message{Role: RoleTool, Content: "{}"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Validate() expected error")
				}
				if !errors.Is(err, ErrInvalidMessage) {
					t.Fatalf("Validate() error = %v, want ErrInvalidMessage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
		})
	}
}

func TestMessageCloneDoesNotShareToolCalls(t *testing.T) {
	orig := Message{
		Role: RoleAssistant,
		ToolCalls: []ToolCall{
			{ID: "call_1", Name: "web_search", Arguments: json.RawMessage(`{"query":"a"}`)},
		},
	}
	cp := orig.Clone()
	cp.ToolCalls[0].Name = "changed"
	cp.ToolCalls[0].Arguments[2] = 'X'

	if orig.ToolCalls[0].Name != "web_search" {
		t.Fatalf("clone shares tool call slice")
	}
	if string(orig.ToolCalls[0].Arguments) != `{"query":"a"}` {
		t.Fatalf("clone shares argument bytes: %s", orig.ToolCalls[0].Arguments)
	}
}

func TestToolCallArgumentsOrEmpty(t *testing.T) {
	if got := string((ToolCall{}).ArgumentsOrEmpty()); got != "{}" {
		t.Fatalf("ArgumentsOrEmpty() = %q, want {}", got)
	}
	if got := string((ToolCall{Arguments: json.RawMessage(`{"a":1}`)}).ArgumentsOrEmpty()); got != `{"a":1}` {
		t.Fatalf("ArgumentsOrEmpty() = %q", got)
	}
}

func TestEchoClientRepeatsLastUserMessage(t *testing.T) {
	client := EchoClient{Prefix: "assistant: "}
	got, err := client.Invoke(context.Background(), Prompt{Messages: []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	}})
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if got.Role != RoleAssistant || got.Content != "assistant: second" {
		t.Fatalf("Invoke() = %+v", got)
	}
	if got.HasToolCalls() {
		t.Fatalf("echo reply should not request tools")
	}

	if _, err := client.Invoke(context.Background(), Prompt{}); err == nil {
		t.Fatalf("Invoke() on empty prompt expected error")
	}
}

func TestToolSpecSchemaHelpers(t *testing.T) {
	spec := ToolSpec{
		Name: "web_search",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
			"required": []any{"query"},
		},
	}
	if got := spec.RequiredParams(); len(got) != 1 || got[0] != "query" {
		t.Fatalf("RequiredParams() = %v", got)
	}
	if _, ok := spec.Properties()["query"]; !ok {
		t.Fatalf("Properties() missing query")
	}
}
