package repl

import (
	"strings"
	"testing"
)

func TestResolveSlashAction(t *testing.T) {
	cases := []struct {
		input   string
		kind    ActionKind
		command Command
		args    string
	}{
		{input: "hello there", kind: ActionNone},
		{input: "/bye", kind: ActionSubmitCommand, command: CommandBye},
		{input: "  /BYE  ", kind: ActionSubmitCommand, command: CommandBye},
		{input: "/quit", kind: ActionSubmitCommand, command: CommandBye},
		{input: "/exit", kind: ActionSubmitCommand, command: CommandBye},
		{input: "/history", kind: ActionSubmitCommand, command: CommandHistory},
		{input: "/copy now", kind: ActionSubmitCommand, command: CommandCopy, args: "now"},
		{input: "/", kind: ActionError},
		{input: "/nope", kind: ActionError},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			act := ResolveSlashAction(tc.input)
			if act.Kind != tc.kind {
				t.Fatalf("kind = %v, want %v", act.Kind, tc.kind)
			}
			if act.Command != tc.command {
				t.Fatalf("command = %q, want %q", act.Command, tc.command)
			}
			if act.Args != tc.args {
				t.Fatalf("args = %q, want %q", act.Args, tc.args)
			}
		})
	}
}

func TestResolveSlashAction_SuggestsCloseCommand(t *testing.T) {
	act := ResolveSlashAction("/hist")
	if act.Kind != ActionError {
		t.Fatalf("expected error action, got %v", act.Kind)
	}
	if !strings.Contains(act.Message, "did you mean /history?") {
		t.Fatalf("unexpected message %q", act.Message)
	}

	act = ResolveSlashAction("/zzz")
	if !strings.Contains(act.Message, "type /help") {
		t.Fatalf("unexpected message %q", act.Message)
	}
}

func TestSuggest(t *testing.T) {
	if got := Suggest(""); len(got) != len(builtinItems) {
		t.Fatalf("empty query should list every command, got %d", len(got))
	}
	got := Suggest("/rst")
	if len(got) == 0 || got[0].Command != CommandReset {
		t.Fatalf("expected /reset first, got %#v", got)
	}
	// 别名命中时返回主命令且不重复。
	got = Suggest("qui")
	if len(got) != 1 || got[0].Command != CommandBye {
		t.Fatalf("expected /bye via alias, got %#v", got)
	}
}

func TestCompleteCommand(t *testing.T) {
	if got := completeCommand("/h"); len(got) != 2 {
		t.Fatalf("expected /help and /history, got %#v", got)
	}
	if got := completeCommand("/copy x"); got != nil {
		t.Fatalf("expected no completion after arguments, got %#v", got)
	}
	if got := completeCommand("hello"); got != nil {
		t.Fatalf("expected no completion for plain text, got %#v", got)
	}
}
