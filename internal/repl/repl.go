// Package repl implements the line-based terminal chat loop.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"search-chat/internal/agent"
	"search-chat/internal/events"
	"search-chat/internal/logger"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-runewidth"
)

// PromptText 是输入提示符。
const PromptText = "You: "

var log = logger.Named("repl")

// Engine 是 REPL 需要的回合控制器能力。
type Engine interface {
	ProcessTurn(ctx context.Context, sessionID, userText string) (string, error)
	History(sessionID string) []agent.Message
	LastAnswer(sessionID string) (string, bool)
	Reset(sessionID string) error
}

// HistoryRecorder persists submitted prompts for the next session's line editor.
type HistoryRecorder interface {
	Append(sessionID, text string) error
}

type Options struct {
	Engine    Engine
	SessionID string
	Reader    LineReader
	Writer    io.Writer
	Bus       *events.Bus
	History   HistoryRecorder
	Markdown  bool
	Width     int
	// Greeting 非空时在循环开始前输出。
	Greeting string
	// CopyToClipboard 默认使用系统剪贴板。
	CopyToClipboard func(string) error
}

// Result 汇总一次 REPL 运行。
type Result struct {
	SessionID string
	Turns     int
	Failures  int
}

type loop struct {
	opts     Options
	renderer *Renderer
	result   Result
}

// Run reads lines until /bye, EOF or Ctrl-C at the prompt. A failed turn is reported and the loop continues.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Engine == nil || opts.Reader == nil {
		return Result{}, errors.New("repl: engine and reader are required")
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.CopyToClipboard == nil {
		opts.CopyToClipboard = clipboard.WriteAll
	}
	l := &loop{
		opts: opts,
		renderer: NewRenderer(RendererOptions{
			SessionID: opts.SessionID,
			Width:     opts.Width,
			Writer:    opts.Writer,
			Markdown:  opts.Markdown,
		}),
		result: Result{SessionID: opts.SessionID},
	}
	if opts.Bus != nil {
		opts.Bus.Handle(l.renderer.Handle)
	}
	if opts.Greeting != "" {
		l.renderer.Notice("%s", opts.Greeting)
	}

	for {
		if err := ctx.Err(); err != nil {
			return l.result, nil
		}
		line, err := opts.Reader.Prompt(PromptText)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
				return l.result, nil
			}
			return l.result, err
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		opts.Reader.AppendHistory(text)
		l.recordHistory(text)

		act := ResolveSlashAction(text)
		switch act.Kind {
		case ActionError:
			l.renderer.Notice("%s", act.Message)
			continue
		case ActionSubmitCommand:
			if act.Command == CommandBye {
				return l.result, nil
			}
			l.runCommand(act)
			continue
		}
		l.runTurn(ctx, text)
	}
}

func (l *loop) runTurn(ctx context.Context, text string) {
	// Ctrl-C 在回合进行中只取消本回合。
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	answer, err := l.opts.Engine.ProcessTurn(turnCtx, l.opts.SessionID, text)
	l.result.Turns++
	if err != nil {
		l.result.Failures++
		log.WithError(err).WithField("session_id", l.opts.SessionID).Warn("turn failed")
		l.renderer.Error(err)
		return
	}
	l.renderer.Answer(answer)
}

func (l *loop) recordHistory(text string) {
	if l.opts.History == nil {
		return
	}
	if err := l.opts.History.Append(l.opts.SessionID, text); err != nil {
		log.Warnf("append prompt history: %v", err)
	}
}

func (l *loop) runCommand(act Action) {
	switch act.Command {
	case CommandHelp:
		var sb strings.Builder
		for _, item := range Items() {
			fmt.Fprintf(&sb, "%-10s %s\n", item.DisplayName(), item.Description)
		}
		l.renderer.Notice("%s", sb.String())
	case CommandSession:
		l.renderer.Notice("session %s", l.opts.SessionID)
	case CommandReset:
		if err := l.opts.Engine.Reset(l.opts.SessionID); err != nil {
			l.renderer.Error(err)
			return
		}
		l.renderer.Notice("conversation cleared")
	case CommandCopy:
		answer, ok := l.opts.Engine.LastAnswer(l.opts.SessionID)
		if !ok || strings.TrimSpace(answer) == "" {
			l.renderer.Notice("nothing to copy yet")
			return
		}
		if err := l.opts.CopyToClipboard(answer); err != nil {
			l.renderer.Error(fmt.Errorf("copy to clipboard: %w", err))
			return
		}
		l.renderer.Notice("copied %d characters", len([]rune(answer)))
	case CommandHistory:
		msgs := l.opts.Engine.History(l.opts.SessionID)
		if len(msgs) == 0 {
			l.renderer.Notice("no messages yet")
			return
		}
		l.renderer.Notice("%s", formatHistory(msgs, l.renderer.scrollback.Width()))
	}
}

// formatHistory 每条消息一行，按显示宽度截断。
func formatHistory(msgs []agent.Message, width int) string {
	if width <= 0 {
		width = 80
	}
	var sb strings.Builder
	for i, msg := range msgs {
		prefix := fmt.Sprintf("%3d %-9s ", i+1, msg.Role)
		body := strings.ReplaceAll(strings.TrimSpace(msg.Content), "\n", " ")
		if msg.HasToolCalls() {
			names := make([]string, 0, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				names = append(names, call.Name+string(call.ArgumentsOrEmpty()))
			}
			body = strings.TrimSpace(body + " → " + strings.Join(names, ", "))
		}
		limit := width - runewidth.StringWidth(prefix)
		if limit < 10 {
			limit = 10
		}
		sb.WriteString(prefix)
		sb.WriteString(runewidth.Truncate(body, limit, "…"))
		sb.WriteString("\n")
	}
	return sb.String()
}
