package repl

import (
	"fmt"
	"io"
	"sync"

	"search-chat/internal/events"

	"github.com/charmbracelet/glamour"
)

// Renderer listens to turn progress events and writes them to the terminal as history cells.
type Renderer struct {
	mu sync.Mutex

	sessionID string
	renderers map[events.EventType]EventCellRenderer
	md        *glamour.TermRenderer

	scrollback *Scrollback
}

type RendererOptions struct {
	SessionID string
	Width     int
	Writer    io.Writer
	// Markdown 为 true 时答案经 glamour 渲染；非 TTY 输出应关闭。
	Markdown bool
}

// EventCellRenderer handles one EventType and may emit one or more cells.
type EventCellRenderer interface {
	Type() events.EventType
	Handle(r *Renderer, evt events.Event)
}

func NewRenderer(opts RendererOptions) *Renderer {
	r := &Renderer{
		sessionID:  opts.SessionID,
		renderers:  map[events.EventType]EventCellRenderer{},
		scrollback: NewScrollback(ScrollbackOptions{Writer: opts.Writer, Width: opts.Width}),
	}
	if opts.Markdown {
		r.md = newMarkdownRenderer(r.scrollback.Width())
	}
	for _, rr := range defaultCellRenderers() {
		r.renderers[rr.Type()] = rr
	}
	return r
}

func (r *Renderer) RegisterRenderer(renderer EventCellRenderer) {
	if renderer == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[renderer.Type()] = renderer
}

// SetSession 切换当前关注的会话；其他会话的事件会被忽略。
func (r *Renderer) SetSession(sessionID string) {
	r.mu.Lock()
	r.sessionID = sessionID
	r.mu.Unlock()
}

func (r *Renderer) Handle(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionID != "" && evt.SessionID != r.sessionID {
		return
	}
	if rr := r.renderers[evt.Type]; rr != nil {
		rr.Handle(r, evt)
	}
}

// Answer appends a final answer cell.
func (r *Renderer) Answer(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ScrollbackAppend(newAnswerCell(content, r.md))
}

func (r *Renderer) Notice(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ScrollbackAppend(newNoticeCell(fmt.Sprintf(format, args...)))
}

func (r *Renderer) Error(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ScrollbackAppend(newErrorCell(err.Error()))
}

func (r *Renderer) ScrollbackAppend(cell HistoryCell) {
	if r == nil || cell == nil || r.scrollback == nil {
		return
	}
	r.scrollback.AppendCell(cell)
}

func defaultCellRenderers() []EventCellRenderer {
	return []EventCellRenderer{
		modelRequestRenderer{},
		toolEventRenderer{typ: events.EventToolStarted},
		toolEventRenderer{typ: events.EventToolCompleted},
		// model.reply / turn.* 不单独显示：答案与错误由 REPL 循环输出。
	}
}

type modelRequestRenderer struct{}

func (modelRequestRenderer) Type() events.EventType { return events.EventModelRequest }

func (modelRequestRenderer) Handle(r *Renderer, evt events.Event) {
	text := "calling LLM..."
	if evt.Round > 0 {
		text = fmt.Sprintf("calling LLM... (after %d tool round(s))", evt.Round)
	}
	r.ScrollbackAppend(newNoticeCell(text))
}

type toolEventRenderer struct {
	typ events.EventType
}

func (t toolEventRenderer) Type() events.EventType { return t.typ }

func (toolEventRenderer) Handle(r *Renderer, evt events.Event) {
	r.ScrollbackAppend(newToolEventCell(evt))
}
