package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"search-chat/internal/agent"
	"search-chat/internal/logger"
)

// Handler 定义具体工具的执行入口。
type Handler interface {
	Name() string
	Spec() agent.ToolSpec
	Handle(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry maps tool names to handlers and runs requested calls.
type Registry struct {
	handlers map[string]Handler
	order    []string
	timeout  time.Duration
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register adds h, replacing any handler with the same name.
func (r *Registry) Register(h Handler) {
	if h == nil {
		return
	}
	name := h.Name()
	if _, exists := r.handlers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.handlers[name] = h
}

// SetTimeout bounds every Execute call; zero disables the bound.
func (r *Registry) SetTimeout(d time.Duration) {
	r.timeout = d
}

func (r *Registry) Handler(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Specs returns tool definitions in registration order.
func (r *Registry) Specs() []agent.ToolSpec {
	if r == nil {
		return nil
	}
	specs := make([]agent.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.handlers[name].Spec())
	}
	return specs
}

// Execute runs one tool call. A non-nil error is always mirrored in the returned Result.
func (r *Registry) Execute(ctx context.Context, call agent.ToolCall) (Result, error) {
	ensureToolsLogger()
	start := time.Now()
	res := Result{ID: call.ID, Name: call.Name}

	h, ok := r.Handler(call.Name)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
		return finish(res, start, "", err), err
	}

	runCtx := ctx
	cancel := func() {}
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	logToolStart(call)
	out, err := h.Handle(runCtx, call.ArgumentsOrEmpty())
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%w after %s: %v", ErrToolTimeout, r.timeout, err)
	}
	res = finish(res, start, out, err)
	logToolResult(res)
	return res, err
}

func finish(res Result, start time.Time, out string, err error) Result {
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		return res
	}
	res.Status = StatusCompleted
	res.Output = out
	return res
}

func logToolStart(call agent.ToolCall) {
	toolsLog.WithFields(logger.Fields{
		"tool_id":   call.ID,
		"tool_name": call.Name,
		"args":      logger.Sanitize(logger.Preview(string(call.Arguments), 400)),
	}).Info("tool call started")
}

func logToolResult(res Result) {
	fields := logger.Fields{
		"tool_id":     res.ID,
		"tool_name":   res.Name,
		"tool_status": res.Status,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if res.Failed() {
		toolsLog.WithFields(fields).WithField("error", res.Error).Warn("tool call failed")
		return
	}
	fields["output_preview"] = logger.Sanitize(logger.Preview(res.Output, 200))
	toolsLog.WithFields(fields).Info("tool call completed")
}
