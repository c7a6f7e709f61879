package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"search-chat/internal/agent"
	"search-chat/internal/conversation"
	"search-chat/internal/events"
	"search-chat/internal/logger"
	"search-chat/internal/session"
	"search-chat/internal/tools"
)

const (
	// DefaultMaxRounds 单个回合内允许的工具解析轮数上限。
	DefaultMaxRounds      = 5
	defaultRequestTimeout = 2 * time.Minute

	toolErrorOutputLimit = 400
)

// Options 定义引擎的可注入依赖。
type Options struct {
	Client           agent.ModelClient
	Tools            *tools.Registry
	Store            session.Store
	Bus              *events.Bus
	Model            string
	System           string
	Temperature      *float64
	MaxRounds        int
	RequestTimeout   time.Duration
	AbortOnToolError bool
	ErrorLogPath     string
}

// Engine 是回合控制器：驱动 模型调用 -> 路由 -> 工具执行 的循环，并持有各会话的 Conversation。
type Engine struct {
	client           agent.ModelClient
	tools            *tools.Registry
	store            session.Store
	bus              *events.Bus
	model            string
	system           string
	temperature      *float64
	maxRounds        int
	requestTimeout   time.Duration
	abortOnToolError bool

	sessionsMu sync.Mutex
	sessions   map[string]*sessionState

	activeMu sync.Mutex
	active   map[string]struct{}
}

type sessionState struct {
	conv    *conversation.Conversation
	created time.Time
}

// NewEngine 构造一个新的执行引擎。
func NewEngine(opts Options) *Engine {
	ensureErrorLogger(opts.ErrorLogPath)
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	reqTimeout := opts.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = defaultRequestTimeout
	}
	registry := opts.Tools
	if registry == nil {
		registry = tools.NewRegistry()
	}
	return &Engine{
		client:           opts.Client,
		tools:            registry,
		store:            opts.Store,
		bus:              opts.Bus,
		model:            opts.Model,
		system:           opts.System,
		temperature:      opts.Temperature,
		maxRounds:        maxRounds,
		requestTimeout:   reqTimeout,
		abortOnToolError: opts.AbortOnToolError,
		sessions:         map[string]*sessionState{},
		active:           map[string]struct{}{},
	}
}

// Model 返回默认模型标识。
func (e *Engine) Model() string {
	return e.model
}

// ProcessTurn runs one user turn to completion and returns the final answer.
// Whatever was appended before a failure stays in history and is persisted.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, userText string) (string, error) {
	if e.client == nil {
		return "", errors.New("model client not configured")
	}
	if err := session.CheckID(sessionID); err != nil {
		return "", stageError{Stage: stageInput, Err: err}
	}
	if !e.acquire(sessionID) {
		return "", ErrSessionBusy
	}
	defer e.release(sessionID)

	st, err := e.sessionFor(sessionID)
	if err != nil {
		e.fail(sessionID, 0, err)
		return "", err
	}
	if err := st.conv.Append(agent.Message{Role: agent.RoleUser, Content: userText}); err != nil {
		return "", stageError{Stage: stageInput, Err: err}
	}

	start := time.Now()
	answer, rounds, err := e.runTurn(ctx, st.conv)
	e.persist(sessionID, st)
	if err != nil {
		e.fail(sessionID, rounds, err)
		return "", err
	}
	log.WithFields(logger.Fields{
		"type":        "turn.done",
		"session_id":  sessionID,
		"rounds":      rounds,
		"messages":    st.conv.Len(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("turn completed")
	e.publish(events.Event{Type: events.EventTurnCompleted, SessionID: sessionID, Round: rounds})
	return answer, nil
}

// runTurn 循环调用模型直到回复不再请求工具；返回最终回答与已完成的工具轮数。
func (e *Engine) runTurn(ctx context.Context, conv *conversation.Conversation) (string, int, error) {
	toolRounds := 0
	for {
		reply, err := e.invokeModel(ctx, conv, toolRounds)
		if err != nil {
			return "", toolRounds, err
		}
		if err := conv.Append(reply); err != nil {
			return "", toolRounds, stageError{Stage: stageModel, Err: fmt.Errorf("%w: %w", ErrMalformedReply, err)}
		}

		switch Route(reply) {
		case StateDone:
			return reply.Content, toolRounds, nil
		case StateAwaitingTools:
			if toolRounds >= e.maxRounds {
				e.closeUnresolved(conv, reply, "tool loop limit reached")
				return "", toolRounds, stageError{
					Stage: stageRoute,
					Err:   fmt.Errorf("%w: more than %d tool rounds", ErrToolLoopExceeded, e.maxRounds),
				}
			}
			toolRounds++
			if err := e.resolveTools(ctx, conv, reply, toolRounds); err != nil {
				return "", toolRounds, err
			}
		}
	}
}

func (e *Engine) invokeModel(ctx context.Context, conv *conversation.Conversation, round int) (agent.Message, error) {
	if err := ctx.Err(); err != nil {
		return agent.Message{}, stageError{Stage: stageModel, Err: err}
	}
	prompt := agent.Prompt{
		Model:       e.model,
		System:      e.system,
		Messages:    conv.Snapshot(),
		Tools:       e.tools.Specs(),
		Temperature: e.temperature,
	}
	e.publish(events.Event{Type: events.EventModelRequest, SessionID: conv.SessionID(), Round: round})
	logger.Request(e.model, agent.ToLLMMessages(prompt.Messages), round)

	runCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()
	reply, err := e.client.Invoke(runCtx, prompt)
	if err != nil {
		logger.Error(e.model, err, round)
		return agent.Message{}, stageError{Stage: stageModel, Err: classifyModelError(ctx, runCtx, e.requestTimeout, err)}
	}
	// 客户端未填 role 时按 assistant 处理；其他 role 视为畸形回复。
	if reply.Role == "" {
		reply.Role = agent.RoleAssistant
	}
	if reply.Role != agent.RoleAssistant {
		err := fmt.Errorf("%w: unexpected role %q", ErrMalformedReply, reply.Role)
		logger.Error(e.model, err, round)
		return agent.Message{}, stageError{Stage: stageModel, Err: err}
	}
	logger.Reply(e.model, agent.ToLLMMessages([]agent.Message{reply})[0], round)
	e.publish(events.Event{
		Type:      events.EventModelReply,
		SessionID: conv.SessionID(),
		Round:     round,
		ToolCalls: len(reply.ToolCalls),
	})
	return reply, nil
}

func classifyModelError(parent, run context.Context, timeout time.Duration, err error) error {
	switch {
	case parent.Err() != nil:
		return parent.Err()
	case errors.Is(run.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrModelTimeout, timeout)
	case errors.Is(err, agent.ErrMalformedReply):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
}

// resolveTools 依次执行回复中的工具调用，每个调用恰好追加一条 tool 消息。
func (e *Engine) resolveTools(ctx context.Context, conv *conversation.Conversation, reply agent.Message, round int) error {
	for i, call := range reply.ToolCalls {
		if err := ctx.Err(); err != nil {
			e.closeUnresolved(conv, agent.Message{ToolCalls: reply.ToolCalls[i:]}, "turn cancelled")
			return stageError{Stage: stageTools, Err: err}
		}
		e.publish(events.Event{
			Type:       events.EventToolStarted,
			SessionID:  conv.SessionID(),
			Round:      round,
			Tool:       call.Name,
			ToolCallID: call.ID,
			Detail:     string(call.ArgumentsOrEmpty()),
		})

		res, err := e.tools.Execute(ctx, call)
		content := res.Output
		completed := events.Event{
			Type:       events.EventToolCompleted,
			SessionID:  conv.SessionID(),
			Round:      round,
			Tool:       call.Name,
			ToolCallID: call.ID,
		}
		if err != nil {
			toolErr := fmt.Errorf("%w: %s: %w", ErrToolExecutionFailed, call.Name, err)
			e.logToolFailure(conv.SessionID(), round, call, toolErr)
			content = errorPayload(err)
			completed.Error = toolErr.Error()
			if appendErr := conv.Append(toolMessage(call.ID, content)); appendErr != nil {
				return stageError{Stage: stageTools, Err: appendErr}
			}
			e.publish(completed)
			if e.abortOnToolError {
				e.closeUnresolved(conv, agent.Message{ToolCalls: reply.ToolCalls[i+1:]}, "skipped after earlier tool failure")
				return stageError{Stage: stageTools, Err: toolErr}
			}
			continue
		}
		if err := conv.Append(toolMessage(call.ID, content)); err != nil {
			return stageError{Stage: stageTools, Err: err}
		}
		e.publish(completed)
	}
	return nil
}

// closeUnresolved 为未执行的工具调用补上错误结果，保证历史中每个调用都有对应的 tool 消息。
func (e *Engine) closeUnresolved(conv *conversation.Conversation, reply agent.Message, reason string) {
	for _, call := range reply.ToolCalls {
		if err := conv.Append(toolMessage(call.ID, errorPayload(errors.New(reason)))); err != nil {
			log.Warnf("close tool call %s: %v", call.ID, err)
		}
	}
}

func toolMessage(callID, content string) agent.Message {
	if content == "" {
		content = "{}"
	}
	return agent.Message{Role: agent.RoleTool, ToolCallID: callID, Content: content}
}

func errorPayload(err error) string {
	raw, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return `{"error":"tool failed"}`
	}
	return string(raw)
}

// History 返回会话历史快照；会话尚未载入时从存储读取。
func (e *Engine) History(sessionID string) []agent.Message {
	st, err := e.sessionFor(sessionID)
	if err != nil {
		return nil
	}
	return st.conv.Snapshot()
}

// LastAnswer returns the final answer of the most recent completed turn.
func (e *Engine) LastAnswer(sessionID string) (string, bool) {
	e.sessionsMu.Lock()
	st := e.sessions[sessionID]
	e.sessionsMu.Unlock()
	if st == nil {
		return "", false
	}
	return st.conv.LastAnswer()
}

// Resume 从存储载入已保存的会话，返回恢复的消息数；会话不存在时返回 session.ErrNotFound，回合进行中返回 ErrSessionBusy。
func (e *Engine) Resume(sessionID string) (int, error) {
	if e.store == nil {
		return 0, session.ErrNotFound
	}
	if !e.acquire(sessionID) {
		return 0, ErrSessionBusy
	}
	defer e.release(sessionID)
	rec, err := e.store.Load(sessionID)
	if err != nil {
		return 0, err
	}
	e.sessionsMu.Lock()
	e.sessions[sessionID] = &sessionState{
		conv:    conversation.New(sessionID, rec.Messages...),
		created: rec.Created,
	}
	e.sessionsMu.Unlock()
	return len(rec.Messages), nil
}

// Reset replaces the session's conversation with an empty one.
// The stored record is overwritten on the next completed turn.
func (e *Engine) Reset(sessionID string) error {
	if !e.acquire(sessionID) {
		return ErrSessionBusy
	}
	defer e.release(sessionID)
	e.sessionsMu.Lock()
	e.sessions[sessionID] = &sessionState{conv: conversation.New(sessionID)}
	e.sessionsMu.Unlock()
	return nil
}

func (e *Engine) sessionFor(sessionID string) (*sessionState, error) {
	e.sessionsMu.Lock()
	defer e.sessionsMu.Unlock()
	if st := e.sessions[sessionID]; st != nil {
		return st, nil
	}
	st := &sessionState{conv: conversation.New(sessionID)}
	if e.store != nil {
		rec, err := e.store.Load(sessionID)
		switch {
		case err == nil:
			st = &sessionState{conv: conversation.New(sessionID, rec.Messages...), created: rec.Created}
		case errors.Is(err, session.ErrNotFound):
		default:
			return nil, stageError{Stage: stageSession, Err: err}
		}
	}
	e.sessions[sessionID] = st
	return st, nil
}

// persist 保存会话；失败只记录日志，不影响本回合的结果。
func (e *Engine) persist(sessionID string, st *sessionState) {
	if e.store == nil {
		return
	}
	rec := session.Record{
		ID:       sessionID,
		Model:    e.model,
		Messages: st.conv.Snapshot(),
		Created:  st.created,
	}
	if _, err := e.store.Save(rec); err != nil {
		errorLog.WithError(err).WithFields(logger.Fields{
			"stage":      stageSession,
			"session_id": sessionID,
			"messages":   len(rec.Messages),
		}).Error("save session failed")
		return
	}
	if st.created.IsZero() {
		st.created = time.Now()
	}
}

func (e *Engine) fail(sessionID string, rounds int, err error) {
	errorLog.WithError(err).WithFields(logger.Fields{
		"type":       "turn.failed",
		"stage":      StageOf(err),
		"session_id": sessionID,
		"rounds":     rounds,
		"model":      e.model,
	}).Error("turn failed")
	e.publish(events.Event{Type: events.EventTurnFailed, SessionID: sessionID, Round: rounds, Error: err.Error()})
}

func (e *Engine) logToolFailure(sessionID string, round int, call agent.ToolCall, err error) {
	errorLog.WithError(err).WithFields(logger.Fields{
		"stage":        stageTools,
		"session_id":   sessionID,
		"round":        round,
		"tool_id":      call.ID,
		"tool_name":    call.Name,
		"args_preview": logger.Sanitize(logger.Preview(string(call.Arguments), toolErrorOutputLimit)),
	}).Error("tool call failed")
}

func (e *Engine) publish(evt events.Event) {
	if e.bus == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	e.bus.Publish(evt)
}

func (e *Engine) acquire(sessionID string) bool {
	e.activeMu.Lock()
	defer e.activeMu.Unlock()
	if _, busy := e.active[sessionID]; busy {
		return false
	}
	e.active[sessionID] = struct{}{}
	return true
}

func (e *Engine) release(sessionID string) {
	e.activeMu.Lock()
	delete(e.active, sessionID)
	e.activeMu.Unlock()
}
