package execution

import (
	"errors"
	"fmt"

	"search-chat/internal/agent"
)

// 回合失败的错误类型，调用方用 errors.Is 区分。
var (
	ErrModelUnavailable    = errors.New("model unavailable")
	ErrModelTimeout        = errors.New("model call timed out")
	ErrMalformedReply      = agent.ErrMalformedReply
	ErrToolExecutionFailed = errors.New("tool execution failed")
	ErrToolLoopExceeded    = errors.New("tool loop exceeded")
	ErrSessionBusy         = errors.New("session busy")
)

const (
	stageInput   = "input"
	stageSession = "session"
	stageModel   = "model"
	stageRoute   = "route"
	stageTools   = "tools"
)

// stageError wraps an underlying error with a stable stage identifier so
// failure logs can say where in the turn it happened.
type stageError struct {
	Stage string
	Err   error
}

func (e stageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e stageError) Unwrap() error { return e.Err }

// StageOf returns the stage recorded on err, or "" when err carries none.
func StageOf(err error) string {
	var se stageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
