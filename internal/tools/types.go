package tools

import (
	"errors"
	"time"
)

var (
	// ErrUnknownTool 表示模型请求了未注册的工具。
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolTimeout 表示工具在限定时间内未返回。
	ErrToolTimeout = errors.New("tool call timed out")
	// ErrInvalidArguments 表示工具参数无法解析或缺少必填字段。
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

const (
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Result 是一次工具调用的结果；Output 为成功时返回给模型的负载。
type Result struct {
	ID       string
	Name     string
	Status   string
	Output   string
	Error    string
	Duration time.Duration
}

// Failed reports whether the call produced an error.
func (r Result) Failed() bool {
	return r.Status == StatusError
}
