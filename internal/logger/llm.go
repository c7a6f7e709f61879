package logger

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLLMLogPath 模型交互日志的默认路径。
const DefaultLLMLogPath = "logs/llm.log"

// LLMMessage 表示一次请求中的对话消息。
type LLMMessage struct {
	Role       string
	Content    string
	ToolCalls  []string
	ToolCallID string
}

// LLMLogger 负责输出与 LLM 交互的请求、响应与错误信息。
type LLMLogger interface {
	Request(model string, messages []LLMMessage, round int)
	Reply(model string, reply LLMMessage, round int)
	Error(model string, err error, round int)
}

// LLMLog 是全局唯一的 LLM 日志器实例。
var LLMLog LLMLogger = NewLLMLogger(nil)

// GlobalLLMLogger 返回全局唯一的 LLM 日志实例。
func GlobalLLMLogger() LLMLogger {
	return LLMLog
}

// SetGlobalLLMLogger 覆盖全局 LLM 日志实例，传入 nil 将重置为默认实现。
func SetGlobalLLMLogger(logger LLMLogger) {
	if logger == nil {
		logger = NewLLMLogger(nil)
	}
	LLMLog = logger
}

// SetupLLMFile 将 LLM 日志写入独立文件，并替换全局 LLM 日志实例。
func SetupLLMFile(logPath string) (io.Closer, string, error) {
	if logPath == "" {
		logPath = DefaultLLMLogPath
	}
	entry, closer, resolved, err := SetupComponentFile("llm", logPath)
	if err != nil {
		return nil, resolved, err
	}
	SetGlobalLLMLogger(&StdLLMLogger{logger: entry})
	return closer, resolved, nil
}

// StdLLMLogger 使用 logrus 输出日志。
type StdLLMLogger struct {
	logger *logrus.Entry
}

// NewLLMLogger 构造默认的 LLM 日志记录器。
func NewLLMLogger(l *Logger) *StdLLMLogger {
	if l == nil {
		l = root()
	}
	return &StdLLMLogger{logger: logrus.NewEntry(l).WithField("component", "llm")}
}

// Request 记录一次请求的上下文。
func (l *StdLLMLogger) Request(model string, messages []LLMMessage, round int) {
	l.printf(logrus.InfoLevel, "-> request round=%d model=%s messages=%d", round, model, len(messages))
	for i, msg := range messages {
		l.printf(logrus.DebugLevel, "-> message[%d] %s", i, describe(msg))
	}
}

// Reply 记录模型返回的消息。
func (l *StdLLMLogger) Reply(model string, reply LLMMessage, round int) {
	l.printf(logrus.InfoLevel, "<- reply round=%d model=%s %s", round, model, describe(reply))
}

// Error 记录请求错误。
func (l *StdLLMLogger) Error(model string, err error, round int) {
	l.printf(logrus.ErrorLevel, "!! error round=%d model=%s err=%v", round, model, err)
}

// NoopLLMLogger 忽略所有日志输出。
type NoopLLMLogger struct{}

// NewNoopLLMLogger 创建一个不输出的记录器。
func NewNoopLLMLogger() NoopLLMLogger {
	return NoopLLMLogger{}
}

func (NoopLLMLogger) Request(model string, messages []LLMMessage, round int) {}
func (NoopLLMLogger) Reply(model string, reply LLMMessage, round int)        {}
func (NoopLLMLogger) Error(model string, err error, round int)               {}

// Request 记录一次 LLM 请求。
func Request(model string, messages []LLMMessage, round int) {
	if LLMLog != nil {
		LLMLog.Request(model, messages, round)
	}
}

// Reply 记录一次 LLM 响应。
func Reply(model string, reply LLMMessage, round int) {
	if LLMLog != nil {
		LLMLog.Reply(model, reply, round)
	}
}

// Error 记录请求错误。
func Error(model string, err error, round int) {
	if LLMLog != nil {
		LLMLog.Error(model, err, round)
	}
}

func (l *StdLLMLogger) printf(level logrus.Level, format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	if !l.logger.Logger.IsLevelEnabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	caller := findCaller()
	entry := l.logger
	if caller != "" {
		entry = entry.WithField("caller", caller)
	}
	entry.Log(level, msg)
}

func describe(msg LLMMessage) string {
	var sb strings.Builder
	sb.WriteString("role=" + msg.Role)
	if msg.ToolCallID != "" {
		sb.WriteString(" tool_call_id=" + msg.ToolCallID)
	}
	if len(msg.ToolCalls) > 0 {
		sb.WriteString(" tool_calls=" + strings.Join(msg.ToolCalls, ","))
	}
	sb.WriteString(" content=" + Sanitize(msg.Content))
	return sb.String()
}

// Sanitize 将换行转义，保证单条日志占一行。
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}

// Preview 截断过长文本用于日志。
func Preview(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	if limit < 3 {
		return text[:limit]
	}
	return text[:limit-3] + "..."
}

func findCaller() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.Contains(frame.File, "logger/llm.go") {
			return fmt.Sprintf("%s:%d", shortenFilePath(frame.File), frame.Line)
		}
		if !more {
			break
		}
	}
	return ""
}
