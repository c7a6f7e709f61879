package repl

import (
	"errors"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// ErrAborted 表示用户按下 Ctrl-C 放弃当前输入。
var ErrAborted = errors.New("prompt aborted")

// LineReader reads one line of user input per call; io.EOF ends the loop.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// LinerReader 基于 liner 提供行编辑与上下键历史。
type LinerReader struct {
	state *liner.State
}

// NewLinerReader takes over the terminal; history seeds the up-arrow history, oldest first.
func NewLinerReader(history []string) *LinerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeCommand)
	for _, entry := range history {
		state.AppendHistory(entry)
	}
	return &LinerReader{state: state}
}

func (r *LinerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	switch {
	case err == nil:
		return line, nil
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrAborted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	default:
		return "", err
	}
}

func (r *LinerReader) AppendHistory(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	r.state.AppendHistory(line)
}

// Close 释放终端，恢复原有模式。
func (r *LinerReader) Close() error {
	return r.state.Close()
}

// completeCommand completes slash commands on Tab.
func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, item := range builtinItems {
		if strings.HasPrefix(item.DisplayName(), line) {
			out = append(out, item.DisplayName())
		}
	}
	return out
}
