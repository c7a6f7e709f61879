package prompts

import (
	"embed"
	"fmt"
	"strings"
	"time"
)

//go:embed text/*
var builtinFS embed.FS

// Name 表示内置提示词的唯一标识。
type Name string

const (
	PromptSearchAssistant Name = "search-assistant"
)

const todayPlaceholder = "{{TODAY}}"

var builtinFiles = map[Name]string{
	PromptSearchAssistant: "text/search_assistant.md",
}

var builtinPrompts = func() map[Name]string {
	out := make(map[Name]string, len(builtinFiles))
	for name, path := range builtinFiles {
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("load builtin prompt %q from %s: %v", name, path, err))
		}
		out[name] = strings.TrimSpace(string(data))
	}
	return out
}()

// Builtin 返回指定名称的内置提示词文本。
func Builtin(name Name) (string, bool) {
	text, ok := builtinPrompts[name]
	return text, ok
}

// System renders the search assistant system prompt for the given day.
// A non-empty override replaces the builtin text; it may use the same date placeholder.
func System(now time.Time, override string) string {
	text := strings.TrimSpace(override)
	if text == "" {
		text = builtinPrompts[PromptSearchAssistant]
	}
	return strings.ReplaceAll(text, todayPlaceholder, now.Format("Monday, January 2, 2006"))
}
