// Package instructions loads user-written guidance that is appended to the system prompt.
package instructions

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ProjectDocFilename 是目录级说明文件名。
	ProjectDocFilename = "SEARCH_CHAT.md"
	// ProjectOverrideFilename 存在时替代同目录的 ProjectDocFilename。
	ProjectOverrideFilename = "SEARCH_CHAT.override.md"
	// GlobalFilename 位于 ~/.search-chat 下，对所有会话生效。
	GlobalFilename = "instructions.md"
)

// Discover reads ~/.search-chat/instructions.md followed by the SEARCH_CHAT.md chain
// from the filesystem root down to workdir. An empty workdir means the current directory.
func Discover(home, workdir string) string {
	var parts []string

	if home != "" {
		if data, err := os.ReadFile(filepath.Join(home, GlobalFilename)); err == nil {
			parts = appendNonEmpty(parts, string(data))
		}
	}

	dir := workdir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	if dir == "" {
		return strings.Join(parts, "\n\n")
	}
	dir = filepath.Clean(dir)

	chain := []string{}
	prev := ""
	for dir != prev {
		chain = append(chain, dir)
		prev = dir
		dir = filepath.Dir(dir)
	}
	// 自顶向下，越靠近 workdir 越靠后。
	for i := len(chain) - 1; i >= 0; i-- {
		curr := chain[i]
		if data, err := os.ReadFile(filepath.Join(curr, ProjectOverrideFilename)); err == nil {
			parts = appendNonEmpty(parts, string(data))
			continue
		}
		if data, err := os.ReadFile(filepath.Join(curr, ProjectDocFilename)); err == nil {
			parts = appendNonEmpty(parts, string(data))
		}
	}
	return strings.Join(parts, "\n\n")
}

// Compose appends extra instructions to the base system prompt.
func Compose(base, extra string) string {
	base = strings.TrimSpace(base)
	extra = strings.TrimSpace(extra)
	switch {
	case extra == "":
		return base
	case base == "":
		return extra
	default:
		return base + "\n\n" + extra
	}
}

func appendNonEmpty(parts []string, text string) []string {
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return append(parts, trimmed)
	}
	return parts
}
