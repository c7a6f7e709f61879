package repl

import (
	"fmt"
	"strings"

	"search-chat/internal/events"

	"github.com/mattn/go-runewidth"
	"github.com/tidwall/gjson"
)

const maxToolDetailLines = 6

type toolEventCell struct {
	evt events.Event
}

func newToolEventCell(evt events.Event) HistoryCell {
	return toolEventCell{evt: evt}
}

func (c toolEventCell) ID() string { return c.evt.ToolCallID }

func (c toolEventCell) Render(width int) []string {
	if width <= 0 {
		width = 80
	}
	switch c.evt.Type {
	case events.EventToolStarted:
		header, detail := toolStartSummary(c.evt)
		if detail == "" {
			return []string{aiLabelStyle.Render(header)}
		}
		return []string{aiLabelStyle.Render(header) + " " + dimStyle.Render(detail)}
	case events.EventToolCompleted:
		if c.evt.Error == "" {
			return []string{okStyle.Render("✓ ") + dimStyle.Render(c.evt.Tool+" completed")}
		}
		out := []string{errStyle.Render("✗ ") + dimStyle.Render(c.evt.Tool+" failed")}
		for _, line := range wrapAndTruncate(c.evt.Error, width-4, maxToolDetailLines) {
			out = append(out, dimStyle.Render("  └ "+line))
		}
		return out
	default:
		return []string{dimStyle.Render(fmt.Sprintf("%s %s", c.evt.Type, c.evt.Tool))}
	}
}

func toolStartSummary(evt events.Event) (prefix string, detail string) {
	switch evt.Tool {
	case "web_search":
		prefix = "🔍 searching"
		detail = strings.TrimSpace(gjson.Get(evt.Detail, "query").String())
	default:
		prefix = "• running " + evt.Tool
		detail = strings.TrimSpace(evt.Detail)
		if detail == "{}" {
			detail = ""
		}
	}
	return prefix, detail
}

func wrapAndTruncate(text string, width int, maxLines int) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	if width <= 0 {
		width = 80
	}
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if raw == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrapLineWords(raw, width)...)
		if maxLines > 0 && len(lines) >= maxLines {
			return lines[:maxLines]
		}
	}
	return lines
}

func wrapLineWords(line string, width int) []string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return []string{line}
	}
	var out []string
	cur := ""
	for _, word := range strings.Fields(line) {
		if cur == "" {
			cur = word
			continue
		}
		if runewidth.StringWidth(cur)+1+runewidth.StringWidth(word) <= width {
			cur += " " + word
			continue
		}
		out = append(out, cur)
		cur = word
	}
	if cur != "" {
		out = append(out, cur)
	}
	if len(out) == 0 {
		return []string{line}
	}
	return out
}
