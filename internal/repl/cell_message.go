package repl

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

type answerCell struct {
	text string
	md   *glamour.TermRenderer
}

func newAnswerCell(text string, md *glamour.TermRenderer) HistoryCell {
	return answerCell{text: text, md: md}
}

func (c answerCell) ID() string { return "" }

func (c answerCell) Render(width int) []string {
	label := aiLabelStyle.Render("AI:")
	text := strings.TrimSpace(c.text)
	if c.md != nil {
		return append([]string{label}, strings.Split(renderMarkdown(c.md, text), "\n")...)
	}
	lines := strings.Split(text, "\n")
	lines[0] = label + " " + lines[0]
	return lines
}

type noticeCell struct {
	text  string
	error bool
}

func newNoticeCell(text string) HistoryCell {
	return noticeCell{text: text}
}

func newErrorCell(text string) HistoryCell {
	return noticeCell{text: text, error: true}
}

func (c noticeCell) ID() string { return "" }

func (c noticeCell) Render(width int) []string {
	if c.error {
		return []string{errStyle.Render("error:") + " " + strings.TrimSpace(c.text)}
	}
	var out []string
	for _, line := range strings.Split(strings.TrimRight(c.text, "\n"), "\n") {
		out = append(out, noticeStyle.Render(line))
	}
	return out
}
