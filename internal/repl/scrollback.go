package repl

import (
	"fmt"
	"io"
	"os"
)

// Scrollback 是终端的“历史区”：内容一旦完成就作为不可变 block 追加写入 writer。
// 它只负责输出，不负责持久化历史。
type Scrollback struct {
	w     io.Writer
	width int
}

type ScrollbackOptions struct {
	Writer io.Writer
	Width  int
}

func NewScrollback(opts ScrollbackOptions) *Scrollback {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	return &Scrollback{w: w, width: width}
}

func (s *Scrollback) Width() int {
	if s == nil {
		return 0
	}
	return s.width
}

// AppendCell 将一个已完成的 HistoryCell 写入 scrollback。
func (s *Scrollback) AppendCell(cell HistoryCell) {
	if s == nil || cell == nil || s.w == nil {
		return
	}
	for _, line := range cell.Render(s.width) {
		fmt.Fprintln(s.w, line)
	}
}
