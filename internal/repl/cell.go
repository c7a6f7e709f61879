package repl

// HistoryCell is an append-only render block for terminal output.
// Each progress event or finished answer maps to one cell.
type HistoryCell interface {
	// ID is an optional stable identifier for the cell (e.g., tool call id).
	ID() string
	// Render returns styled lines for the given terminal width.
	Render(width int) []string
}
