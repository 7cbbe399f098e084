package display

import (
	"fmt"
	"strings"
)

// Table renders an aligned text table with optional color support.
// Cells may contain ANSI-styled text; alignment uses visible width.
type Table struct {
	headers []string
	rows    [][]string
	// highlightRow is the 0-based row index to highlight. -1 = none.
	highlightRow int
	// highlightCol is the 0-based column index to highlight (typically
	// "today" in the week grid). -1 = none.
	highlightCol int
}

// NewTable creates a new table with the given column headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers:      headers,
		highlightRow: -1,
		highlightCol: -1,
	}
}

// AddRow appends a row of values. The number of values should match the number of headers.
func (t *Table) AddRow(values []string) {
	t.rows = append(t.rows, values)
}

// SetHighlightRow sets which row index (0-based) should be highlighted.
func (t *Table) SetHighlightRow(idx int) {
	t.highlightRow = idx
}

// SetHighlightCol sets which column index (0-based) gets a bold header.
func (t *Table) SetHighlightCol(idx int) {
	t.highlightCol = idx
}

// Render produces the formatted table string with leading indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	// Calculate column widths from visible text.
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := visibleWidth(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder

	// Header row. The highlighted column keeps its accent through the
	// bold wrapper.
	headers := make([]string, len(t.headers))
	copy(headers, t.headers)
	if t.highlightCol >= 0 && t.highlightCol < len(headers) {
		headers[t.highlightCol] = Accent(headers[t.highlightCol])
	}
	sb.WriteString("  " + Bold(formatRow(headers, widths)) + "\n")

	// Separator row using Unicode box-drawing dashes.
	sepParts := make([]string, len(widths))
	for i, w := range widths {
		sepParts[i] = strings.Repeat("─", w)
	}
	sepLine := "  " + strings.Join(sepParts, "  ")
	sb.WriteString(Dim(sepLine) + "\n")

	// Data rows.
	for i, row := range t.rows {
		line := formatRow(row, widths)
		if i == t.highlightRow {
			sb.WriteString("  " + Accent(line) + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}

	return sb.String()
}

// formatRow formats a row of cells using the given column widths,
// padding by visible width so styled cells stay aligned.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := w - visibleWidth(cell)
		if pad < 0 {
			pad = 0
		}
		parts[i] = cell + strings.Repeat(" ", pad)
	}
	return strings.Join(parts, "  ")
}

// visibleWidth counts the runes of text after stripping ANSI escape
// sequences.
func visibleWidth(s string) int {
	width := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\033':
			inEscape = true
		default:
			width++
		}
	}
	return width
}

// Keyval renders a single "label: value" line with the label dimmed.
func Keyval(label, value string) string {
	return fmt.Sprintf("  %s %s", Dim(label+":"), value)
}
