package display

import (
	"strings"
	"testing"
)

func TestNewTable(t *testing.T) {
	tbl := NewTable([]string{"Name", "Value"})
	if tbl == nil {
		t.Fatal("NewTable returned nil")
	}
	if tbl.highlightRow != -1 || tbl.highlightCol != -1 {
		t.Error("new table should have no highlights")
	}
}

func TestTable_EmptyHeaders(t *testing.T) {
	tbl := NewTable([]string{})
	if got := tbl.Render(); got != "" {
		t.Errorf("Render() with empty headers = %q, want empty", got)
	}
}

func TestTable_BasicRender(t *testing.T) {
	SetEnabled(false) // disable colors for predictable output

	tbl := NewTable([]string{"Prayer", "Sun", "Mon"})
	tbl.AddRow([]string{"Fajr", "✓", "·"})
	tbl.AddRow([]string{"Dhuhr", "·", "✓"})

	got := tbl.Render()

	if !strings.Contains(got, "Prayer") || !strings.Contains(got, "Sun") {
		t.Errorf("Render() missing headers in:\n%s", got)
	}
	if !strings.Contains(got, "─") {
		t.Error("Render() missing separator line")
	}
	if !strings.Contains(got, "Fajr") || !strings.Contains(got, "Dhuhr") {
		t.Error("Render() missing data rows")
	}
}

func TestTable_ColumnAlignment(t *testing.T) {
	SetEnabled(false)

	tbl := NewTable([]string{"A", "LongHeader"})
	tbl.AddRow([]string{"short", "x"})
	tbl.AddRow([]string{"y", "longer value"})

	got := tbl.Render()
	lines := strings.Split(strings.TrimSpace(got), "\n")

	// Header, separator, 2 data rows.
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d:\n%s", len(lines), got)
	}
}

func TestTable_StyledCellsStayAligned(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tbl := NewTable([]string{"Prayer", "Sun"})
	tbl.AddRow([]string{"Fajr", Green("✓")})
	tbl.AddRow([]string{"Maghrib", "·"})

	got := tbl.Render()
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), got)
	}
	// Both data rows must have the same visible width despite the ANSI
	// codes in the first one.
	if visibleWidth(lines[2]) != visibleWidth(lines[3]) {
		t.Errorf("styled row misaligned: %q vs %q", lines[2], lines[3])
	}
}

func TestTable_HighlightRow(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tbl := NewTable([]string{"Date", "Time"})
	tbl.AddRow([]string{"Mon", "05:00"})
	tbl.AddRow([]string{"Tue", "05:01"})
	tbl.SetHighlightRow(0)

	got := tbl.Render()
	lines := strings.Split(got, "\n")
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[2], "\033[") {
		t.Error("highlighted row should contain ANSI escape codes")
	}
}

func TestTable_HighlightCol(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tbl := NewTable([]string{"Prayer", "Sun", "Mon"})
	tbl.SetHighlightCol(1)
	tbl.AddRow([]string{"Fajr", "✓", "·"})

	got := tbl.Render()
	header := strings.Split(got, "\n")[0]
	if !strings.Contains(header, "\033[36m") {
		t.Error("highlighted column header should carry the accent color")
	}
}

func TestFormatRow(t *testing.T) {
	got := formatRow([]string{"abc", "de"}, []int{5, 4})
	want := "abc    de  "
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}

func TestFormatRow_MissingCells(t *testing.T) {
	got := formatRow([]string{"a"}, []int{3, 5})
	want := "a         "
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"abc", 3},
		{"", 0},
		{"\033[32m✓\033[0m", 1},
		{"\033[1m\033[36mnext\033[0m", 4},
		{"✓·✓", 3},
	}
	for _, tt := range tests {
		if got := visibleWidth(tt.in); got != tt.want {
			t.Errorf("visibleWidth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
