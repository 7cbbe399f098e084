package display

import (
	"testing"
)

func TestWrap_Enabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	got := Bold("hello")
	if got != "\033[1mhello\033[0m" {
		t.Errorf("Bold(\"hello\") = %q, want ANSI bold wrapped", got)
	}
}

func TestWrap_Disabled(t *testing.T) {
	SetEnabled(false)

	got := Bold("hello")
	if got != "hello" {
		t.Errorf("Bold(\"hello\") with colors disabled = %q, want plain \"hello\"", got)
	}
}

func TestColors(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tests := []struct {
		name string
		fn   func(string) string
		code string
	}{
		{"Dim", Dim, "\033[2m"},
		{"Red", Red, "\033[31m"},
		{"Green", Green, "\033[32m"},
		{"Yellow", Yellow, "\033[33m"},
		{"Cyan", Cyan, "\033[36m"},
		{"Gray", Gray, "\033[90m"},
	}
	for _, tt := range tests {
		got := tt.fn("x")
		want := tt.code + "x" + "\033[0m"
		if got != want {
			t.Errorf("%s(\"x\") = %q, want %q", tt.name, got, want)
		}
	}
}

func TestAccent_Enabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	got := Accent("next")
	want := "\033[1m\033[36mnext\033[0m"
	if got != want {
		t.Errorf("Accent(\"next\") = %q, want %q", got, want)
	}
}

func TestAccent_Disabled(t *testing.T) {
	SetEnabled(false)

	got := Accent("next")
	if got != "next" {
		t.Errorf("Accent(\"next\") with colors disabled = %q, want plain \"next\"", got)
	}
}

func TestMarks(t *testing.T) {
	SetEnabled(false)

	if Done() != "✓" {
		t.Errorf("Done() = %q, want plain check mark", Done())
	}
	if Missed() != "·" {
		t.Errorf("Missed() = %q, want plain dot", Missed())
	}

	SetEnabled(true)
	defer SetEnabled(false)
	if Done() != "\033[32m✓\033[0m" {
		t.Errorf("Done() = %q, want green check mark", Done())
	}
}

func TestBoldf(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	got := Boldf("count: %d", 42)
	want := "\033[1mcount: 42\033[0m"
	if got != want {
		t.Errorf("Boldf = %q, want %q", got, want)
	}
}

func TestEnabled_ReportsState(t *testing.T) {
	SetEnabled(true)
	if !Enabled() {
		t.Error("Enabled() should return true after SetEnabled(true)")
	}

	SetEnabled(false)
	if Enabled() {
		t.Error("Enabled() should return false after SetEnabled(false)")
	}
}
