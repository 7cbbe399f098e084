package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/salahtrack/salahtrack/internal/prayer"
	"github.com/salahtrack/salahtrack/internal/records"
	"github.com/salahtrack/salahtrack/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := NewRootCmd("test")
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// TestHelp verifies that --help shows the expected subcommands.
func TestHelp(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}

	expectedSubcommands := []string{
		"mark",
		"unmark",
		"toggle",
		"week",
		"stats",
		"purge",
		"search",
		"next",
		"login",
		"logout",
		"whoami",
		"config",
		"methods",
	}
	for _, sub := range expectedSubcommands {
		if !strings.Contains(out, sub) {
			t.Errorf("--help output missing subcommand %q", sub)
		}
	}
}

// TestMarkRejectsUnknownPrayer verifies argument validation happens before
// any network traffic.
func TestMarkRejectsUnknownPrayer(t *testing.T) {
	_, err := execute(t, "mark", "brunch")
	if err == nil {
		t.Fatal("mark with unknown prayer should fail")
	}
}

func TestMarkRejectsBadDate(t *testing.T) {
	_, err := execute(t, "mark", "fajr", "--date", "junk")
	if err == nil || !strings.Contains(err.Error(), "invalid --date") {
		t.Fatalf("err = %v, want invalid --date", err)
	}
}

func TestPurgeRejectsBadDate(t *testing.T) {
	_, err := execute(t, "purge", "not-a-date", "--yes")
	if err == nil || !strings.Contains(err.Error(), "invalid date") {
		t.Fatalf("err = %v, want invalid date", err)
	}
}

func TestPurgeAbortsWithoutConfirmation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := NewRootCmd("test")
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader("n\n"))
	root.SetArgs([]string{"purge", "2024-06-01"})

	if err := root.Execute(); err != nil {
		t.Fatalf("aborted purge should not error: %v", err)
	}
	if !strings.Contains(buf.String(), "Aborted") {
		t.Errorf("output = %q, want abort notice", buf.String())
	}
}

func TestStatsRejectsBadMonth(t *testing.T) {
	_, err := execute(t, "stats", "--month", "13")
	if err == nil || !strings.Contains(err.Error(), "invalid --month") {
		t.Fatalf("err = %v, want invalid --month", err)
	}
}

func TestMarkArgs(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	flagMarkDate = ""
	name, date, err := markArgs("fajr", now)
	if err != nil {
		t.Fatalf("markArgs error: %v", err)
	}
	if name != prayer.Fajr {
		t.Errorf("name = %v, want Fajr", name)
	}
	if date != "2024-06-01" {
		t.Errorf("date = %q, want today", date)
	}

	flagMarkDate = "2024-05-20"
	defer func() { flagMarkDate = "" }()
	_, date, err = markArgs("isha", now)
	if err != nil {
		t.Fatalf("markArgs error: %v", err)
	}
	if date != "2024-05-20" {
		t.Errorf("date = %q, want flag value", date)
	}
}

func TestMarkErrorMapping(t *testing.T) {
	tests := []struct {
		in   error
		want string
	}{
		{records.ErrAuthRequired, "salahtrack login"},
		{store.ErrFutureDate, "future dates"},
		{store.ErrConcurrentMutation, "in flight"},
		{records.ErrNetwork, "unreachable"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		got := markError(tt.in, prayer.Fajr, "2024-06-01")
		if !strings.Contains(got.Error(), tt.want) {
			t.Errorf("markError(%v) = %q, want substring %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := formatClock("15:02", "3:04 PM"); got != "3:02 PM" {
		t.Errorf("formatClock 12h = %q", got)
	}
	if got := formatClock("15:02", "15:04"); got != "15:02" {
		t.Errorf("formatClock 24h = %q", got)
	}
	if got := formatClock("bogus", "15:04"); got != "bogus" {
		t.Errorf("malformed clock should pass through, got %q", got)
	}
}

// TestCalculationMethods_NoDuplicateIDs ensures no duplicate method IDs.
func TestCalculationMethods_NoDuplicateIDs(t *testing.T) {
	seen := make(map[int]bool)
	for _, m := range CalculationMethods {
		if seen[m.ID] {
			t.Errorf("duplicate calculation method ID: %d", m.ID)
		}
		seen[m.ID] = true
	}
}

// TestCalculationMethods_IDsAreValid ensures method IDs are in the expected range.
func TestCalculationMethods_IDsAreValid(t *testing.T) {
	for _, m := range CalculationMethods {
		if m.ID < 0 || m.ID > 23 {
			t.Errorf("method ID %d out of range 0-23", m.ID)
		}
		if m.Name == "" {
			t.Errorf("method ID %d has empty name", m.ID)
		}
	}
}
