package prayer

import (
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{45 * time.Minute, "45m"},
		{-5 * time.Minute, "0m"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatNext(t *testing.T) {
	asr := Window{Name: Asr, Start: "15:02", End: "17:39"}
	now := time.Date(2024, 6, 1, 12, 47, 0, 0, time.UTC)

	tests := []struct {
		mode string
		want string
	}{
		{FormatTimeRemaining, "2h 15m"},
		{FormatNextPrayerTime, "15:02"},
		{FormatNameAndTime, "Asr 15:02"},
		{FormatShortNameAndTime, "A 15:02"},
		{FormatFull, "Asr 15:02 (2h 15m)"},
		{"{{.Name}} in {{.Remaining}}", "Asr in 2h 15m"},
		{"unknown-mode", "Asr 15:02"},
	}
	for _, tt := range tests {
		if got := FormatNext(asr, now, tt.mode, "15:04"); got != tt.want {
			t.Errorf("mode %q = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestFormatNext_PastStartRollsToTomorrow(t *testing.T) {
	fajr := Window{Name: Fajr, Start: "05:17", End: "06:48"}
	now := time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC)

	got := FormatNext(fajr, now, FormatFull, "15:04")
	if got != "Fajr 05:17 (7h 17m)" {
		t.Errorf("got %q, want countdown to tomorrow's occurrence", got)
	}
}

func TestFormatNext_MalformedWindow(t *testing.T) {
	w := Window{Name: Isha, Start: "bogus", End: "23:59"}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := FormatNext(w, now, FormatFull, "15:04"); got != "Isha --:--" {
		t.Errorf("got %q, want %q", got, "Isha --:--")
	}
}
