package prayer

import (
	"fmt"
	"strings"
	"time"
)

// ishaEnd is the policy end of the Isha window: end of the same calendar
// day, never the next day's Fajr.
const ishaEnd = "23:59"

// Window is the time-of-day span during which a prayer may be marked
// complete. Start and End are "HH:MM" 24-hour clock strings.
type Window struct {
	Name  Name   `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// DailyTimings is the ordered set of five prayer windows for one calendar
// date and one location.
type DailyTimings struct {
	Date     string   `json:"date"` // YYYY-MM-DD
	Windows  []Window `json:"windows"`
	Place    string   `json:"place,omitempty"`
	Fallback bool     `json:"fallback,omitempty"` // true when the static default schedule is in use
}

// Window returns the window for the named prayer, or nil.
func (d *DailyTimings) Window(name Name) *Window {
	for i := range d.Windows {
		if d.Windows[i].Name == name {
			return &d.Windows[i]
		}
	}
	return nil
}

// RawTimings is the subset of provider timing fields the window derivation
// consumes. Values are "HH:MM" strings, possibly with a timezone suffix
// like "05:17 (BST)" which is stripped during normalization.
type RawTimings struct {
	Fajr    string
	Sunrise string
	Dhuhr   string
	Asr     string
	Maghrib string
	Isha    string
}

// WindowsFromRaw derives the five prayer windows for the given date from
// raw provider timings. Each prayer's window closes when the next timing
// begins; Isha closes at 23:59. Any missing or malformed field rejects the
// whole set, so partial provider payloads never propagate inward.
func WindowsFromRaw(date string, raw RawTimings) (*DailyTimings, error) {
	bounds := []struct {
		name       Name
		start, end string
	}{
		{Fajr, raw.Fajr, raw.Sunrise},
		{Dhuhr, raw.Dhuhr, raw.Asr},
		{Asr, raw.Asr, raw.Maghrib},
		{Maghrib, raw.Maghrib, raw.Isha},
		{Isha, raw.Isha, ishaEnd},
	}

	windows := make([]Window, 0, len(bounds))
	for _, b := range bounds {
		start, err := normClock(b.start)
		if err != nil {
			return nil, fmt.Errorf("bad %s start: %w", b.name, err)
		}
		end, err := normClock(b.end)
		if err != nil {
			return nil, fmt.Errorf("bad %s end: %w", b.name, err)
		}
		windows = append(windows, Window{Name: b.name, Start: start, End: end})
	}

	return &DailyTimings{Date: date, Windows: windows}, nil
}

// Markable reports whether w may be marked complete at the instant now.
// It is false when rec is already completed for now's calendar date, and
// otherwise true iff start <= now < end with both instants built on now's
// date. Isha's effective end is pinned to 23:59 regardless of w.End.
// Malformed clock strings degrade to false rather than failing; this gates
// a user action and must never propagate a fault.
func Markable(w Window, now time.Time, rec *Record) bool {
	if rec != nil && rec.Completed && rec.Date == DateOf(now) {
		return false
	}

	start, err := at(now, w.Start)
	if err != nil {
		return false
	}

	endClock := w.End
	if w.Name == Isha {
		endClock = ishaEnd
	}
	end, err := at(now, endClock)
	if err != nil {
		return false
	}

	return !now.Before(start) && now.Before(end)
}

// Started reports whether w's start has already passed at now, i.e. the
// prayer has happened (or is happening) today. Malformed windows report
// false.
func Started(w Window, now time.Time) bool {
	start, err := at(now, w.Start)
	if err != nil {
		return false
	}
	return !now.Before(start)
}

// NextWindow returns the first window of d whose start is after now, or
// nil if every prayer has already begun.
func NextWindow(d *DailyTimings, now time.Time) *Window {
	for i := range d.Windows {
		if !Started(d.Windows[i], now) {
			return &d.Windows[i]
		}
	}
	return nil
}

// CurrentWindow returns the window containing now, ignoring completion
// state, or nil.
func CurrentWindow(d *DailyTimings, now time.Time) *Window {
	for i := range d.Windows {
		if Markable(d.Windows[i], now, nil) {
			return &d.Windows[i]
		}
	}
	return nil
}

// at combines now's calendar date with an "HH:MM" clock string in now's
// location.
func at(now time.Time, clock string) (time.Time, error) {
	h, m, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location()), nil
}

// normClock validates a raw provider time string and reduces it to a
// canonical "HH:MM" form.
func normClock(raw string) (string, error) {
	h, m, err := parseClock(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// parseClock parses a time string like "15:02" or "15:02 (BST)".
// Providers sometimes append a timezone suffix, which is discarded.
func parseClock(raw string) (hour, min int, err error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format: %q", raw)
	}

	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("time out of range: %q", raw)
	}

	return hour, min, nil
}
