// Package prayer holds the domain model: the five tracked prayers, their
// daily time windows, completion records, and the pure window evaluation
// used to gate the mark-complete action.
package prayer

import (
	"fmt"
	"strings"
	"time"
)

// Name identifies one of the five tracked daily prayers.
type Name string

const (
	Fajr    Name = "Fajr"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// Names lists the tracked prayers in chronological order.
var Names = []Name{Fajr, Dhuhr, Asr, Maghrib, Isha}

// ShortNames maps prayer names to single-character abbreviations used in
// compact displays (status bars, calendar cells).
var ShortNames = map[Name]string{
	Fajr:    "F",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

// ParseName validates a user-supplied prayer name, case-insensitively.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if strings.EqualFold(string(n), strings.TrimSpace(s)) {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q (expected one of Fajr, Dhuhr, Asr, Maghrib, Isha)", s)
}

// DateLayout is the canonical calendar-date format used throughout the
// module and on the wire.
const DateLayout = "2006-01-02"

// ParseDate parses a canonical YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// DateOf formats t as a canonical date string.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// Coordinates is a geographic point attached to a completion record.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is the stored fact that a prayer was (or was not) completed on a
// given date. A record for a future date may only exist as not-completed.
type Record struct {
	Date        string       `json:"date"` // YYYY-MM-DD
	Prayer      Name         `json:"prayer"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Location    *Coordinates `json:"location,omitempty"`
}
