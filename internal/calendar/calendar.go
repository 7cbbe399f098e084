// Package calendar drives the navigable weekly view of completion
// history: a selected date, the Sunday-aligned 7-day window around it,
// and a store refresh on every transition.
package calendar

import (
	"context"
	"time"

	"github.com/salahtrack/salahtrack/internal/prayer"
)

// Loader refreshes completion records for a date range. *store.Store
// satisfies it.
type Loader interface {
	LoadRange(ctx context.Context, start, end string) (map[string]map[prayer.Name]prayer.Record, error)
}

// Window is the visible 7-day span. Days[0] is the week's Sunday.
type Window struct {
	WeekStart time.Time
	Days      [7]time.Time
}

// Start and End return the window bounds as canonical date strings.
func (w Window) Start() string { return prayer.DateOf(w.Days[0]) }
func (w Window) End() string   { return prayer.DateOf(w.Days[6]) }

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	date := prayer.DateOf(d)
	return date >= w.Start() && date <= w.End()
}

// Navigator holds the selected date and computes the visible window.
// It only reads from the store; it never mutates records.
type Navigator struct {
	selected time.Time
	loader   Loader
	now      func() time.Time
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) { n.now = now }
}

// New creates a Navigator selecting today.
func New(loader Loader, opts ...Option) *Navigator {
	n := &Navigator{loader: loader, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	n.selected = dateOnly(n.now())
	return n
}

// Selected returns the currently selected date.
func (n *Navigator) Selected() time.Time { return n.selected }

// Window computes the visible week for the selected date without
// refreshing the store.
func (n *Navigator) Window() Window {
	start := weekStart(n.selected)
	w := Window{WeekStart: start}
	for i := 0; i < 7; i++ {
		w.Days[i] = start.AddDate(0, 0, i)
	}
	return w
}

// PrevWeek shifts the selection back 7 days and refreshes the window.
func (n *Navigator) PrevWeek(ctx context.Context) (Window, error) {
	return n.Select(ctx, n.selected.AddDate(0, 0, -7))
}

// NextWeek shifts the selection forward 7 days and refreshes the window.
func (n *Navigator) NextWeek(ctx context.Context) (Window, error) {
	return n.Select(ctx, n.selected.AddDate(0, 0, 7))
}

// Today resets the selection to the current date and refreshes.
func (n *Navigator) Today(ctx context.Context) (Window, error) {
	return n.Select(ctx, n.now())
}

// Select sets the selected date directly (date-picker path), recomputes
// the window, and triggers a range refresh. Re-selecting the same date is
// idempotent apart from cache freshness.
func (n *Navigator) Select(ctx context.Context, d time.Time) (Window, error) {
	n.selected = dateOnly(d)
	w := n.Window()
	if _, err := n.loader.LoadRange(ctx, w.Start(), w.End()); err != nil {
		return w, err
	}
	return w, nil
}

// weekStart returns the most recent Sunday on or before d.
func weekStart(d time.Time) time.Time {
	d = dateOnly(d)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
