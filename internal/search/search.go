// Package search implements the debounce-and-cancel engine behind
// lookup-as-you-type inputs (city autocomplete). Keystrokes restart a
// fixed delay; on expiry one lookup is issued, tagged with a monotonic
// token; only the latest token's response may update visible results, so
// the display never regresses to a superseded query even when responses
// arrive out of order.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// State is the search session state.
type State int

const (
	// Idle: no query, or the query was too short to search.
	Idle State = iota
	// Pending: waiting for the debounce delay or an in-flight lookup.
	Pending
	// Resolved: results for the latest query are displayed.
	Resolved
	// Failed: the latest lookup errored; results cleared, retry is manual.
	Failed
	// Superseded: a response arrived for a query that is no longer the
	// latest. Emitted as an event only; visible state is untouched.
	Superseded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	case Superseded:
		return "superseded"
	default:
		return "unknown"
	}
}

const (
	defaultDelay    = 500 * time.Millisecond
	defaultTimeout  = 10 * time.Second
	defaultMinQuery = 2
)

// LookupFunc performs the asynchronous text lookup.
type LookupFunc[T any] func(ctx context.Context, query string) ([]T, error)

// Snapshot is an immutable view of the session, delivered to the notify
// callback after every state change.
type Snapshot[T any] struct {
	State   State
	Query   string
	Results []T
	Err     error
}

// Debouncer coalesces keystrokes into at most one in-flight lookup.
type Debouncer[T any] struct {
	mu       sync.Mutex
	lookup   LookupFunc[T]
	delay    time.Duration
	timeout  time.Duration
	minQuery int
	notify   func(Snapshot[T])

	timer   *time.Timer
	token   uint64
	state   State
	query   string
	results []T
	err     error
}

// Option configures a Debouncer.
type Option[T any] func(*Debouncer[T])

// WithDelay overrides the debounce delay.
func WithDelay[T any](d time.Duration) Option[T] {
	return func(s *Debouncer[T]) { s.delay = d }
}

// WithTimeout bounds each issued lookup so a hung provider cannot pin the
// session in Pending.
func WithTimeout[T any](d time.Duration) Option[T] {
	return func(s *Debouncer[T]) { s.timeout = d }
}

// WithNotify registers a callback invoked after every state change and
// for discarded (superseded) responses.
func WithNotify[T any](fn func(Snapshot[T])) Option[T] {
	return func(s *Debouncer[T]) { s.notify = fn }
}

// New creates a Debouncer around the given lookup.
func New[T any](lookup LookupFunc[T], opts ...Option[T]) *Debouncer[T] {
	d := &Debouncer[T]{
		lookup:   lookup,
		delay:    defaultDelay,
		timeout:  defaultTimeout,
		minQuery: defaultMinQuery,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetQuery feeds one keystroke's worth of input. Any pending debounce
// timer is cancelled and any in-flight response invalidated. Queries
// shorter than the minimum clear results immediately and skip the delay.
func (d *Debouncer[T]) SetQuery(q string) {
	d.mu.Lock()

	d.stopTimerLocked()
	d.token++
	q = strings.TrimSpace(q)
	d.query = q

	if utf8.RuneCountInString(q) < d.minQuery {
		d.results = nil
		d.err = nil
		d.state = Idle
		d.emitLocked()
		return
	}

	d.state = Pending
	d.err = nil
	token := d.token
	d.timer = time.AfterFunc(d.delay, func() { d.fire(token) })
	d.emitLocked()
}

// Reset forces the session to Idle (click-outside / query cleared),
// discarding results. In-flight responses become no-ops.
func (d *Debouncer[T]) Reset() {
	d.mu.Lock()
	d.stopTimerLocked()
	d.token++
	d.query = ""
	d.results = nil
	d.err = nil
	d.state = Idle
	d.emitLocked()
}

// Snapshot returns the current visible state.
func (d *Debouncer[T]) Snapshot() Snapshot[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// fire runs on debounce expiry: issue the lookup for the token that was
// current when the timer was armed.
func (d *Debouncer[T]) fire(token uint64) {
	d.mu.Lock()
	if token != d.token {
		d.mu.Unlock()
		return
	}
	query := d.query
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	results, err := d.lookup(ctx, query)

	d.mu.Lock()
	if token != d.token {
		d.mu.Unlock()
		log.Debug().Str("query", query).Msg("discarding superseded search response")
		if d.notify != nil {
			d.notify(Snapshot[T]{State: Superseded, Query: query})
		}
		return
	}

	if err != nil {
		d.state = Failed
		d.err = err
		d.results = nil
	} else {
		d.state = Resolved
		d.results = results
		d.err = nil
	}
	d.emitLocked()
}

// stopTimerLocked cancels a pending debounce timer, if any.
func (d *Debouncer[T]) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		State:   d.state,
		Query:   d.query,
		Results: d.results,
		Err:     d.err,
	}
}

// emitLocked publishes the current snapshot and releases the lock. The
// callback runs outside the lock so it may call back into the Debouncer.
func (d *Debouncer[T]) emitLocked() {
	snap := d.snapshotLocked()
	notify := d.notify
	d.mu.Unlock()
	if notify != nil {
		notify(snap)
	}
}
