// Package store keeps the client-side cache of completion records and
// reconciles it with the remote record service. It is the sole mutator of
// record state in memory: the calendar and the UI layers read through its
// accessors and never reach into the cache directly.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/salahtrack/salahtrack/internal/prayer"
)

var (
	// ErrConcurrentMutation rejects a second write to a (date, prayer) key
	// while one is already in flight. At most one outstanding mutation per
	// key; different keys may mutate concurrently.
	ErrConcurrentMutation = errors.New("another update for this prayer is still in flight")

	// ErrFutureDate rejects marking a prayer complete on a future date.
	ErrFutureDate = errors.New("cannot mark a prayer complete on a future date")
)

// Service is the remote record store the cache writes through to.
// *records.Client satisfies it.
type Service interface {
	Mark(ctx context.Context, date string, name prayer.Name, loc *prayer.Coordinates) (*prayer.Record, error)
	Unmark(ctx context.Context, date string, name prayer.Name) (*prayer.Record, error)
	Range(ctx context.Context, start, end string) (map[string]map[prayer.Name]prayer.Record, error)
}

type key struct {
	date string
	name prayer.Name
}

// Store is the write-through completion cache.
type Store struct {
	mu      sync.Mutex
	svc     Service
	cache   map[string]map[prayer.Name]prayer.Record
	pending map[key]struct{}

	// clock is a store-wide sequence; seq records, per key, the clock
	// value of the last locally applied write. A range refresh snapshots
	// the clock when issued and only overwrites cells whose seq has not
	// advanced past the snapshot, so a slow refresh cannot clobber a
	// newer optimistic write.
	clock uint64
	seq   map[key]uint64

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store backed by the given remote service.
func New(svc Service, opts ...Option) *Store {
	s := &Store{
		svc:     svc,
		cache:   make(map[string]map[prayer.Name]prayer.Record),
		pending: make(map[key]struct{}),
		seq:     make(map[key]uint64),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadRange refreshes the cache from the remote service for every date in
// [start, end] and returns the merged view of that range. The remote is
// authoritative for cells not locally written since the fetch was issued.
func (s *Store) LoadRange(ctx context.Context, start, end string) (map[string]map[prayer.Name]prayer.Record, error) {
	startT, err := prayer.ParseDate(start)
	if err != nil {
		return nil, err
	}
	endT, err := prayer.ParseDate(end)
	if err != nil {
		return nil, err
	}
	if endT.Before(startT) {
		return nil, fmt.Errorf("invalid range: %s is after %s", start, end)
	}

	s.mu.Lock()
	snapshot := s.clock
	s.mu.Unlock()

	fetched, err := s.svc.Range(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load range %s..%s: %w", start, end, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for d := startT; !d.After(endT); d = d.AddDate(0, 0, 1) {
		date := prayer.DateOf(d)
		remoteDay := fetched[date]
		for _, name := range prayer.Names {
			k := key{date, name}
			if s.seq[k] > snapshot {
				log.Debug().Str("date", date).Str("prayer", string(name)).
					Msg("keeping local write over stale range refresh")
				continue
			}
			// Merge writes do not advance the sequence: only user
			// mutations count as local writes for the staleness guard.
			if rec, ok := remoteDay[name]; ok {
				s.putLocked(rec)
			} else {
				s.removeLocked(date, name)
			}
		}
	}

	return s.viewLocked(startT, endT), nil
}

// MarkCompleted optimistically records a completion and writes it through
// to the remote service. On remote failure the local state is rolled back
// and the error returned.
func (s *Store) MarkCompleted(ctx context.Context, date string, name prayer.Name, loc *prayer.Coordinates) (*prayer.Record, error) {
	if _, err := prayer.ParseDate(date); err != nil {
		return nil, err
	}
	if date > prayer.DateOf(s.now()) {
		return nil, ErrFutureDate
	}

	completedAt := s.now()
	optimistic := prayer.Record{
		Date:        date,
		Prayer:      name,
		Completed:   true,
		CompletedAt: &completedAt,
		Location:    loc,
	}

	return s.mutate(ctx, date, name, optimistic, func(ctx context.Context) (*prayer.Record, error) {
		return s.svc.Mark(ctx, date, name, loc)
	})
}

// Unmark optimistically clears a completion, writing through and rolling
// back on failure.
func (s *Store) Unmark(ctx context.Context, date string, name prayer.Name) (*prayer.Record, error) {
	if _, err := prayer.ParseDate(date); err != nil {
		return nil, err
	}

	optimistic := prayer.Record{Date: date, Prayer: name, Completed: false}

	return s.mutate(ctx, date, name, optimistic, func(ctx context.Context) (*prayer.Record, error) {
		return s.svc.Unmark(ctx, date, name)
	})
}

// Toggle dispatches to Unmark when the prayer is currently completed and
// MarkCompleted otherwise: the single entry point for a tap on a calendar
// cell.
func (s *Store) Toggle(ctx context.Context, date string, name prayer.Name, currentlyCompleted bool, loc *prayer.Coordinates) (*prayer.Record, error) {
	if currentlyCompleted {
		return s.Unmark(ctx, date, name)
	}
	return s.MarkCompleted(ctx, date, name, loc)
}

// mutate applies the optimistic record, runs the remote write, and either
// confirms with the server's record or rolls back.
func (s *Store) mutate(ctx context.Context, date string, name prayer.Name, optimistic prayer.Record, remote func(context.Context) (*prayer.Record, error)) (*prayer.Record, error) {
	k := key{date, name}

	s.mu.Lock()
	if _, busy := s.pending[k]; busy {
		s.mu.Unlock()
		return nil, ErrConcurrentMutation
	}
	prev, hadPrev := s.getLocked(date, name)
	s.setLocked(optimistic)
	s.pending[k] = struct{}{}
	s.mu.Unlock()

	rec, err := remote(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, k)

	if err != nil {
		// Roll back to the exact prior state; the rollback itself counts
		// as a local write so no refresh resurrects the failed value.
		if hadPrev {
			s.setLocked(prev)
		} else {
			s.dropLocked(date, name)
		}
		log.Warn().Err(err).Str("date", date).Str("prayer", string(name)).
			Msg("remote write failed, rolled back")
		return nil, err
	}

	s.setLocked(*rec)
	out := *rec
	return &out, nil
}

// Record returns a copy of the cached record for (date, name).
func (s *Store) Record(date string, name prayer.Name) (*prayer.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.getLocked(date, name)
	if !ok {
		return nil, false
	}
	return &rec, true
}

// Completed reports whether (date, name) is cached as completed.
func (s *Store) Completed(date string, name prayer.Name) bool {
	rec, ok := s.Record(date, name)
	return ok && rec.Completed
}

// Day returns a copy of all cached records for one date.
func (s *Store) Day(date string) map[prayer.Name]prayer.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[prayer.Name]prayer.Record, len(s.cache[date]))
	for name, rec := range s.cache[date] {
		out[name] = rec
	}
	return out
}

func (s *Store) getLocked(date string, name prayer.Name) (prayer.Record, bool) {
	rec, ok := s.cache[date][name]
	return rec, ok
}

// putLocked stores a record without advancing the local-write sequence.
func (s *Store) putLocked(rec prayer.Record) {
	day := s.cache[rec.Date]
	if day == nil {
		day = make(map[prayer.Name]prayer.Record)
		s.cache[rec.Date] = day
	}
	day[rec.Prayer] = rec
}

// removeLocked drops a record without advancing the local-write sequence.
func (s *Store) removeLocked(date string, name prayer.Name) {
	if day, ok := s.cache[date]; ok {
		delete(day, name)
		if len(day) == 0 {
			delete(s.cache, date)
		}
	}
}

// setLocked stores a record as a local write, advancing the sequence so
// that in-flight range refreshes cannot overwrite it.
func (s *Store) setLocked(rec prayer.Record) {
	s.putLocked(rec)
	s.clock++
	s.seq[key{rec.Date, rec.Prayer}] = s.clock
}

// dropLocked removes a record as a local write.
func (s *Store) dropLocked(date string, name prayer.Name) {
	s.removeLocked(date, name)
	s.clock++
	s.seq[key{date, name}] = s.clock
}

func (s *Store) viewLocked(startT, endT time.Time) map[string]map[prayer.Name]prayer.Record {
	out := make(map[string]map[prayer.Name]prayer.Record)
	for d := startT; !d.After(endT); d = d.AddDate(0, 0, 1) {
		date := prayer.DateOf(d)
		day, ok := s.cache[date]
		if !ok {
			continue
		}
		cp := make(map[prayer.Name]prayer.Record, len(day))
		for name, rec := range day {
			cp[name] = rec
		}
		out[date] = cp
	}
	return out
}
