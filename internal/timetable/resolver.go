// Package timetable resolves the five daily prayer windows for a date and
// place. It sits between the CLI/TUI and the prayer times provider: cached
// responses are preferred, a live fetch follows, and for coordinate-based
// lookups a static default schedule stands in when the provider cannot be
// reached. City lookups never fall back; a wrong city's schedule is worse
// than an error.
package timetable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/salahtrack/salahtrack/internal/api"
	"github.com/salahtrack/salahtrack/internal/cache"
	"github.com/salahtrack/salahtrack/internal/geo"
	"github.com/salahtrack/salahtrack/internal/prayer"
)

// ErrProviderUnavailable indicates the timings provider could not serve the
// request and no fallback applies.
var ErrProviderUnavailable = errors.New("prayer times provider unavailable")

// fallbackLabel names the place shown when timings come from the static
// default schedule or reverse geocoding fails.
const fallbackLabel = "Current Location"

// TimesAPI fetches provider timings for a date.
type TimesAPI interface {
	FetchByCoordinates(ctx context.Context, date time.Time, lat, lon float64, method, school int) (*api.Response, error)
	FetchByCity(ctx context.Context, date time.Time, city, country string, method, school int) (*api.Response, error)
}

// Geocoder turns coordinates into a human-readable place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.Place, error)
}

// Resolver produces DailyTimings from the provider, the cache, or the
// static fallback schedule.
type Resolver struct {
	api      TimesAPI
	geocoder Geocoder
	cache    *cache.Cache // nil disables caching
	method   int
	school   int
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(timesAPI TimesAPI, geocoder Geocoder, c *cache.Cache, method, school int) *Resolver {
	return &Resolver{
		api:      timesAPI,
		geocoder: geocoder,
		cache:    c,
		method:   method,
		school:   school,
	}
}

// ByLocation resolves the windows for the given date and coordinates.
// Provider failures degrade to the static fallback schedule instead of
// erroring: a rough schedule still lets the user log prayers offline.
func (r *Resolver) ByLocation(ctx context.Context, date time.Time, lat, lon float64) (*prayer.DailyTimings, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude %.4f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("longitude %.4f out of range", lon)
	}

	if r.cache != nil {
		if entry := r.cache.LoadTimings(date, lat, lon, "", "", r.method, r.school); entry != nil {
			if d, err := windowsFromEntry(date, entry.Timings); err == nil {
				return d, nil
			}
			// Corrupt cached timings fall through to a live fetch.
		}
	}

	resp, err := r.api.FetchByCoordinates(ctx, date, lat, lon, r.method, r.school)
	if err != nil {
		log.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("provider unreachable, using fallback schedule")
		return FallbackTimings(date), nil
	}

	d, err := windowsFromEntry(date, resp.Data.Timings)
	if err != nil {
		log.Warn().Err(err).Msg("provider returned malformed timings, using fallback schedule")
		return FallbackTimings(date), nil
	}

	if r.cache != nil {
		if err := r.cache.SaveTimings(date, lat, lon, "", "", r.method, r.school, resp); err != nil {
			log.Debug().Err(err).Msg("failed to cache timings")
		}
	}
	return d, nil
}

// ByCity resolves the windows for the given date, city and country.
// There is no fallback on this path: the static schedule carries no
// location and would silently misrepresent an explicitly named city.
func (r *Resolver) ByCity(ctx context.Context, date time.Time, city, country string) (*prayer.DailyTimings, error) {
	if city == "" {
		return nil, errors.New("city is required")
	}

	if r.cache != nil {
		if entry := r.cache.LoadTimings(date, 0, 0, city, country, r.method, r.school); entry != nil {
			if d, err := windowsFromEntry(date, entry.Timings); err == nil {
				d.Place = cityLabel(city, country)
				return d, nil
			}
		}
	}

	resp, err := r.api.FetchByCity(ctx, date, city, country, r.method, r.school)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, err)
	}

	d, err := windowsFromEntry(date, resp.Data.Timings)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, err)
	}
	d.Place = cityLabel(city, country)

	if r.cache != nil {
		if err := r.cache.SaveTimings(date, 0, 0, city, country, r.method, r.school, resp); err != nil {
			log.Debug().Err(err).Msg("failed to cache timings")
		}
	}
	return d, nil
}

// ResolveWithLabel resolves windows for coordinates and reverse geocodes
// the place label concurrently. Geocoding failure degrades the label, never
// the timings.
func (r *Resolver) ResolveWithLabel(ctx context.Context, date time.Time, lat, lon float64) (*prayer.DailyTimings, error) {
	var (
		timings *prayer.DailyTimings
		place   *geo.Place
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		timings, err = r.ByLocation(gctx, date, lat, lon)
		return err
	})
	g.Go(func() error {
		if r.geocoder == nil {
			return nil
		}
		p, err := r.geocoder.ReverseGeocode(gctx, lat, lon)
		if err != nil {
			log.Debug().Err(err).Msg("reverse geocoding failed, keeping generic label")
			return nil
		}
		place = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if place != nil {
		timings.Place = place.Label()
	} else if timings.Place == "" {
		timings.Place = fallbackLabel
	}
	return timings, nil
}

// windowsFromEntry derives windows from a provider timings payload.
func windowsFromEntry(date time.Time, t api.Timings) (*prayer.DailyTimings, error) {
	raw := prayer.RawTimings{
		Fajr:    t.Fajr,
		Sunrise: t.Sunrise,
		Dhuhr:   t.Dhuhr,
		Asr:     t.Asr,
		Maghrib: t.Maghrib,
		Isha:    t.Isha,
	}
	return prayer.WindowsFromRaw(prayer.DateOf(date), raw)
}

// FallbackTimings returns the static default schedule for the given date.
// Isha closes at end of day like every derived schedule.
func FallbackTimings(date time.Time) *prayer.DailyTimings {
	return &prayer.DailyTimings{
		Date:     prayer.DateOf(date),
		Fallback: true,
		Place:    fallbackLabel,
		Windows: []prayer.Window{
			{Name: prayer.Fajr, Start: "05:00", End: "06:00"},
			{Name: prayer.Dhuhr, Start: "12:30", End: "15:30"},
			{Name: prayer.Asr, Start: "15:30", End: "18:00"},
			{Name: prayer.Maghrib, Start: "18:30", End: "19:30"},
			{Name: prayer.Isha, Start: "20:00", End: "23:59"},
		},
	}
}

func cityLabel(city, country string) string {
	if country == "" {
		return city
	}
	return city + ", " + country
}
