package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/salahtrack/salahtrack/internal/api"
	"github.com/salahtrack/salahtrack/internal/cache"
	"github.com/salahtrack/salahtrack/internal/config"
	"github.com/salahtrack/salahtrack/internal/geo"
	"github.com/salahtrack/salahtrack/internal/prayer"
	"github.com/salahtrack/salahtrack/internal/records"
	"github.com/salahtrack/salahtrack/internal/session"
	"github.com/salahtrack/salahtrack/internal/store"
	"github.com/salahtrack/salahtrack/internal/timetable"
)

// Default service endpoints, overridable via config or environment.
const (
	defaultRecordsURL = "https://records.salahtrack.app"
	defaultAuthURL    = "https://auth.salahtrack.app"
)

// locationMode describes how the user specified their location.
type locationMode int

const (
	locationCoords locationMode = iota
	locationCity
	locationAuto
)

// resolvedLocation holds the result of location resolution.
type resolvedLocation struct {
	Mode     locationMode
	Lat, Lon float64
	City     string
	Country  string
	Timezone string // optional hint from geo-detection
}

// Coordinates returns the location as record coordinates, or nil for
// city-based locations.
func (l resolvedLocation) Coordinates() *prayer.Coordinates {
	if l.Mode == locationCity {
		return nil
	}
	return &prayer.Coordinates{Lat: l.Lat, Lon: l.Lon}
}

// newCache initializes the file cache. Failure is non-fatal; callers get
// nil and simply skip caching.
func newCache(cfg *config.Config) *cache.Cache {
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cache disabled: %v\n", err)
		return nil
	}
	return c
}

// resolveLocation determines the effective location.
// Priority: CLI flags > config > cached geolocation > IP auto-detect.
func resolveLocation(ctx context.Context, cfg *config.Config, c *cache.Cache) (resolvedLocation, error) {
	switch {
	case cfg.Latitude != 0 || cfg.Longitude != 0:
		return resolvedLocation{Mode: locationCoords, Lat: cfg.Latitude, Lon: cfg.Longitude}, nil
	case cfg.City != "":
		if cfg.Country == "" {
			return resolvedLocation{}, fmt.Errorf("--country is required when using --city")
		}
		return resolvedLocation{Mode: locationCity, City: cfg.City, Country: cfg.Country}, nil
	default:
		// Try cached geolocation first.
		if c != nil {
			if cached := c.LoadGeo(); cached != nil {
				return resolvedLocation{
					Mode:     locationAuto,
					Lat:      cached.Latitude,
					Lon:      cached.Longitude,
					Timezone: cached.Timezone,
				}, nil
			}
		}

		detected, err := geo.DetectLocation(ctx)
		if err != nil {
			return resolvedLocation{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
		}

		if c != nil {
			_ = c.SaveGeo(detected) // best-effort
		}

		return resolvedLocation{
			Mode:     locationAuto,
			Lat:      detected.Latitude,
			Lon:      detected.Longitude,
			Timezone: detected.Timezone,
		}, nil
	}
}

// newResolver builds a timetable resolver from the merged config.
func newResolver(cfg *config.Config, c *cache.Cache) *timetable.Resolver {
	return timetable.NewResolver(
		api.NewClient(cfg.APIURL),
		geo.NewClient(""),
		c,
		cfg.MethodOrDefault(-1),
		cfg.SchoolOrDefault(-1),
	)
}

// resolveTimings fetches the day's windows for the resolved location.
func resolveTimings(ctx context.Context, cfg *config.Config, c *cache.Cache, loc resolvedLocation, date time.Time) (*prayer.DailyTimings, error) {
	r := newResolver(cfg, c)
	if loc.Mode == locationCity {
		return r.ByCity(ctx, date, loc.City, loc.Country)
	}
	return r.ResolveWithLabel(ctx, date, loc.Lat, loc.Lon)
}

// openSession loads the persisted session from the config directory.
func openSession() (*session.Session, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return session.Load(session.Path(dir))
}

// openStore wires the completion store to the record service using the
// persisted session as the token source.
func openStore(cfg *config.Config) (*store.Store, *records.Client, error) {
	sess, err := openSession()
	if err != nil {
		return nil, nil, err
	}

	url := cfg.RecordsURL
	if url == "" {
		url = defaultRecordsURL
	}
	client := records.NewClient(url, sess)
	return store.New(client), client, nil
}

// authURL returns the sign-in endpoint from config or the default.
func authURL(cfg *config.Config) string {
	if cfg.AuthURL != "" {
		return cfg.AuthURL
	}
	return defaultAuthURL
}

// goTimeFormat maps the config's time_format to a Go layout.
func goTimeFormat(cfg *config.Config) string {
	if cfg.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// formatClock re-renders an "HH:MM" window bound in the configured layout.
// Malformed bounds print as-is.
func formatClock(clock, layout string) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return t.Format(layout)
}
