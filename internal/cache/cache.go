// Package cache provides file-based caching for prayer timings and
// geolocation data, keyed per day and location so the resolver avoids
// refetching a schedule it already has.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/salahtrack/salahtrack/internal/api"
	"github.com/salahtrack/salahtrack/internal/geo"
)

const (
	timingsCacheFile = "timings_%s.json" // keyed by hash
	geoCacheFile     = "geolocation.json"
	geoTTL           = 24 * time.Hour
)

// Cache provides file-based caching rooted at a directory.
type Cache struct {
	dir string
}

// TimingsEntry stores a day's raw provider response along with metadata
// for validation.
type TimingsEntry struct {
	Date     string       `json:"date"` // YYYY-MM-DD
	Method   int          `json:"method"`
	School   int          `json:"school"`
	Timings  api.Timings  `json:"timings"`
	Meta     api.Meta     `json:"meta"`
	DateInfo api.DateInfo `json:"date_info"`
}

// GeoEntry stores a cached geolocation result with a timestamp.
type GeoEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to ~/.cache/salahtrack/.
func New(dir string) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "salahtrack")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir}, nil
}

// cacheKey builds a deterministic hash from the parameters that affect
// prayer times, so different locations/methods/schools get separate files.
func cacheKey(date string, lat, lon float64, city, country string, method, school int) string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%s|%s|%d|%d", date, lat, lon, city, country, method, school)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

// LoadTimings attempts to read cached timings for the given parameters.
// Returns nil if the cache is missing or stale (wrong date).
func (c *Cache) LoadTimings(date time.Time, lat, lon float64, city, country string, method, school int) *TimingsEntry {
	dateStr := date.Format("2006-01-02")
	key := cacheKey(dateStr, lat, lon, city, country, method, school)
	path := filepath.Join(c.dir, fmt.Sprintf(timingsCacheFile, key))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry TimingsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	// Stale cache for a previous day is useless.
	if entry.Date != dateStr {
		return nil
	}

	return &entry
}

// SaveTimings writes a provider response to the cache.
func (c *Cache) SaveTimings(date time.Time, lat, lon float64, city, country string, method, school int, resp *api.Response) error {
	dateStr := date.Format("2006-01-02")
	key := cacheKey(dateStr, lat, lon, city, country, method, school)
	path := filepath.Join(c.dir, fmt.Sprintf(timingsCacheFile, key))

	entry := TimingsEntry{
		Date:     dateStr,
		Method:   method,
		School:   school,
		Timings:  resp.Data.Timings,
		Meta:     resp.Data.Meta,
		DateInfo: resp.Data.Date,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *Cache) LoadGeo() *geo.Location {
	path := filepath.Join(c.dir, geoCacheFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry GeoEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if time.Since(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc *geo.Location) error {
	path := filepath.Join(c.dir, geoCacheFile)

	entry := GeoEntry{
		Location: *loc,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}
