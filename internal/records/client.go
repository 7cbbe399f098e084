// Package records implements the client for the remote completion-record
// service: per-date prayer completion CRUD, range reads, purge, and stats.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/salahtrack/salahtrack/internal/prayer"
)

var (
	// ErrAuthRequired is returned when a call needs credentials and no
	// valid session exists. Raised before any network traffic.
	ErrAuthRequired = errors.New("sign in required")

	// ErrNetwork wraps transient transport failures. Callers may retry
	// manually; the client never retries on its own.
	ErrNetwork = errors.New("record service unreachable")

	// ErrNotFound is returned for reads of records that do not exist.
	ErrNotFound = errors.New("record not found")
)

// TokenSource supplies the bearer token for authenticated calls.
// *session.Session satisfies it.
type TokenSource interface {
	Token() (string, error)
}

// Stats summarizes completion counts for one month.
type Stats struct {
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	Total     int                 `json:"total"`
	Completed int                 `json:"completed"`
	PerPrayer map[prayer.Name]int `json:"per_prayer"`
}

// Client communicates with the record service.
type Client struct {
	httpClient *http.Client
	// BaseURL is the service base URL. Exported for testing with httptest.
	BaseURL string
	tokens  TokenSource
}

// NewClient creates a record-service client.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		tokens:     tokens,
	}
}

// markRequest is the mutation wire shape.
type markRequest struct {
	Completed   bool                `json:"completed"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Location    *prayer.Coordinates `json:"location,omitempty"`
}

// Mark records a completion for (date, name). Location is optional.
func (c *Client) Mark(ctx context.Context, date string, name prayer.Name, loc *prayer.Coordinates) (*prayer.Record, error) {
	if _, err := prayer.ParseDate(date); err != nil {
		return nil, err
	}

	now := time.Now()
	body := markRequest{Completed: true, CompletedAt: &now, Location: loc}

	var rec prayer.Record
	if err := c.do(ctx, http.MethodPut, c.recordPath(date, name), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Unmark clears a completion for (date, name).
func (c *Client) Unmark(ctx context.Context, date string, name prayer.Name) (*prayer.Record, error) {
	if _, err := prayer.ParseDate(date); err != nil {
		return nil, err
	}

	var rec prayer.Record
	if err := c.do(ctx, http.MethodPut, c.recordPath(date, name), markRequest{Completed: false}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// rangeResponse is the range-read wire shape.
type rangeResponse struct {
	Records []prayer.Record `json:"records"`
}

// Range fetches all records for dates in [start, end], keyed by date then
// prayer name. Dates with no records are simply absent.
func (c *Client) Range(ctx context.Context, start, end string) (map[string]map[prayer.Name]prayer.Record, error) {
	if _, err := prayer.ParseDate(start); err != nil {
		return nil, err
	}
	if _, err := prayer.ParseDate(end); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("start", start)
	params.Set("end", end)

	var resp rangeResponse
	if err := c.do(ctx, http.MethodGet, "/v1/records?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]map[prayer.Name]prayer.Record)
	for _, rec := range resp.Records {
		if _, err := prayer.ParseDate(rec.Date); err != nil {
			log.Warn().Str("date", rec.Date).Msg("dropping record with malformed date")
			continue
		}
		if _, err := prayer.ParseName(string(rec.Prayer)); err != nil {
			log.Warn().Str("prayer", string(rec.Prayer)).Msg("dropping record with unknown prayer")
			continue
		}
		day := out[rec.Date]
		if day == nil {
			day = make(map[prayer.Name]prayer.Record)
			out[rec.Date] = day
		}
		day[rec.Prayer] = rec
	}
	return out, nil
}

// ByDate fetches the records for a single date.
func (c *Client) ByDate(ctx context.Context, date string) (map[prayer.Name]prayer.Record, error) {
	all, err := c.Range(ctx, date, date)
	if err != nil {
		return nil, err
	}
	return all[date], nil
}

// Purge deletes every record for the given date.
func (c *Client) Purge(ctx context.Context, date string) error {
	if _, err := prayer.ParseDate(date); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/v1/records/"+date, nil, nil)
}

// GetStats fetches completion statistics for a month. Zero month/year
// default to the current month on the server.
func (c *Client) GetStats(ctx context.Context, month, year int) (*Stats, error) {
	params := url.Values{}
	if month > 0 {
		params.Set("month", fmt.Sprintf("%d", month))
	}
	if year > 0 {
		params.Set("year", fmt.Sprintf("%d", year))
	}

	path := "/v1/stats"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var st Stats
	if err := c.do(ctx, http.MethodGet, path, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) recordPath(date string, name prayer.Name) string {
	return "/v1/records/" + date + "/" + string(name)
}

// do executes one authenticated request. Mutations carry an idempotency
// key so a retried write after an ambiguous network failure cannot
// double-apply on the server.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrAuthRequired
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("record service returned status %d: %s", resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode record service response: %w", err)
	}
	return nil
}
