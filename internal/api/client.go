// Package api implements the client for the prayer-times provider
// (Al Adhan-compatible API).
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the production provider endpoint.
const DefaultBaseURL = "https://api.aladhan.com/v1"

// Client communicates with the prayer-times provider.
type Client struct {
	httpClient *http.Client
	// BaseURL is the provider base URL. Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a new provider client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL: baseURL,
	}
}

// FetchByCoordinates fetches prayer times for the given date and coordinates.
func (c *Client) FetchByCoordinates(ctx context.Context, date time.Time, lat, lon float64, method, school int) (*Response, error) {
	dateStr := date.Format("02-01-2006")
	endpoint := fmt.Sprintf("%s/timings/%s", c.BaseURL, dateStr)

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", lat))
	params.Set("longitude", fmt.Sprintf("%f", lon))
	if method >= 0 {
		params.Set("method", fmt.Sprintf("%d", method))
	}
	if school >= 0 {
		params.Set("school", fmt.Sprintf("%d", school))
	}

	return c.doRequest(ctx, endpoint, params)
}

// FetchByCity fetches prayer times for the given date, city, and country.
func (c *Client) FetchByCity(ctx context.Context, date time.Time, city, country string, method, school int) (*Response, error) {
	dateStr := date.Format("02-01-2006")
	endpoint := fmt.Sprintf("%s/timingsByCity/%s", c.BaseURL, dateStr)

	params := url.Values{}
	params.Set("city", city)
	params.Set("country", country)
	if method >= 0 {
		params.Set("method", fmt.Sprintf("%d", method))
	}
	if school >= 0 {
		params.Set("school", fmt.Sprintf("%d", school))
	}

	return c.doRequest(ctx, endpoint, params)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	log.Debug().Str("url", endpoint).Msg("fetching prayer times")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	if apiResp.Code != 200 {
		return nil, fmt.Errorf("provider error: code=%d status=%s", apiResp.Code, apiResp.Status)
	}

	return &apiResp, nil
}
