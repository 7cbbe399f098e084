// Package geo implements the geocoding collaborators: IP-based location
// detection, coordinate reverse-geocoding for display labels, and the
// city autocomplete lookup behind the debounced search.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Location holds geographic coordinates detected from the user's IP.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// Place is a normalized geocoder match. Only entries with both City and
// Country populated are considered valid matches.
type Place struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Formatted string  `json:"formatted,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// Label returns a display string for the place.
func (p Place) Label() string {
	if p.Formatted != "" {
		return p.Formatted
	}
	return p.City + ", " + p.Country
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

// geoAPIURL is the IP geolocation endpoint. It is a variable (not a
// constant) so that tests can override it with an httptest server URL.
var geoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// DetectLocation uses ip-api.com to determine the user's location from
// their public IP address. This is a free service that requires no API key.
func DetectLocation(ctx context.Context) (*Location, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoAPIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building geolocation request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("geolocation failed: %s", result.Message)
	}

	return &Location{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		City:      result.City,
		Country:   result.Country,
		Timezone:  result.Timezone,
	}, nil
}

// DefaultBaseURL is the production geocoding endpoint.
const DefaultBaseURL = "https://geo.salahtrack.app"

// Client communicates with the geocoding service (reverse geocode and
// autocomplete endpoints).
type Client struct {
	httpClient *http.Client
	// BaseURL is the geocoder base URL. Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a geocoder client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
	}
}

// reverseResponse is the raw reverse-geocode payload. Treated as untyped
// external input: any field may be missing.
type reverseResponse struct {
	City      string `json:"city"`
	Country   string `json:"country"`
	Formatted string `json:"formatted"`
}

// ReverseGeocode resolves coordinates into a place. Callers use it for
// display only and degrade to a generic label on error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	reqURL := fmt.Sprintf("%s/reverse?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building reverse geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var raw reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	return &Place{
		City:      raw.City,
		Country:   raw.Country,
		Formatted: raw.Formatted,
		Lat:       lat,
		Lon:       lon,
	}, nil
}

// autocompleteResponse is the raw autocomplete payload.
type autocompleteResponse struct {
	Results []struct {
		City      string  `json:"city"`
		Country   string  `json:"country"`
		Formatted string  `json:"formatted"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
	} `json:"results"`
}

// Autocomplete looks up place matches for free text. Entries missing
// either city or country are dropped at this boundary so partial matches
// never propagate inward.
func (c *Client) Autocomplete(ctx context.Context, text string) ([]Place, error) {
	params := url.Values{}
	params.Set("text", text)
	reqURL := fmt.Sprintf("%s/autocomplete?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building autocomplete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var raw autocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode autocomplete response: %w", err)
	}

	places := make([]Place, 0, len(raw.Results))
	for _, r := range raw.Results {
		if r.City == "" || r.Country == "" {
			log.Debug().Str("formatted", r.Formatted).Msg("dropping incomplete autocomplete match")
			continue
		}
		places = append(places, Place{
			City:      r.City,
			Country:   r.Country,
			Formatted: r.Formatted,
			Lat:       r.Lat,
			Lon:       r.Lon,
		})
	}

	return places, nil
}
