package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","lat":31.5204,"lon":74.3587,"city":"Lahore","country":"Pakistan","timezone":"Asia/Karachi"}`)
	}))
	defer server.Close()

	orig := geoAPIURL
	geoAPIURL = server.URL
	defer func() { geoAPIURL = orig }()

	loc, err := DetectLocation(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.City != "Lahore" || loc.Latitude != 31.5204 {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestDetectLocation_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"fail","message":"private range"}`)
	}))
	defer server.Close()

	orig := geoAPIURL
	geoAPIURL = server.URL
	defer func() { geoAPIURL = orig }()

	if _, err := DetectLocation(context.Background()); err == nil {
		t.Fatal("expected error for failed status")
	}
}

func TestReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"city":"Lahore","country":"Pakistan","formatted":"Lahore, Punjab, Pakistan"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	p, err := c.ReverseGeocode(context.Background(), 31.5204, 74.3587)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Label() != "Lahore, Punjab, Pakistan" {
		t.Errorf("Label = %q", p.Label())
	}
}

func TestReverseGeocode_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.ReverseGeocode(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestAutocomplete_FiltersIncompleteMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("text"); got != "Lon" {
			t.Errorf("text = %q", got)
		}
		fmt.Fprint(w, `{"results":[
			{"city":"London","country":"United Kingdom","lat":51.5,"lon":-0.12},
			{"city":"London","country":null},
			{"city":"","country":"Canada"},
			{"city":"Londrina","country":"Brazil","lat":-23.3,"lon":-51.16}
		]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	places, err := c.Autocomplete(context.Background(), "Lon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(places) != 2 {
		t.Fatalf("got %d places, want 2: %+v", len(places), places)
	}
	if places[0].City != "London" || places[0].Country != "United Kingdom" {
		t.Errorf("first match = %+v", places[0])
	}
	if places[1].City != "Londrina" {
		t.Errorf("second match = %+v", places[1])
	}
}

func TestPlaceLabel(t *testing.T) {
	p := Place{City: "Lahore", Country: "Pakistan"}
	if got := p.Label(); got != "Lahore, Pakistan" {
		t.Errorf("Label = %q", got)
	}
}
