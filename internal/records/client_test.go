package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/salahtrack/salahtrack/internal/prayer"
)

type staticTokens string

func (s staticTokens) Token() (string, error) {
	if s == "" {
		return "", errors.New("no session")
	}
	return string(s), nil
}

func TestMark_SendsAuthAndIdempotencyKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/v1/records/2024-06-01/Fajr" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("missing Idempotency-Key on mutation")
		}
		var req markRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Completed || req.CompletedAt == nil {
			t.Errorf("request body = %+v", req)
		}
		json.NewEncoder(w).Encode(prayer.Record{
			Date: "2024-06-01", Prayer: prayer.Fajr, Completed: true, CompletedAt: req.CompletedAt,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, staticTokens("tok123"))
	rec, err := c.Mark(context.Background(), "2024-06-01", prayer.Fajr, nil)
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if !rec.Completed || rec.Date != "2024-06-01" {
		t.Errorf("record = %+v", rec)
	}
}

func TestMark_NoSession_NoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewClient(server.URL, staticTokens(""))
	_, err := c.Mark(context.Background(), "2024-06-01", prayer.Fajr, nil)
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
	if calls.Load() != 0 {
		t.Error("a request was issued despite missing credentials")
	}
}

func TestMark_InvalidDate_NoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewClient(server.URL, staticTokens("tok"))
	if _, err := c.Mark(context.Background(), "06/01/2024", prayer.Fajr, nil); err == nil {
		t.Fatal("expected validation error")
	}
	if calls.Load() != 0 {
		t.Error("a request was issued for a malformed date")
	}
}

func TestDo_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.URL, staticTokens("stale"))
	_, err := c.Unmark(context.Background(), "2024-06-01", prayer.Isha)
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
}

func TestRange_GroupsAndFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("start"); got != "2024-06-02" {
			t.Errorf("start = %q", got)
		}
		if got := r.URL.Query().Get("end"); got != "2024-06-08" {
			t.Errorf("end = %q", got)
		}
		fmt.Fprint(w, `{"records":[
			{"date":"2024-06-02","prayer":"Fajr","completed":true},
			{"date":"2024-06-02","prayer":"Isha","completed":false},
			{"date":"2024-06-03","prayer":"Dhuhr","completed":true},
			{"date":"bogus","prayer":"Fajr","completed":true},
			{"date":"2024-06-03","prayer":"Brunch","completed":true}
		]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, staticTokens("tok"))
	got, err := c.Range(context.Background(), "2024-06-02", "2024-06-08")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d dates, want 2", len(got))
	}
	if len(got["2024-06-02"]) != 2 {
		t.Errorf("2024-06-02 has %d records, want 2", len(got["2024-06-02"]))
	}
	if !got["2024-06-02"][prayer.Fajr].Completed {
		t.Error("Fajr on 2024-06-02 should be completed")
	}
	if _, ok := got["bogus"]; ok {
		t.Error("malformed date should be dropped at the boundary")
	}
}

func TestPurgeAndStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/records/2024-06-01":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/stats":
			if got := r.URL.Query().Get("month"); got != "6" {
				t.Errorf("month = %q", got)
			}
			json.NewEncoder(w).Encode(Stats{
				Year: 2024, Month: 6, Total: 150, Completed: 120,
				PerPrayer: map[prayer.Name]int{prayer.Fajr: 20},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, staticTokens("tok"))
	if err := c.Purge(context.Background(), "2024-06-01"); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	st, err := c.GetStats(context.Background(), 6, 2024)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.Completed != 120 || st.PerPrayer[prayer.Fajr] != 20 {
		t.Errorf("stats = %+v", st)
	}
}

func TestDo_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed immediately: connection refused

	c := NewClient(server.URL, staticTokens("tok"))
	_, err := c.Range(context.Background(), "2024-06-01", "2024-06-07")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}
