package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// sampleResponse returns a valid Al Adhan API response for testing.
func sampleResponse() Response {
	return Response{
		Code:   200,
		Status: "OK",
		Data: Data{
			Timings: Timings{
				Fajr:    "05:30",
				Sunrise: "07:00",
				Dhuhr:   "12:30",
				Asr:     "15:45",
				Maghrib: "18:20",
				Isha:    "19:45",
			},
			Date: DateInfo{
				Readable:  "14 Oct 2026",
				Timestamp: "1791957600",
				Hijri: HijriDate{
					Day:   "3",
					Month: HijriMonth{Number: 5, En: "Jumādá al-ūlá"},
					Year:  "1448",
				},
			},
			Meta: Meta{
				Latitude:  41.0082,
				Longitude: 28.9784,
				Timezone:  "Europe/Istanbul",
				Method:    MethodInfo{ID: 13, Name: "Diyanet İşleri Başkanlığı, Turkey"},
			},
		},
	}
}

func sampleRequest() Request {
	return Request{
		Date:       time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
		Latitude:   41.0082,
		Longitude:  28.9784,
		Method:     DefaultMethod,
		Adjustment: DefaultAdjustment,
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient()
	if c == nil {
		t.Fatal("NewClient returned nil")
	}
	if c.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, defaultBaseURL)
	}
}

func TestFetchTimings_Success(t *testing.T) {
	resp := sampleResponse()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/timings/1791936000") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("latitude") != "41.008200" {
			t.Errorf("latitude = %q, want %q", q.Get("latitude"), "41.008200")
		}
		if q.Get("longitude") != "28.978400" {
			t.Errorf("longitude = %q, want %q", q.Get("longitude"), "28.978400")
		}
		if q.Get("method") != "13" {
			t.Errorf("method = %q, want %q", q.Get("method"), "13")
		}
		if q.Get("adjustment") != "1" {
			t.Errorf("adjustment = %q, want %q", q.Get("adjustment"), "1")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient()
	c.BaseURL = server.URL

	got, err := c.FetchTimings(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Data.Timings.Fajr != "05:30" {
		t.Errorf("Fajr = %q, want %q", got.Data.Timings.Fajr, "05:30")
	}
	if got.Data.Meta.Timezone != "Europe/Istanbul" {
		t.Errorf("Timezone = %q, want %q", got.Data.Meta.Timezone, "Europe/Istanbul")
	}
	if got.Data.Date.Hijri.IsRamadan() {
		t.Error("month 5 should not be Ramadan")
	}
}

func TestFetchTimings_NoMethodOrAdjustment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "" {
			t.Errorf("method should not be set, got %q", q.Get("method"))
		}
		if q.Get("adjustment") != "" {
			t.Errorf("adjustment should not be set, got %q", q.Get("adjustment"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sampleResponse())
	}))
	defer server.Close()

	c := NewClient()
	c.BaseURL = server.URL

	req := sampleRequest()
	req.Method = -1
	req.Adjustment = 0
	if _, err := c.FetchTimings(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchTimings_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient()
	c.BaseURL = server.URL

	_, err := c.FetchTimings(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("expected error for HTTP 503, got nil")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should mention 503, got: %v", err)
	}
}

func TestFetchTimings_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewClient()
	c.BaseURL = server.URL

	_, err := c.FetchTimings(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("error should mention decode, got: %v", err)
	}
}

func TestFetchTimings_APIErrorCode(t *testing.T) {
	resp := Response{Code: 400, Status: "Bad Request"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient()
	c.BaseURL = server.URL

	_, err := c.FetchTimings(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("expected error for API code 400, got nil")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should mention 400, got: %v", err)
	}
}

func TestFetchTimings_ConnectionRefused(t *testing.T) {
	c := NewClient()
	c.BaseURL = "http://127.0.0.1:1" // nothing listening

	_, err := c.FetchTimings(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("expected error for connection refused, got nil")
	}
}

func TestFetchTimings_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sampleResponse())
	}))
	defer server.Close()

	c := NewClient()
	c.BaseURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.FetchTimings(ctx, sampleRequest()); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestFetchTimings_DateIsUnixTimestamp(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sampleResponse())
	}))
	defer server.Close()

	istanbul, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	c := NewClient()
	c.BaseURL = server.URL

	// 22:30 UTC is already the next day in Istanbul; both spellings of the
	// instant must ask for the same day.
	at := time.Date(2026, 10, 14, 22, 30, 0, 0, time.UTC)
	for _, d := range []time.Time{at, at.In(istanbul), at.In(time.FixedZone("PST", -8*3600))} {
		req := sampleRequest()
		req.Date = d
		if _, err := c.FetchTimings(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for _, p := range paths {
		if !strings.HasSuffix(p, "/timings/1792017000") {
			t.Errorf("path = %s, want suffix /timings/1792017000", p)
		}
	}
}
