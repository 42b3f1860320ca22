package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestNominatim(t *testing.T, h http.HandlerFunc) *Nominatim {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	n := NewNominatim()
	n.BaseURL = server.URL
	return n
}

func TestNominatim_RequestShape(t *testing.T) {
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %q, want /reverse", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("lat") != "41.0082" || q.Get("lon") != "28.9784" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("User-Agent"); got != "PrayerTimesApp/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept-Language"); got != "tr-TR" {
			t.Errorf("Accept-Language = %q", got)
		}
		w.Write([]byte(`{"address":{"province":"İstanbul"}}`))
	})

	label, err := n.Label(context.Background(), 41.0082, 28.9784)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "İstanbul" {
		t.Errorf("label = %q, want İstanbul", label)
	}
}

func TestNominatim_LabelPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"town and province", `{"address":{"town":"Kadıköy","province":"İstanbul","city":"İstanbul"}}`, "Kadıköy/İstanbul"},
		{"county and province", `{"address":{"county":"Çankaya","province":"Ankara"}}`, "Çankaya/Ankara"},
		{"province only", `{"address":{"province":"Konya","city":"Selçuklu"}}`, "Konya"},
		{"city", `{"address":{"city":"Berlin","city_district":"Mitte"}}`, "Berlin"},
		{"town without province", `{"address":{"town":"Bodrum"}}`, "Bodrum"},
		{"city district", `{"address":{"city_district":"Beyoğlu"}}`, "Beyoğlu"},
		{"no usable fields", `{"address":{"country":"Türkiye"}}`, "41.0082, 28.9784"},
		{"no address block", `{}`, "41.0082, 28.9784"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			got, err := n.Label(context.Background(), 41.0082, 28.9784)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("label = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNominatim_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, "slow down"},
		{"provider error", http.StatusOK, `{"error":"Unable to geocode"}`},
		{"invalid json", http.StatusOK, "<html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			if _, err := n.Label(context.Background(), 1, 2); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestCoordinateLabel(t *testing.T) {
	if got := CoordinateLabel(41.00823, -28.97849); got != "41.0082, -28.9785" {
		t.Errorf("CoordinateLabel = %q", got)
	}
}
