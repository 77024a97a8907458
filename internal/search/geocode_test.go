package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestNominatim(t *testing.T, body string) (*Nominatim, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("zoom"); got != "10" {
			t.Errorf("zoom = %q, want city level", got)
		}
		w.Write([]byte(body))
	}))
	n := NewNominatim(time.Second)
	n.baseURL = srv.URL
	return n, srv.Close
}

func TestLocationNameCityState(t *testing.T) {
	n, closeSrv := newTestNominatim(t, `{"address": {"city": "Springfield", "state": "IL", "country": "United States"}}`)
	defer closeSrv()

	got, err := n.LocationName(context.Background(), 39.78, -89.65)
	if err != nil {
		t.Fatalf("LocationName: %v", err)
	}
	if got != "Springfield, IL" {
		t.Errorf("got %q, want Springfield, IL", got)
	}
}

func TestLocationNameFallbackLadder(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"town and country", `{"address": {"town": "Carlingford", "country": "Ireland"}}`, "Carlingford, Ireland"},
		{"village only", `{"address": {"village": "Oberammergau"}}`, "Oberammergau"},
		{"city and country", `{"address": {"city": "Reykjavik", "country": "Iceland"}}`, "Reykjavik, Iceland"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, closeSrv := newTestNominatim(t, tt.body)
			defer closeSrv()

			got, err := n.LocationName(context.Background(), 1, 2)
			if err != nil {
				t.Fatalf("LocationName: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocationNameNoCity(t *testing.T) {
	n, closeSrv := newTestNominatim(t, `{"address": {"state": "Atlantic Ocean"}}`)
	defer closeSrv()

	if _, err := n.LocationName(context.Background(), 0, -30); err == nil {
		t.Fatal("expected error when no city-like component present")
	}
}

func TestLocationNameHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewNominatim(time.Second)
	n.baseURL = srv.URL

	if _, err := n.LocationName(context.Background(), 1, 2); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}
