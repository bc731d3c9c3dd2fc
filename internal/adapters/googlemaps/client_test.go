package googlemaps_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/midway/internal/adapters/googlemaps"
	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/usecases"
)

func newClient(t *testing.T, mux *http.ServeMux) *googlemaps.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := googlemaps.New(googlemaps.Config{
		APIKey:         "AIzaFakeKeyForTests",
		BaseURL:        srv.URL,
		RequestsPerSec: 50,
		Timeout:        2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGeocode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") != "Plaza Moyua, Bilbao" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Plaza Moyua","types":["square"],"geometry":{"location":{"lat":43.2631,"lng":-2.9350}}}]}`))
	})

	p, err := newClient(t, mux).Geocode(context.Background(), "Plaza Moyua, Bilbao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != 43.2631 || p.Lng != -2.935 {
		t.Errorf("unexpected point %+v", p)
	}
}

func TestGeocode_ZeroResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	_, err := newClient(t, mux).Geocode(context.Background(), "zzzz")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGeocode_Denied(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key","results":[]}`))
	})

	_, err := newClient(t, mux).Geocode(context.Background(), "Bilbao")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestReverseGeocode_Classification(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantHighway bool
		wantAddress bool
	}{
		{"street address", `{"status":"OK","results":[{"formatted_address":"Gran Via 1","types":["street_address"]}]}`, false, true},
		{"route only", `{"status":"OK","results":[{"formatted_address":"A-8","types":["route"]}]}`, true, true},
		{"nothing", `{"status":"ZERO_RESULTS","results":[]}`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			res, err := newClient(t, mux).ReverseGeocode(context.Background(), domain.GeoPoint{Lat: 43.26, Lng: -2.93}, 50)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.IsHighwayOnly != tt.wantHighway || res.HasAddress != tt.wantAddress {
				t.Errorf("got highway=%v address=%v", res.IsHighwayOnly, res.HasAddress)
			}
			if !res.RadiusIgnored {
				t.Error("expected every google result to be marked RadiusIgnored")
			}
		})
	}
}

func TestReverseGeocode_HighwayStopsAddressSearch(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"A-8","types":["route"]}]}`))
	})

	c := newClient(t, mux)
	_, err := usecases.FindQualityAddress(context.Background(), domain.GeoPoint{Lat: 43.26, Lng: -2.93}, c.ReverseGeocode)
	if !errors.Is(err, domain.ErrNoAddressFound) {
		t.Fatalf("expected ErrNoAddressFound, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected a single geocoding call, got %d", n)
	}
}

func TestFindNearby(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/place/nearbysearch/json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "cafe" || q.Get("radius") != "10000" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"name":"Cafe Iruña","place_id":"p1","geometry":{"location":{"lat":43.2635,"lng":-2.9290}}},
			{"name":"Cafe Boulevard","place_id":"p2","geometry":{"location":{"lat":43.2590,"lng":-2.9230}}}
		]}`))
	})

	pois, err := newClient(t, mux).FindNearby(context.Background(), domain.GeoPoint{Lat: 43.263, Lng: -2.93}, domain.DefaultPoiQuery, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pois) != 2 || pois[0].Name != "Cafe Iruña" || pois[0].ID != "p1" {
		t.Errorf("unexpected pois %+v", pois)
	}
	if pois[0].Distance == nil {
		t.Error("expected distance to be filled")
	}
}

func TestFindNearby_UnknownTypeUsesKeyword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/maps/api/place/nearbysearch/json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("keyword") != "biergarten" || q.Get("type") != "" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	pois, err := newClient(t, mux).FindNearby(context.Background(), domain.GeoPoint{Lat: 48.1, Lng: 11.5},
		domain.PoiQuery{AmenityType: "amenity", AmenityValue: "biergarten"}, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pois) != 0 {
		t.Errorf("expected no pois, got %+v", pois)
	}
}
