package provider

import (
	"testing"
	"time"

	"github.com/samirrijal/midway/internal/adapters/googlemaps"
	"github.com/samirrijal/midway/internal/adapters/nominatim"
	"github.com/samirrijal/midway/internal/adapters/overpass"
	"github.com/samirrijal/midway/internal/pkg/config"
)

func TestNew_OSM(t *testing.T) {
	set, err := New(config.GeoConfig{
		Provider:       "osm",
		NominatimURL:   "https://nominatim.example.org",
		OverpassURL:    "https://overpass.example.org/api/interpreter",
		UserAgent:      "midway-test",
		RequestsPerSec: 1,
		Timeout:        time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := set.Geocoder.(*nominatim.Client); !ok {
		t.Errorf("expected nominatim geocoder, got %T", set.Geocoder)
	}
	if _, ok := set.Reverse.(*nominatim.Client); !ok {
		t.Errorf("expected nominatim reverse geocoder, got %T", set.Reverse)
	}
	if _, ok := set.Pois.(*overpass.Client); !ok {
		t.Errorf("expected overpass poi finder, got %T", set.Pois)
	}
	if set.Name != "osm" {
		t.Errorf("expected name osm, got %q", set.Name)
	}
}

func TestNew_Google(t *testing.T) {
	set, err := New(config.GeoConfig{Provider: "google", GoogleAPIKey: "AIza-test", RequestsPerSec: 10, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := set.Pois.(*googlemaps.Client); !ok {
		t.Errorf("expected google poi finder, got %T", set.Pois)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(config.GeoConfig{Provider: "google"}); err == nil {
		t.Error("expected an error without an API key")
	}
	if _, err := New(config.GeoConfig{Provider: "bing"}); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}
