// Package provider builds the geo adapters selected by configuration.
package provider

import (
	"fmt"

	"github.com/samirrijal/midway/internal/adapters/googlemaps"
	"github.com/samirrijal/midway/internal/adapters/nominatim"
	"github.com/samirrijal/midway/internal/adapters/overpass"
	"github.com/samirrijal/midway/internal/core/ports"
	"github.com/samirrijal/midway/internal/pkg/config"
)

// Set is the group of lookups one configuration provides.
type Set struct {
	Name     string // osm | google; also the geocode cache namespace
	Geocoder ports.Geocoder
	Reverse  ports.ReverseGeocoder
	Pois     ports.PoiFinder
}

// New wires Nominatim and Overpass for "osm", or Google Maps for "google".
func New(cfg config.GeoConfig) (*Set, error) {
	switch cfg.Provider {
	case "osm":
		nom := nominatim.New(nominatim.Config{
			BaseURL:        cfg.NominatimURL,
			UserAgent:      cfg.UserAgent,
			RequestsPerSec: cfg.RequestsPerSec,
			Timeout:        cfg.Timeout,
		})
		ovp := overpass.New(overpass.Config{
			URL:            cfg.OverpassURL,
			UserAgent:      cfg.UserAgent,
			RequestsPerSec: cfg.RequestsPerSec,
			Timeout:        cfg.Timeout,
		})
		return &Set{Name: cfg.Provider, Geocoder: nom, Reverse: nom, Pois: ovp}, nil

	case "google":
		g, err := googlemaps.New(googlemaps.Config{
			APIKey:         cfg.GoogleAPIKey,
			RequestsPerSec: cfg.RequestsPerSec,
			Timeout:        cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("google maps: %w", err)
		}
		var gp ports.GeoProvider = g
		return &Set{Name: cfg.Provider, Geocoder: gp, Reverse: gp, Pois: gp}, nil

	default:
		return nil, fmt.Errorf("unknown geo provider %q", cfg.Provider)
	}
}
