// Package googlemaps implements every geo port on top of the Google Maps
// Geocoding and Places APIs.
package googlemaps

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"googlemaps.github.io/maps"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/pkg/geospatial"
	"github.com/samirrijal/midway/internal/pkg/metrics"
	"github.com/samirrijal/midway/internal/pkg/telemetry"
)

const (
	provider = "google"

	// Places Nearby Search rejects anything larger.
	maxNearbyRadius = 50000
)

// Config tunes a Client.
type Config struct {
	APIKey         string
	BaseURL        string // optional, for tests
	RequestsPerSec float64
	Timeout        time.Duration
}

// Client implements ports.GeoProvider.
type Client struct {
	maps *maps.Client
}

// New creates a Google Maps client.
func New(cfg Config) (*Client, error) {
	opts := []maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestsPerSec >= 1 {
		opts = append(opts, maps.WithRateLimit(int(cfg.RequestsPerSec)))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	return &Client{maps: c}, nil
}

// Geocode returns the first geocoding result for address.
func (c *Client) Geocode(ctx context.Context, address string) (p domain.GeoPoint, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanGeocode, attribute.String("provider", provider))
	defer func() { telemetry.EndSpan(span, err) }()

	started := time.Now()
	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	observe("geocode", started, err)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: google geocode: %w", domain.ErrTransport, err)
	}
	if len(results) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("%w: no match for %q", domain.ErrNotFound, address)
	}
	loc := results[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// ReverseGeocode returns the best address for p. The Geocoding API has no
// search radius, so radiusMeters is only recorded on the span and every
// result is marked RadiusIgnored.
func (c *Client) ReverseGeocode(ctx context.Context, p domain.GeoPoint, radiusMeters int) (res domain.ReverseGeocodeResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanReverseGeocode,
		attribute.String("provider", provider),
		attribute.Int("radius", radiusMeters),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	started := time.Now()
	results, err := c.maps.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	observe("reverse", started, err)
	if err != nil {
		return domain.ReverseGeocodeResult{}, fmt.Errorf("%w: google reverse geocode: %w", domain.ErrTransport, err)
	}
	if len(results) == 0 {
		return domain.ReverseGeocodeResult{RadiusIgnored: true}, nil
	}

	first := results[0]
	return domain.ReverseGeocodeResult{
		DisplayName:   first.FormattedAddress,
		HasAddress:    true,
		IsHighwayOnly: onlyRoadTypes(first.Types),
		RadiusIgnored: true,
	}, nil
}

// onlyRoadTypes reports whether a result describes nothing more precise
// than a road segment or a plus code.
func onlyRoadTypes(types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t != "route" && t != "plus_code" {
			return false
		}
	}
	return true
}

// FindNearby runs a Places Nearby Search. A value Google knows as a place
// type is sent as Type, anything else as Keyword.
func (c *Client) FindNearby(ctx context.Context, p domain.GeoPoint, query domain.PoiQuery, radiusMeters int) (pois []domain.Poi, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanFindNearby,
		attribute.String("provider", provider),
		attribute.String("poi_query", query.AmenityType+"="+query.AmenityValue),
		attribute.Int("radius", radiusMeters),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	radius := min(max(radiusMeters, 1), maxNearbyRadius)
	req := &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
		Radius:   uint(radius),
	}
	if pt, perr := maps.ParsePlaceType(query.AmenityValue); perr == nil {
		req.Type = pt
	} else {
		req.Keyword = query.AmenityValue
	}

	started := time.Now()
	resp, err := c.maps.NearbySearch(ctx, req)
	observe("find_nearby", started, err)
	if err != nil {
		return nil, fmt.Errorf("%w: google nearby search: %w", domain.ErrTransport, err)
	}

	pois = make([]domain.Poi, 0, len(resp.Results))
	for _, r := range resp.Results {
		loc := domain.GeoPoint{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}
		d := geospatial.Haversine(p.Lat, p.Lng, loc.Lat, loc.Lng)
		pois = append(pois, domain.Poi{
			ID:       r.PlaceID,
			Location: loc,
			Name:     r.Name,
			Distance: &d,
		})
	}
	return pois, nil
}

func observe(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ObserveProvider(provider, operation, outcome, started)
}
