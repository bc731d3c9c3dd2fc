// Package nominatim talks to an OpenStreetMap Nominatim server.
package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/pkg/geohttp"
	"github.com/samirrijal/midway/internal/pkg/telemetry"
)

// Config tunes a Client.
type Config struct {
	BaseURL        string
	UserAgent      string
	RequestsPerSec float64
	Timeout        time.Duration
}

// Client implements ports.Geocoder and ports.ReverseGeocoder.
type Client struct {
	baseURL string
	http    *geohttp.Client
}

// New creates a Nominatim client. The public instance allows one request per
// second and requires an identifying User-Agent.
func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: geohttp.New(geohttp.Config{
			Provider:       "nominatim",
			UserAgent:      cfg.UserAgent,
			RequestsPerSec: cfg.RequestsPerSec,
			Timeout:        cfg.Timeout,
		}),
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	DisplayName string         `json:"display_name"`
	Address     *reverseFields `json:"address"`
	Error       string         `json:"error"`
}

type reverseFields struct {
	Road    string `json:"road"`
	Highway string `json:"highway"`
}

// Geocode returns the first match for address.
func (c *Client) Geocode(ctx context.Context, address string) (p domain.GeoPoint, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanGeocode, attribute.String("provider", "nominatim"))
	defer func() { telemetry.EndSpan(span, err) }()

	params := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}
	var results []searchResult
	if err := c.http.GetJSON(ctx, "geocode", c.baseURL+"/search?"+params.Encode(), &results); err != nil {
		return domain.GeoPoint{}, err
	}
	if len(results) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("%w: no match for %q", domain.ErrNotFound, address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: bad latitude %q", domain.ErrTransport, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: bad longitude %q", domain.ErrTransport, results[0].Lon)
	}
	return domain.GeoPoint{Lat: lat, Lng: lon}, nil
}

// ReverseGeocode returns the closest address within radiusMeters of p.
// A match is highway-only unless it has a road and no highway component.
func (c *Client) ReverseGeocode(ctx context.Context, p domain.GeoPoint, radiusMeters int) (res domain.ReverseGeocodeResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanReverseGeocode,
		attribute.String("provider", "nominatim"),
		attribute.Int("radius", radiusMeters),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	params := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(p.Lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(p.Lng, 'f', -1, 64)},
		"radius": {strconv.Itoa(radiusMeters)},
	}
	var body reverseResult
	if err := c.http.GetJSON(ctx, "reverse", c.baseURL+"/reverse?"+params.Encode(), &body); err != nil {
		return domain.ReverseGeocodeResult{}, err
	}

	// {"error":"Unable to geocode"} comes back with a 200 and no address.
	if body.Address == nil {
		return domain.ReverseGeocodeResult{DisplayName: body.DisplayName}, nil
	}
	return domain.ReverseGeocodeResult{
		DisplayName:   body.DisplayName,
		HasAddress:    true,
		IsHighwayOnly: body.Address.Road == "" || body.Address.Highway != "",
	}, nil
}
