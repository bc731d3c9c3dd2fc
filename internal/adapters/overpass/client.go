// Package overpass finds named OpenStreetMap features with the Overpass API.
package overpass

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
	"github.com/samirrijal/midway/internal/pkg/geospatial"
	"github.com/samirrijal/midway/internal/pkg/telemetry"
)

// Config tunes a Client.
type Config struct {
	URL            string // interpreter endpoint
	UserAgent      string
	RequestsPerSec float64
	Timeout        time.Duration
}

// Client implements ports.PoiFinder.
type Client struct {
	endpoint string
	http     *geohttp.Client
}

// New creates an Overpass client.
func New(cfg Config) *Client {
	return &Client{
		endpoint: cfg.URL,
		http: geohttp.New(geohttp.Config{
			Provider:       "overpass",
			UserAgent:      cfg.UserAgent,
			RequestsPerSec: cfg.RequestsPerSec,
			Timeout:        cfg.Timeout,
		}),
	}
}

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

var tagEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// BuildQuery renders the Overpass QL for named features tagged
// query.AmenityType=query.AmenityValue within radiusMeters of p.
func BuildQuery(p domain.GeoPoint, query domain.PoiQuery, radiusMeters int) string {
	return fmt.Sprintf(`[out:json][timeout:25];nwr(around:%d,%s,%s)["name"]["%s"="%s"];out center;`,
		radiusMeters,
		strconv.FormatFloat(p.Lat, 'f', -1, 64),
		strconv.FormatFloat(p.Lng, 'f', -1, 64),
		tagEscaper.Replace(query.AmenityType),
		tagEscaper.Replace(query.AmenityValue),
	)
}

// FindNearby returns features in the order Overpass lists them. Ways and
// relations are placed at their centre.
func (c *Client) FindNearby(ctx context.Context, p domain.GeoPoint, query domain.PoiQuery, radiusMeters int) (pois []domain.Poi, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanFindNearby,
		attribute.String("provider", "overpass"),
		attribute.String("poi_query", query.AmenityType+"="+query.AmenityValue),
		attribute.Int("radius", radiusMeters),
	)
	defer func() {
		span.SetAttributes(attribute.Int("results", len(pois)))
		telemetry.EndSpan(span, err)
	}()

	params := url.Values{"data": {BuildQuery(p, query, radiusMeters)}}
	var body response
	if err := c.http.GetJSON(ctx, "find_nearby", c.endpoint+"?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	pois = make([]domain.Poi, 0, len(body.Elements))
	for _, el := range body.Elements {
		loc, ok := el.location()
		if !ok {
			continue
		}
		d := geospatial.Haversine(p.Lat, p.Lng, loc.Lat, loc.Lng)
		pois = append(pois, domain.Poi{
			ID:       el.Type + "/" + strconv.FormatInt(el.ID, 10),
			Location: loc,
			Name:     el.Tags["name"],
			Distance: &d,
		})
	}
	return pois, nil
}

func (el element) location() (domain.GeoPoint, bool) {
	switch {
	case el.Lat != nil && el.Lon != nil:
		return domain.GeoPoint{Lat: *el.Lat, Lng: *el.Lon}, true
	case el.Center != nil:
		return domain.GeoPoint{Lat: el.Center.Lat, Lng: el.Center.Lon}, true
	default:
		return domain.GeoPoint{}, false
	}
}
