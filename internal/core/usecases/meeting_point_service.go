package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/ports"
	"github.com/samirrijal/midway/internal/pkg/metrics"
	"github.com/samirrijal/midway/internal/pkg/telemetry"
)

// DefaultPoiRadius is the nearby-feature search radius in metres.
const DefaultPoiRadius = 10000

// MeetingPointResolver is what callers need from MeetingPointService.
type MeetingPointResolver interface {
	Resolve(ctx context.Context, points []domain.GeoPoint, query domain.PoiQuery) (*domain.MeetingPointResult, error)
}

// MeetingPointService computes a midpoint, its address and a nearby hangout.
type MeetingPointService struct {
	reverse   ports.ReverseGeocoder
	pois      ports.PoiFinder
	cache     ports.CacheService
	search    AddressSearch
	poiRadius int
	now       func() time.Time
}

// MeetingPointOption configures a MeetingPointService.
type MeetingPointOption func(*MeetingPointService)

// WithPoiRadius overrides the 10km POI search radius.
func WithPoiRadius(meters int) MeetingPointOption {
	return func(s *MeetingPointService) {
		if meters > 0 {
			s.poiRadius = meters
		}
	}
}

// WithAddressSearch overrides the radius schedule of the address search.
func WithAddressSearch(search AddressSearch) MeetingPointOption {
	return func(s *MeetingPointService) { s.search = search }
}

// WithCache enables read-through caching of POI lists.
func WithCache(cache ports.CacheService) MeetingPointOption {
	return func(s *MeetingPointService) { s.cache = cache }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MeetingPointOption {
	return func(s *MeetingPointService) { s.now = now }
}

// NewMeetingPointService creates a new MeetingPointService.
func NewMeetingPointService(reverse ports.ReverseGeocoder, pois ports.PoiFinder, opts ...MeetingPointOption) *MeetingPointService {
	s := &MeetingPointService{
		reverse:   reverse,
		pois:      pois,
		search:    DefaultAddressSearch(),
		poiRadius: DefaultPoiRadius,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PoiRadius returns the configured POI search radius.
func (s *MeetingPointService) PoiRadius() int {
	return s.poiRadius
}

// Resolve builds a fresh MeetingPointResult for two or more points.
//
// A failed address search is not fatal: Address stays nil and a warning is
// attached. A failed POI query returns the partial result together with an
// error wrapping domain.ErrPoiLookupFailed.
func (s *MeetingPointService) Resolve(ctx context.Context, points []domain.GeoPoint, query domain.PoiQuery) (*domain.MeetingPointResult, error) {
	return s.ResolveWithin(ctx, points, query, s.poiRadius)
}

// ResolveWithin is Resolve with a caller-chosen POI radius. A radius <= 0
// uses the configured one.
func (s *MeetingPointService) ResolveWithin(ctx context.Context, points []domain.GeoPoint, query domain.PoiQuery, poiRadius int) (result *domain.MeetingPointResult, err error) {
	for _, p := range points {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPoint, p)
		}
	}

	midpoint, ok := ComputeMidpoint(points)
	if !ok {
		return nil, domain.ErrNotApplicable
	}
	if query.IsZero() {
		query = domain.DefaultPoiQuery
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanResolve,
		attribute.Int("points", len(points)),
		attribute.String("poi_query", query.AmenityType+"="+query.AmenityValue),
		attribute.Int("poi_radius", poiRadius),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	result = &domain.MeetingPointResult{
		Midpoint:   midpoint,
		ComputedAt: s.now(),
	}

	addr, addrErr := s.search.Find(ctx, midpoint, s.reverse.ReverseGeocode)
	if addrErr != nil {
		slog.WarnContext(ctx, "midpoint address unavailable", "midpoint", midpoint.String(), "error", addrErr)
		result.Warnings = append(result.Warnings, addrErr.Error())
	} else {
		result.Address = &addr
	}

	pois, poiErr := s.NearbyPois(ctx, midpoint, query, poiRadius)
	if poiErr != nil {
		metrics.MeetingPointsResolved.WithLabelValues("poi_failed").Inc()
		return result, fmt.Errorf("%w: %w", domain.ErrPoiLookupFailed, poiErr)
	}

	if len(pois) > 0 {
		// Provider order, not necessarily the nearest.
		result.Recommendation = pois[0].Name
	} else {
		result.Recommendation = domain.NoSuggestion
	}

	outcome := "ok"
	if result.Address == nil {
		outcome = "degraded"
	}
	metrics.MeetingPointsResolved.WithLabelValues(outcome).Inc()

	return result, nil
}

// FindAddress runs the configured address search against the reverse geocoder.
func (s *MeetingPointService) FindAddress(ctx context.Context, point domain.GeoPoint) (string, error) {
	if !point.Valid() {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidPoint, point)
	}
	return s.search.Find(ctx, point, s.reverse.ReverseGeocode)
}

// NearbyPois lists features near point, through the cache when one is set.
func (s *MeetingPointService) NearbyPois(ctx context.Context, point domain.GeoPoint, query domain.PoiQuery, radiusMeters int) ([]domain.Poi, error) {
	if !point.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPoint, point)
	}
	if query.IsZero() {
		query = domain.DefaultPoiQuery
	}
	if radiusMeters <= 0 {
		radiusMeters = s.poiRadius
	}

	cacheKey := fmt.Sprintf("pois:nearby:%.5f:%.5f:%s=%s:%d", point.Lat, point.Lng, query.AmenityType, query.AmenityValue, radiusMeters)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var pois []domain.Poi
			if err := json.Unmarshal(data, &pois); err == nil {
				metrics.CacheHits.WithLabelValues("pois_nearby").Inc()
				return pois, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("pois_nearby").Inc()
	}

	pois, err := s.pois.FindNearby(ctx, point, query, radiusMeters)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes
	if s.cache != nil {
		if data, err := json.Marshal(pois); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return pois, nil
}
