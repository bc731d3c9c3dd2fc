package ports

import (
	"context"

	"github.com/samirrijal/midway/internal/core/domain"
)

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	// Geocode fails with domain.ErrNotFound or domain.ErrTransport.
	Geocode(ctx context.Context, address string) (domain.GeoPoint, error)
}

// ReverseGeocoder resolves a coordinate to the best address within a radius.
type ReverseGeocoder interface {
	// ReverseGeocode fails with domain.ErrTransport.
	ReverseGeocode(ctx context.Context, point domain.GeoPoint, radiusMeters int) (domain.ReverseGeocodeResult, error)
}

// PoiFinder lists named features near a coordinate.
type PoiFinder interface {
	// FindNearby fails with domain.ErrTransport. An empty result is not an error.
	FindNearby(ctx context.Context, point domain.GeoPoint, query domain.PoiQuery, radiusMeters int) ([]domain.Poi, error)
}

// GeoProvider bundles the three lookups offered by a single backend.
type GeoProvider interface {
	Geocoder
	ReverseGeocoder
	PoiFinder
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishMeetingPoint(ctx context.Context, sessionID string, result *domain.MeetingPointResult) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeMeetingPoints(ctx context.Context, handler func(ctx context.Context, sessionID string, result *domain.MeetingPointResult) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
