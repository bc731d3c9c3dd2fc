package ports

import (
	"context"

	"github.com/samirrijal/midway/internal/core/domain"
)

// GeocodeCacheRepository persists provider answers for address lookups.
type GeocodeCacheRepository interface {
	// Get returns domain.ErrNotFound when the query has not been stored.
	Get(ctx context.Context, provider, query string) (*domain.GeocodeCacheEntry, error)
	Upsert(ctx context.Context, entry *domain.GeocodeCacheEntry) error
}
