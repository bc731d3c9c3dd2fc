package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/ports"
	"github.com/samirrijal/midway/internal/pkg/metrics"
)

const maxQueryLength = 200

// GeocodeService resolves addresses through Valkey, then the durable store,
// then the provider.
type GeocodeService struct {
	geocoder ports.Geocoder
	provider string
	cache    ports.CacheService
	store    ports.GeocodeCacheRepository
}

// NewGeocodeService creates a new GeocodeService. cache and store may be nil.
func NewGeocodeService(geocoder ports.Geocoder, provider string, cache ports.CacheService, store ports.GeocodeCacheRepository) *GeocodeService {
	return &GeocodeService{geocoder: geocoder, provider: provider, cache: cache, store: store}
}

// Geocode returns the coordinates of the first match for address.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	query := strings.TrimSpace(address)
	if query == "" {
		return domain.GeoPoint{}, fmt.Errorf("%w: address must not be empty", domain.ErrInvalidQuery)
	}
	if len(query) > maxQueryLength {
		return domain.GeoPoint{}, fmt.Errorf("%w: address too long (max %d characters)", domain.ErrInvalidQuery, maxQueryLength)
	}
	normalized := strings.ToLower(query)

	// Try cache
	cacheKey := "geocode:" + s.provider + ":" + normalized
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var p domain.GeoPoint
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return p, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	// Durable store
	if s.store != nil {
		entry, err := s.store.Get(ctx, s.provider, normalized)
		switch {
		case err == nil:
			s.remember(ctx, cacheKey, entry.Location)
			return entry.Location, nil
		case !errors.Is(err, domain.ErrNotFound):
			slog.WarnContext(ctx, "geocode store lookup failed", "error", err)
		}
	}

	p, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		return domain.GeoPoint{}, err
	}

	if s.store != nil {
		entry := &domain.GeocodeCacheEntry{
			Query:     normalized,
			Provider:  s.provider,
			Location:  p,
			CreatedAt: time.Now(),
		}
		if err := s.store.Upsert(ctx, entry); err != nil {
			slog.WarnContext(ctx, "geocode store write failed", "error", err)
		}
	}
	s.remember(ctx, cacheKey, p)

	return p, nil
}

// Cache for 24 hours; addresses rarely move.
func (s *GeocodeService) remember(ctx context.Context, key string, p domain.GeoPoint) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(p); err == nil {
		_ = s.cache.Set(ctx, key, data, 86400)
	}
}
