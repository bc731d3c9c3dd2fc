package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/midway/internal/core/domain"
)

// --- Mock ReverseGeocoder ---

type mockReverse struct {
	mu        sync.Mutex
	radii     []int
	reverseFn func(ctx context.Context, p domain.GeoPoint, radius int) (domain.ReverseGeocodeResult, error)
}

func (m *mockReverse) ReverseGeocode(ctx context.Context, p domain.GeoPoint, radius int) (domain.ReverseGeocodeResult, error) {
	m.mu.Lock()
	m.radii = append(m.radii, radius)
	m.mu.Unlock()
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p, radius)
	}
	return domain.ReverseGeocodeResult{DisplayName: "1 Main Street", HasAddress: true}, nil
}

func (m *mockReverse) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.radii)
}

// --- Mock PoiFinder ---

type mockPoiFinder struct {
	calls        int
	findNearbyFn func(ctx context.Context, p domain.GeoPoint, q domain.PoiQuery, radius int) ([]domain.Poi, error)
}

func (m *mockPoiFinder) FindNearby(ctx context.Context, p domain.GeoPoint, q domain.PoiQuery, radius int) ([]domain.Poi, error) {
	m.calls++
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, p, q, radius)
	}
	return nil, nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	calls     int
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	m.calls++
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.GeoPoint{}, domain.ErrNotFound
}

// --- Mock CacheService (in-memory) ---

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock GeocodeCacheRepository ---

type mockGeocodeStore struct {
	entries  map[string]domain.GeocodeCacheEntry
	getErr   error
	upserted int
}

func (m *mockGeocodeStore) Get(ctx context.Context, provider, query string) (*domain.GeocodeCacheEntry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	e, ok := m.entries[provider+"|"+query]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (m *mockGeocodeStore) Upsert(ctx context.Context, e *domain.GeocodeCacheEntry) error {
	if m.entries == nil {
		m.entries = map[string]domain.GeocodeCacheEntry{}
	}
	m.entries[e.Provider+"|"+e.Query] = *e
	m.upserted++
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	published map[string][]*domain.MeetingPointResult
	err       error
}

func (m *mockPublisher) PublishMeetingPoint(ctx context.Context, sessionID string, r *domain.MeetingPointResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.published == nil {
		m.published = map[string][]*domain.MeetingPointResult{}
	}
	m.published[sessionID] = append(m.published[sessionID], r)
	return m.err
}

// --- Mock MeetingPointResolver ---

type mockResolver struct {
	calls     [][]domain.GeoPoint
	resolveFn func(ctx context.Context, pts []domain.GeoPoint, q domain.PoiQuery) (*domain.MeetingPointResult, error)
}

func (m *mockResolver) Resolve(ctx context.Context, pts []domain.GeoPoint, q domain.PoiQuery) (*domain.MeetingPointResult, error) {
	m.calls = append(m.calls, pts)
	if m.resolveFn != nil {
		return m.resolveFn(ctx, pts, q)
	}
	addr := "Somewhere"
	return &domain.MeetingPointResult{Midpoint: pts[0], Address: &addr, Recommendation: "Cafe A"}, nil
}

func highwayOnly() domain.ReverseGeocodeResult {
	return domain.ReverseGeocodeResult{DisplayName: "A40 Westway", IsHighwayOnly: true, HasAddress: true}
}
