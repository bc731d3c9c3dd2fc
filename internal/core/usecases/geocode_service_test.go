package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/usecases"
)

func TestGeocodeService_EmptyQuery(t *testing.T) {
	svc := usecases.NewGeocodeService(&mockGeocoder{}, "osm", nil, nil)
	_, err := svc.Geocode(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestGeocodeService_TooLong(t *testing.T) {
	svc := usecases.NewGeocodeService(&mockGeocoder{}, "osm", nil, nil)
	_, err := svc.Geocode(context.Background(), strings.Repeat("a", 201))
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestGeocodeService_PassesThroughNotFound(t *testing.T) {
	svc := usecases.NewGeocodeService(&mockGeocoder{}, "osm", nil, nil)
	_, err := svc.Geocode(context.Background(), "nowhere at all")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGeocodeService_CachesInValkeyAndStore(t *testing.T) {
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
			if address != "Trafalgar Square" {
				t.Errorf("expected trimmed query, got %q", address)
			}
			return domain.GeoPoint{Lat: 51.508, Lng: -0.128}, nil
		},
	}
	cache := newMemCache()
	store := &mockGeocodeStore{}
	svc := usecases.NewGeocodeService(geo, "osm", cache, store)

	for _, q := range []string{"  Trafalgar Square ", "trafalgar square"} {
		p, err := svc.Geocode(context.Background(), q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Lat != 51.508 {
			t.Errorf("unexpected point %+v", p)
		}
	}
	if geo.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", geo.calls)
	}
	if store.upserted != 1 {
		t.Errorf("expected 1 store write, got %d", store.upserted)
	}
	if ttl := cache.ttls["geocode:osm:trafalgar square"]; ttl != 86400 {
		t.Errorf("expected 24h ttl, got %d", ttl)
	}
}

func TestGeocodeService_StoreHitSkipsProvider(t *testing.T) {
	geo := &mockGeocoder{}
	store := &mockGeocodeStore{entries: map[string]domain.GeocodeCacheEntry{
		"osm|bilbao": {Query: "bilbao", Provider: "osm", Location: domain.GeoPoint{Lat: 43.26, Lng: -2.93}},
	}}
	cache := newMemCache()
	svc := usecases.NewGeocodeService(geo, "osm", cache, store)

	p, err := svc.Geocode(context.Background(), "Bilbao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != 43.26 {
		t.Errorf("unexpected point %+v", p)
	}
	if geo.calls != 0 {
		t.Errorf("expected provider not to be called, got %d", geo.calls)
	}
	if _, err := cache.Get(context.Background(), "geocode:osm:bilbao"); err != nil {
		t.Error("expected store hit to warm the cache")
	}
}

func TestGeocodeService_StoreErrorFallsBackToProvider(t *testing.T) {
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
			return domain.GeoPoint{Lat: 1, Lng: 1}, nil
		},
	}
	store := &mockGeocodeStore{getErr: errors.New("connection reset")}
	svc := usecases.NewGeocodeService(geo, "osm", nil, store)

	if _, err := svc.Geocode(context.Background(), "somewhere"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geo.calls != 1 {
		t.Errorf("expected provider fallback, got %d calls", geo.calls)
	}
}
