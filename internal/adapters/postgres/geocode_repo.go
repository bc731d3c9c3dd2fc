package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/midway/internal/core/domain"
)

// GeocodeRepo implements ports.GeocodeCacheRepository with pgx.
type GeocodeRepo struct {
	db *DB
}

// NewGeocodeRepo creates a new GeocodeRepo.
func NewGeocodeRepo(db *DB) *GeocodeRepo {
	return &GeocodeRepo{db: db}
}

// Get returns the stored answer for (provider, query).
func (r *GeocodeRepo) Get(ctx context.Context, provider, query string) (*domain.GeocodeCacheEntry, error) {
	e := domain.GeocodeCacheEntry{Provider: provider, Query: query}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT lat, lng, created_at
		FROM geocode_cache
		WHERE provider = $1 AND query = $2
	`, provider, query).Scan(&e.Location.Lat, &e.Location.Lng, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("geocode cache get: %w", err)
	}
	return &e, nil
}

// Upsert inserts or refreshes a stored answer.
func (r *GeocodeRepo) Upsert(ctx context.Context, e *domain.GeocodeCacheEntry) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO geocode_cache (provider, query, lat, lng, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, query) DO UPDATE
		SET lat = EXCLUDED.lat, lng = EXCLUDED.lng, created_at = EXCLUDED.created_at
	`, e.Provider, e.Query, e.Location.Lat, e.Location.Lng, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("geocode cache upsert: %w", err)
	}
	return nil
}

// Purge deletes entries older than the given number of days and reports how many went.
func (r *GeocodeRepo) Purge(ctx context.Context, olderThanDays int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM geocode_cache
		WHERE created_at < now() - make_interval(days => $1)
	`, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("geocode cache purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpsertBatch stores many answers in one round trip per batchSize entries.
func (r *GeocodeRepo) UpsertBatch(ctx context.Context, entries []domain.GeocodeCacheEntry) error {
	const batchSize = 500
	for start := 0; start < len(entries); start += batchSize {
		chunk := entries[start:min(start+batchSize, len(entries))]
		batch := &pgx.Batch{}
		for _, e := range chunk {
			batch.Queue(`
				INSERT INTO geocode_cache (provider, query, lat, lng, created_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (provider, query) DO UPDATE
				SET lat = EXCLUDED.lat, lng = EXCLUDED.lng, created_at = EXCLUDED.created_at
			`, e.Provider, e.Query, e.Location.Lat, e.Location.Lng, e.CreatedAt)
		}
		if err := r.flush(ctx, batch, len(chunk)); err != nil {
			return err
		}
	}
	return nil
}

func (r *GeocodeRepo) flush(ctx context.Context, batch *pgx.Batch, count int) error {
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("geocode cache batch item %d: %w", i, err)
		}
	}
	return nil
}
