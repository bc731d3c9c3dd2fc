// Command warmcache geocodes a CSV of addresses and stores the answers in the
// durable geocode cache, so the first users of a new deployment do not wait
// on the provider.
//
//	warmcache addresses.csv
//
// The file needs an "address" column; other columns are ignored.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/midway/internal/adapters/postgres"
	"github.com/samirrijal/midway/internal/adapters/provider"
	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/ports"
	"github.com/samirrijal/midway/internal/pkg/config"
	"github.com/samirrijal/midway/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: warmcache <addresses.csv>")
	}

	cfg, err := config.Load("midway-warmcache")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("info", "json")

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer f.Close()

	addresses, err := readAddresses(f)
	if err != nil {
		log.Fatalf("read %s: %v", os.Args[1], err)
	}

	geo, err := provider.New(cfg.Geo)
	if err != nil {
		log.Fatalf("geo provider: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewGeocodeRepo(db)

	slog.Info("warming geocode cache", "addresses", len(addresses), "provider", geo.Name)
	entries := geocodeAll(ctx, geo.Geocoder, geo.Name, addresses, 4)

	if err := repo.UpsertBatch(ctx, entries); err != nil {
		log.Fatalf("store: %v", err)
	}
	slog.Info("warm-up complete", "stored", len(entries), "skipped", len(addresses)-len(entries))
}

// readAddresses returns the normalized, de-duplicated "address" column.
func readAddresses(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	col, ok := indexColumns(header)["address"]
	if !ok {
		return nil, errors.New(`missing "address" column`)
	}

	seen := make(map[string]bool)
	var out []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if col >= len(record) {
			continue
		}
		addr := strings.ToLower(strings.TrimSpace(record[col]))
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out, nil
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

// geocodeAll resolves addresses with at most workers lookups in flight.
// Failures are logged and skipped.
func geocodeAll(ctx context.Context, geocoder ports.Geocoder, providerName string, addresses []string, workers int) []domain.GeocodeCacheEntry {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make([]domain.GeocodeCacheEntry, 0, len(addresses))
	)
	sem := make(chan struct{}, workers)

	for _, addr := range addresses {
		wg.Add(1)
		go func(a string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			p, err := geocoder.Geocode(ctx, a)
			if err != nil {
				slog.Warn("geocode failed", "address", a, "error", err)
				return
			}
			mu.Lock()
			out = append(out, domain.GeocodeCacheEntry{
				Query:     a,
				Provider:  providerName,
				Location:  p,
				CreatedAt: time.Now().UTC(),
			})
			mu.Unlock()
		}(addr)
	}

	wg.Wait()
	return out
}
