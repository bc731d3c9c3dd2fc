package usecases

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/pkg/metrics"
	"github.com/samirrijal/midway/internal/pkg/telemetry"
)

// Default radius schedule for the address search: 50, 100, ... 1000 metres.
const (
	DefaultStartRadius = 50
	DefaultRadiusStep  = 50
	DefaultMaxRadius   = 1000
)

// ReverseLookupFunc performs a single reverse geocode at the given radius.
// ports.ReverseGeocoder.ReverseGeocode satisfies it as a method value.
type ReverseLookupFunc func(ctx context.Context, point domain.GeoPoint, radiusMeters int) (domain.ReverseGeocodeResult, error)

// RadiusSchedule yields start, start+step, ... while the radius is <= ceiling.
func RadiusSchedule(start, step, ceiling int) iter.Seq[int] {
	return func(yield func(int) bool) {
		if step <= 0 {
			return
		}
		for r := start; r <= ceiling; r += step {
			if !yield(r) {
				return
			}
		}
	}
}

// AddressSearch widens the reverse-geocoding radius until it finds an address
// that is not just a highway segment.
type AddressSearch struct {
	StartRadius int
	Step        int
	MaxRadius   int
}

// DefaultAddressSearch returns the 50m..1000m schedule.
func DefaultAddressSearch() AddressSearch {
	return AddressSearch{StartRadius: DefaultStartRadius, Step: DefaultRadiusStep, MaxRadius: DefaultMaxRadius}
}

// FindQualityAddress runs the default address search.
func FindQualityAddress(ctx context.Context, point domain.GeoPoint, lookup ReverseLookupFunc) (string, error) {
	return DefaultAddressSearch().Find(ctx, point, lookup)
}

// Find returns the display name of the first acceptable address.
//
// Attempts run one at a time. A failed lookup stops the search with
// domain.ErrLookupFailed; a response without any address stops it with
// domain.ErrNoAddressFound. Highway-only matches move on to the next radius,
// and running past MaxRadius also yields domain.ErrNoAddressFound. So does a
// highway-only match from a provider that ignores the radius.
func (s AddressSearch) Find(ctx context.Context, point domain.GeoPoint, lookup ReverseLookupFunc) (addr string, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanAddressSearch,
		attribute.Float64("lat", point.Lat),
		attribute.Float64("lng", point.Lng),
	)
	attempts := 0
	defer func() {
		span.SetAttributes(attribute.Int("attempts", attempts))
		telemetry.EndSpan(span, err)
		metrics.AddressSearchAttempts.Observe(float64(attempts))
	}()

	for radius := range RadiusSchedule(s.StartRadius, s.Step, s.MaxRadius) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrLookupFailed, ctxErr)
		}

		attempts++
		res, err := lookup(ctx, point, radius)
		if err != nil {
			return "", fmt.Errorf("%w at radius %dm: %w", domain.ErrLookupFailed, radius, err)
		}
		if !res.HasAddress {
			return "", fmt.Errorf("%w: provider returned no address at radius %dm", domain.ErrNoAddressFound, radius)
		}
		if !res.IsHighwayOnly {
			return res.DisplayName, nil
		}
		if res.RadiusIgnored {
			return "", fmt.Errorf("%w: only a highway match and the provider cannot widen past %dm", domain.ErrNoAddressFound, radius)
		}

		slog.DebugContext(ctx, "highway-only match, widening radius",
			"point", point.String(), "radius", radius, "match", res.DisplayName)
	}

	return "", fmt.Errorf("%w: only highway matches up to %dm", domain.ErrNoAddressFound, s.MaxRadius)
}
