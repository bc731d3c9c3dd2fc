package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_SamePoint(t *testing.T) {
	if d := Haversine(43.263, -2.935, 43.263, -2.935); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// London (51.5074, -0.1278) to Paris (48.8566, 2.3522) is roughly 343.5 km.
	d := Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(d-343_500) > 2_000 {
		t.Errorf("expected ~343.5km, got %.0fm", d)
	}
}
