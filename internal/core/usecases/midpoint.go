package usecases

import "github.com/samirrijal/midway/internal/core/domain"

// ComputeMidpoint returns the arithmetic mean of the points' latitudes and
// longitudes. It reports false when fewer than two points are given: there is
// no midpoint yet. The mean is planar; no geodesic correction is applied.
func ComputeMidpoint(points []domain.GeoPoint) (domain.GeoPoint, bool) {
	if len(points) < 2 {
		return domain.GeoPoint{}, false
	}

	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}

	n := float64(len(points))
	return domain.GeoPoint{Lat: sumLat / n, Lng: sumLng / n}, true
}
