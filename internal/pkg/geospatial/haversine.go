package geospatial

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371008.8

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return angleToMeters(a.Distance(b))
}

func angleToMeters(a s1.Angle) float64 {
	return a.Radians() * earthRadiusMeters
}
