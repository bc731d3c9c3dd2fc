package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// MapView is the centre and zoom a client should display.
type MapView struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
}

// DefaultZoom matches the street-level zoom used when centring on a marker.
const DefaultZoom = 13

// DefaultCenter is used when a session has no markers yet.
var DefaultCenter = GeoPoint{Lat: 51.505, Lng: -0.09}
