package domain

import (
	"time"
)

// NoSuggestion is the recommendation used when no point of interest was found.
const NoSuggestion = "No nearby places found"

// AddressQuery is free text typed by a user, e.g. "10 Downing St, London".
type AddressQuery = string

// ReverseGeocodeResult is the provider's best match for a coordinate.
type ReverseGeocodeResult struct {
	DisplayName   string `json:"display_name"`
	IsHighwayOnly bool   `json:"is_highway_only"`
	HasAddress    bool   `json:"has_address"` // false when the provider returned no address at all

	// RadiusIgnored is set by providers whose answer does not depend on the
	// search radius, so a wider retry would repeat the same match.
	RadiusIgnored bool `json:"radius_ignored,omitempty"`
}

// PoiQuery filters nearby features by tag, e.g. amenity=cafe.
type PoiQuery struct {
	AmenityType  string `json:"amenity_type"`
	AmenityValue string `json:"amenity_value"`
}

// DefaultPoiQuery looks for cafés.
var DefaultPoiQuery = PoiQuery{AmenityType: "amenity", AmenityValue: "cafe"}

// IsZero reports whether neither field is set.
func (q PoiQuery) IsZero() bool {
	return q.AmenityType == "" && q.AmenityValue == ""
}

// Poi is a named feature near a coordinate.
type Poi struct {
	ID       string   `json:"id"`
	Location GeoPoint `json:"location"`
	Name     string   `json:"name"`
	Distance *float64 `json:"distance,omitempty"` // computed field, metres from the search centre
}

// MeetingPointResult is the recommendation for a set of markers. A new one is
// built every time and supersedes the previous one.
type MeetingPointResult struct {
	Midpoint       GeoPoint  `json:"midpoint"`
	Address        *string   `json:"address"`
	Recommendation string    `json:"recommendation"`
	Warnings       []string  `json:"warnings,omitempty"`
	ComputedAt     time.Time `json:"computed_at"`
}

// Marker is a single location placed by a participant.
type Marker struct {
	Location GeoPoint  `json:"location"`
	Address  string    `json:"address,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// Session is a snapshot of one map with its markers and latest result.
type Session struct {
	ID        string              `json:"id"`
	Markers   []Marker            `json:"markers"`
	PoiQuery  PoiQuery            `json:"poi_query"`
	View      MapView             `json:"view"`
	Latest    *MeetingPointResult `json:"latest,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Points returns the marker coordinates in insertion order.
func (s Session) Points() []GeoPoint {
	pts := make([]GeoPoint, len(s.Markers))
	for i, m := range s.Markers {
		pts[i] = m.Location
	}
	return pts
}

// GeocodeCacheEntry is a stored provider answer for an address lookup.
type GeocodeCacheEntry struct {
	Query     string    `json:"query"`
	Provider  string    `json:"provider"`
	Location  GeoPoint  `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}
