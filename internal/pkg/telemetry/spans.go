package telemetry

// Span names used for instrumentation.
const (
	// Provider calls
	SpanGeocode        = "geo.geocode"
	SpanReverseGeocode = "geo.reverse_geocode"
	SpanFindNearby     = "geo.find_nearby"

	// Core
	SpanAddressSearch = "search.quality_address"
	SpanResolve       = "search.resolve_meeting_point"
	SpanAddMarker     = "session.add_marker"
)
