package domain

import "errors"

var (
	// ErrNotApplicable means fewer than two points were supplied; there is no midpoint yet.
	ErrNotApplicable = errors.New("meeting point not applicable: need at least 2 points")

	// ErrNotFound means the provider has no match for the query.
	ErrNotFound = errors.New("not found")

	// ErrTransport means the provider was unreachable, answered with an error
	// status, or returned a body that could not be decoded.
	ErrTransport = errors.New("geo provider transport error")

	// ErrLookupFailed wraps a reverse lookup failure during the address search.
	ErrLookupFailed = errors.New("reverse lookup failed")

	// ErrNoAddressFound means the address search ended without an acceptable address.
	ErrNoAddressFound = errors.New("no address found")

	// ErrPoiLookupFailed wraps a failed nearby-feature query.
	ErrPoiLookupFailed = errors.New("poi lookup failed")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMarkerNotFound is returned for a marker index outside the session's list.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrInvalidPoint is returned for coordinates outside WGS 84 bounds.
	ErrInvalidPoint = errors.New("invalid coordinate")

	// ErrInvalidQuery is returned for empty or oversized address queries.
	ErrInvalidQuery = errors.New("invalid address query")
)
