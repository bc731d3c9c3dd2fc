package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/midway/internal/core/domain"
)

const maxPoiRadius = 50000

// MeetingPointRequest is the body of POST /v1/meeting-points.
type MeetingPointRequest struct {
	Points []domain.GeoPoint `json:"points"`
	Poi    domain.PoiQuery   `json:"poi"`
	Radius int               `json:"radius,omitempty"` // POI radius in metres
}

// MeetingPointResponse is a result plus the POI failure, if any.
type MeetingPointResponse struct {
	*domain.MeetingPointResult
	PoiError string `json:"poi_error,omitempty"`
}

// MeetingPointHandler resolves a meeting point for an ad-hoc list of points.
func MeetingPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req MeetingPointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Radius < 0 || req.Radius > maxPoiRadius {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}

		result, err := deps.MeetingPoints.ResolveWithin(c.UserContext(), req.Points, req.Poi, req.Radius)
		if err != nil {
			if result != nil && errors.Is(err, domain.ErrPoiLookupFailed) {
				LoggerFromCtx(c.UserContext()).Warn("poi lookup failed", "error", err)
				return c.JSON(MeetingPointResponse{MeetingPointResult: result, PoiError: err.Error()})
			}
			return errFromDomain(c, err)
		}
		return c.JSON(MeetingPointResponse{MeetingPointResult: result})
	}
}

// GeocodeHandler resolves ?q= to a point.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}

		p, err := deps.Geocoding.Geocode(c.UserContext(), query)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"query": query, "location": p})
	}
}

// ReverseHandler returns the quality address closest to ?lat=&lng=.
func ReverseHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		addr, err := deps.MeetingPoints.FindAddress(c.UserContext(), p)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"location": p, "address": addr})
	}
}

// NearbyPoisHandler lists named features around ?lat=&lng=, paginated.
func NearbyPoisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		query := domain.PoiQuery{AmenityType: c.Query("type"), AmenityValue: c.Query("value")}
		if (query.AmenityType == "") != (query.AmenityValue == "") {
			return errBadRequest(c, "type and value must be given together")
		}
		radius := c.QueryInt("radius", deps.MeetingPoints.PoiRadius())
		if radius <= 0 || radius > maxPoiRadius {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}

		offset := max(c.QueryInt("offset", 0), 0)
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		pois, err := deps.MeetingPoints.NearbyPois(c.UserContext(), p, query, radius)
		if err != nil {
			return errFromDomain(c, err)
		}

		page, pg := paginate(pois, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// queryPoint reads ?lat=&lng=. Zero is a valid coordinate, so presence is
// checked on the raw strings.
func queryPoint(c *fiber.Ctx) (domain.GeoPoint, error) {
	rawLat, rawLng := c.Query("lat"), c.Query("lng")
	if rawLat == "" || rawLng == "" {
		return domain.GeoPoint{}, errors.New("lat and lng are required")
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return domain.GeoPoint{}, errors.New("lat must be a number")
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return domain.GeoPoint{}, errors.New("lng must be a number")
	}
	p := domain.GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return domain.GeoPoint{}, errors.New("lat must be within [-90,90] and lng within [-180,180]")
	}
	return p, nil
}
