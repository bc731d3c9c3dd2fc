package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/usecases"
)

// SessionResponse is a session snapshot plus the POI failure of the last
// resolution, if any.
type SessionResponse struct {
	domain.Session
	PoiError string `json:"poi_error,omitempty"`
}

type createSessionRequest struct {
	Poi domain.PoiQuery `json:"poi"`
}

type markerRequest struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// CreateSessionHandler opens an empty session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSessionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}
		sess := deps.Sessions.Create(req.Poi)
		c.Location("/v1/sessions/" + sess.ID)
		return c.Status(fiber.StatusCreated).JSON(SessionResponse{Session: sess})
	}
}

// GetSessionHandler returns a session snapshot.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(SessionResponse{Session: sess})
	}
}

// DeleteSessionHandler discards a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AddMarkerHandler places a marker by address or by coordinate.
func AddMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req markerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		in := usecases.MarkerInput{Address: req.Address}
		switch {
		case req.Lat != nil && req.Lng != nil:
			in.Point = &domain.GeoPoint{Lat: *req.Lat, Lng: *req.Lng}
		case req.Lat != nil || req.Lng != nil:
			return errBadRequest(c, "lat and lng must be given together")
		case req.Address == "":
			return errBadRequest(c, "address or lat/lng is required")
		}

		sess, err := deps.Sessions.AddMarker(c.UserContext(), c.Params("id"), in)
		return sessionResult(c, sess, err)
	}
}

// RemoveMarkerHandler deletes the marker at :index.
func RemoveMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := c.ParamsInt("index")
		if err != nil {
			return errBadRequest(c, "index must be an integer")
		}
		sess, err := deps.Sessions.RemoveMarker(c.UserContext(), c.Params("id"), index)
		return sessionResult(c, sess, err)
	}
}

// SetPoiQueryHandler changes what kind of place the session recommends.
func SetPoiQueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q domain.PoiQuery
		if err := c.BodyParser(&q); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if q.AmenityType == "" || q.AmenityValue == "" {
			return errBadRequest(c, "amenity_type and amenity_value are required")
		}
		sess, err := deps.Sessions.SetPoiQuery(c.UserContext(), c.Params("id"), q)
		return sessionResult(c, sess, err)
	}
}

// sessionResult writes the snapshot, keeping it when only the POI lookup failed.
func sessionResult(c *fiber.Ctx, sess domain.Session, err error) error {
	if err != nil {
		if sess.ID != "" && errors.Is(err, domain.ErrPoiLookupFailed) {
			return c.JSON(SessionResponse{Session: sess, PoiError: err.Error()})
		}
		return errFromDomain(c, err)
	}
	return c.JSON(SessionResponse{Session: sess})
}
