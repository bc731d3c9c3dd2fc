package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/midway/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	geoPointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "GeoPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	poiType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Poi",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"distance": &graphql.Field{Type: graphql.Float},
		},
	})

	meetingPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MeetingPoint",
		Fields: graphql.Fields{
			"midpoint":       &graphql.Field{Type: geoPointType},
			"address":        &graphql.Field{Type: graphql.String},
			"recommendation": &graphql.Field{Type: graphql.String},
			"warnings":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"computed_at":    &graphql.Field{Type: graphql.String},
			"poi_error":      &graphql.Field{Type: graphql.String},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"location": &graphql.Field{Type: geoPointType},
			"address":  &graphql.Field{Type: graphql.String},
			"added_at": &graphql.Field{Type: graphql.String},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"markers":       &graphql.Field{Type: graphql.NewList(markerType)},
			"amenity_type":  &graphql.Field{Type: graphql.String},
			"amenity_value": &graphql.Field{Type: graphql.String},
			"center":        &graphql.Field{Type: geoPointType},
			"zoom":          &graphql.Field{Type: graphql.Int},
			"latest":        &graphql.Field{Type: meetingPointType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"meetingPoint": &graphql.Field{
				Type:        meetingPointType,
				Description: "Midpoint, its address and a nearby place for two or more points",
				Args: graphql.FieldConfigArgument{
					"points":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(geoPointInput)))},
					"amenityType":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.DefaultPoiQuery.AmenityType},
					"amenityValue": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.DefaultPoiQuery.AmenityValue},
					"radius":       &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					points, err := pointsArg(p.Args["points"])
					if err != nil {
						return nil, err
					}
					q := domain.PoiQuery{
						AmenityType:  p.Args["amenityType"].(string),
						AmenityValue: p.Args["amenityValue"].(string),
					}
					radius, err := radiusArg(p.Args["radius"])
					if err != nil {
						return nil, err
					}

					result, err := deps.MeetingPoints.ResolveWithin(p.Context, points, q, radius)
					if err != nil {
						if result != nil && errors.Is(err, domain.ErrPoiLookupFailed) {
							m := meetingPointMap(result)
							m["poi_error"] = err.Error()
							return m, nil
						}
						return nil, err
					}
					return meetingPointMap(result), nil
				},
			},
			"geocode": &graphql.Field{
				Type:        geoPointType,
				Description: "Coordinates of the first match for an address",
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, err := deps.Geocoding.Geocode(p.Context, p.Args["address"].(string))
					if err != nil {
						return nil, err
					}
					return pointMap(pt), nil
				},
			},
			"nearbyPois": &graphql.Field{
				Type:        graphql.NewList(poiType),
				Description: "Named features near a location",
				Args: graphql.FieldConfigArgument{
					"lat":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"amenityType":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.DefaultPoiQuery.AmenityType},
					"amenityValue": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.DefaultPoiQuery.AmenityValue},
					"radius":       &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					at := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					q := domain.PoiQuery{
						AmenityType:  p.Args["amenityType"].(string),
						AmenityValue: p.Args["amenityValue"].(string),
					}
					radius, err := radiusArg(p.Args["radius"])
					if err != nil {
						return nil, err
					}
					pois, err := deps.MeetingPoints.NearbyPois(p.Context, at, q, radius)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(pois))
					for _, poi := range pois {
						m := map[string]interface{}{
							"id":       poi.ID,
							"name":     poi.Name,
							"location": pointMap(poi.Location),
						}
						if poi.Distance != nil {
							m["distance"] = *poi.Distance
						}
						out = append(out, m)
					}
					return out, nil
				},
			},
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "A session snapshot by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := deps.Sessions.Get(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					markers := make([]map[string]interface{}, 0, len(sess.Markers))
					for _, m := range sess.Markers {
						markers = append(markers, map[string]interface{}{
							"location": pointMap(m.Location),
							"address":  m.Address,
							"added_at": m.AddedAt.Format(time.RFC3339),
						})
					}
					out := map[string]interface{}{
						"id":            sess.ID,
						"markers":       markers,
						"amenity_type":  sess.PoiQuery.AmenityType,
						"amenity_value": sess.PoiQuery.AmenityValue,
						"center":        pointMap(sess.View.Center),
						"zoom":          sess.View.Zoom,
					}
					if sess.Latest != nil {
						out["latest"] = meetingPointMap(sess.Latest)
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func pointMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"lat": p.Lat, "lng": p.Lng}
}

func meetingPointMap(r *domain.MeetingPointResult) map[string]interface{} {
	m := map[string]interface{}{
		"midpoint":       pointMap(r.Midpoint),
		"recommendation": r.Recommendation,
		"warnings":       r.Warnings,
		"computed_at":    r.ComputedAt.Format(time.RFC3339),
	}
	if r.Address != nil {
		m["address"] = *r.Address
	}
	return m
}

// radiusArg applies the REST bounds to a radius argument. Zero means the
// configured default.
func radiusArg(raw interface{}) (int, error) {
	radius, _ := raw.(int)
	if radius < 0 || radius > maxPoiRadius {
		return 0, fmt.Errorf("radius must be between 0 and %d meters, got %d", maxPoiRadius, radius)
	}
	return radius, nil
}

// pointsArg converts a [GeoPointInput!]! argument.
func pointsArg(raw interface{}) ([]domain.GeoPoint, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("points must be a list")
	}
	points := make([]domain.GeoPoint, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("points[%d] must be an object", i)
		}
		lat, latOK := obj["lat"].(float64)
		lng, lngOK := obj["lng"].(float64)
		if !latOK || !lngOK {
			return nil, fmt.Errorf("points[%d] needs lat and lng", i)
		}
		points = append(points, domain.GeoPoint{Lat: lat, Lng: lng})
	}
	return points, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
