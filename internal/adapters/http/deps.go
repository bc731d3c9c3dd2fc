package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/midway/internal/adapters/postgres"
	"github.com/samirrijal/midway/internal/adapters/valkey"
	"github.com/samirrijal/midway/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	MeetingPoints *usecases.MeetingPointService
	Geocoding     *usecases.GeocodeService
	Sessions      *usecases.SessionService
	NATS          *nats.Conn    // optional, WebSocket relay and readiness
	DB            *postgres.DB  // optional, geocode store
	Cache         *valkey.Cache // optional
	Version       string
	OpenAPIPath   string // defaults to DefaultOpenAPIPath

	// ProviderTimeout bounds routes that reach the geo provider.
	// Zero means DefaultProviderTimeout.
	ProviderTimeout time.Duration
}
