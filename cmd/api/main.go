package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/midway/internal/adapters/http"
	natsadapter "github.com/samirrijal/midway/internal/adapters/nats"
	"github.com/samirrijal/midway/internal/adapters/postgres"
	"github.com/samirrijal/midway/internal/adapters/provider"
	"github.com/samirrijal/midway/internal/adapters/valkey"
	"github.com/samirrijal/midway/internal/core/ports"
	"github.com/samirrijal/midway/internal/core/usecases"
	"github.com/samirrijal/midway/internal/pkg/config"
	"github.com/samirrijal/midway/internal/pkg/logging"
	"github.com/samirrijal/midway/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("midway-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Geo provider
	geo, err := provider.New(cfg.Geo)
	if err != nil {
		log.Fatalf("geo provider: %v", err)
	}
	slog.Info("geo provider selected", "provider", geo.Name,
		"provider_timeout", cfg.Server.ProviderTimeout, "search_attempts", cfg.Search.Attempts())

	// Database (optional durable geocode cache)
	var (
		db    *postgres.DB
		store ports.GeocodeCacheRepository
	)
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		store = postgres.NewGeocodeRepo(db)
	}

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, "midway")
	if err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, session events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Use cases
	meetingSvc := usecases.NewMeetingPointService(geo.Reverse, geo.Pois,
		usecases.WithPoiRadius(cfg.Search.PoiRadius),
		usecases.WithAddressSearch(usecases.AddressSearch{
			StartRadius: cfg.Search.StartRadius,
			Step:        cfg.Search.RadiusStep,
			MaxRadius:   cfg.Search.MaxRadius,
		}),
		usecases.WithCache(cacheSvc),
	)
	geocodeSvc := usecases.NewGeocodeService(geo.Geocoder, geo.Name, cacheSvc, store)
	sessionSvc := usecases.NewSessionService(geocodeSvc, meetingSvc, publisher)

	deps := &http.Dependencies{
		MeetingPoints: meetingSvc,
		Geocoding:     geocodeSvc,
		Sessions:      sessionSvc,
		NATS:          natsConn,
		DB:            db,
		Cache:         cache,
		Version:       version,

		ProviderTimeout: cfg.Server.ProviderTimeout,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024,
		AppName:      "Midway API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders:    "ETag, Link, Location, X-Request-Id",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
