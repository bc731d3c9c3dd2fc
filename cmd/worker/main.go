package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/midway/internal/adapters/nats"
	"github.com/samirrijal/midway/internal/adapters/postgres"
	"github.com/samirrijal/midway/internal/adapters/provider"
	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/ports"
	"github.com/samirrijal/midway/internal/core/usecases"
	"github.com/samirrijal/midway/internal/pkg/config"
	"github.com/samirrijal/midway/internal/pkg/logging"
	"github.com/samirrijal/midway/internal/workflows"
)

// durableName is the JetStream consumer that audits resolved meeting points.
const durableName = "midway-worker"

func main() {
	cfg, err := config.Load("midway-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	geo, err := provider.New(cfg.Geo)
	if err != nil {
		log.Fatalf("geo provider: %v", err)
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, results will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Audit consumer for results published by the API and by workflows
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, durableName)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		startAudit(ctx, sub)
	}

	// Geocode cache retention
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go purgeLoop(ctx, postgres.NewGeocodeRepo(db), cfg.Database.CacheRetentionDays)
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.MeetingPointWorkflow)
	w.RegisterActivity(&workflows.MeetingPointActivities{
		Reverse: geo.Reverse,
		Pois:    geo.Pois,
		Search: usecases.AddressSearch{
			StartRadius: cfg.Search.StartRadius,
			Step:        cfg.Search.RadiusStep,
			MaxRadius:   cfg.Search.MaxRadius,
		},
		Publisher: publisher,
	})

	slog.Info("worker started", "task_queue", cfg.Temporal.TaskQueue, "provider", geo.Name)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startAudit(ctx context.Context, sub ports.EventSubscriber) {
	if err := sub.SubscribeMeetingPoints(ctx, logResolved); err != nil {
		slog.Warn("subscribe meeting points", "error", err)
	}
}

func logResolved(ctx context.Context, sessionID string, r *domain.MeetingPointResult) error {
	addr := ""
	if r.Address != nil {
		addr = *r.Address
	}
	slog.InfoContext(ctx, "meeting point resolved",
		"session_id", sessionID,
		"midpoint", r.Midpoint.String(),
		"address", addr,
		"recommendation", r.Recommendation,
		"warnings", len(r.Warnings),
	)
	return nil
}

type purger interface {
	Purge(ctx context.Context, olderThanDays int) (int64, error)
}

// purgeLoop drops stored geocode answers older than days, once at start and then daily.
func purgeLoop(ctx context.Context, repo purger, days int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		n, err := repo.Purge(ctx, days)
		if err != nil {
			slog.Warn("geocode cache purge failed", "error", err)
		} else {
			slog.Info("geocode cache purged", "rows", n, "older_than_days", days)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
