// Command resolve runs MeetingPointWorkflow on the worker and prints the result.
//
//	resolve -poi amenity=pub 51.5074,-0.1278 51.5155,-0.0922
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/pkg/config"
	"github.com/samirrijal/midway/internal/workflows"
)

func main() {
	poi := flag.String("poi", "amenity=cafe", "place filter as type=value")
	radius := flag.Int("radius", 0, "POI search radius in metres (0 uses the default)")
	session := flag.String("session", "", "publish the result for this session ID")
	timeout := flag.Duration("timeout", 3*time.Minute, "how long to wait for the workflow")
	flag.Parse()

	points, err := parsePoints(flag.Args())
	if err != nil {
		log.Fatalf("points: %v", err)
	}
	query, err := parsePoiQuery(*poi)
	if err != nil {
		log.Fatalf("poi: %v", err)
	}

	cfg, err := config.Load("midway-resolve")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	c, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "meeting-point-" + uuid.NewString(),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.MeetingPointWorkflow, workflows.MeetingPointInput{
		SessionID: *session,
		Points:    points,
		Query:     query,
		PoiRadius: *radius,
	})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}

	var out workflows.MeetingPointOutput
	if err := run.Get(ctx, &out); err != nil {
		log.Fatalf("workflow %s: %v", run.GetID(), err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

// parsePoints reads "lat,lng" arguments.
func parsePoints(args []string) ([]domain.GeoPoint, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("need at least two lat,lng arguments, got %d", len(args))
	}
	points := make([]domain.GeoPoint, 0, len(args))
	for _, arg := range args {
		latStr, lngStr, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, fmt.Errorf("%q is not lat,lng", arg)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: bad latitude: %w", arg, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: bad longitude: %w", arg, err)
		}
		p := domain.GeoPoint{Lat: lat, Lng: lng}
		if !p.Valid() {
			return nil, fmt.Errorf("%q is out of range", arg)
		}
		points = append(points, p)
	}
	return points, nil
}

func parsePoiQuery(s string) (domain.PoiQuery, error) {
	typ, value, ok := strings.Cut(s, "=")
	if !ok || typ == "" || value == "" {
		return domain.PoiQuery{}, fmt.Errorf("%q is not type=value", s)
	}
	return domain.PoiQuery{AmenityType: typ, AmenityValue: value}, nil
}
