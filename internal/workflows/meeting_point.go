package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/usecases"
)

// TaskQueue is the default queue the worker polls.
const TaskQueue = "meeting-points"

// MeetingPointInput is the input for the meeting point workflow.
type MeetingPointInput struct {
	SessionID string // optional; the result is published when set
	Points    []domain.GeoPoint
	Query     domain.PoiQuery
	PoiRadius int
}

// MeetingPointOutput is the workflow result. PoiError is set when the
// place lookup failed and Result holds only the midpoint and address.
type MeetingPointOutput struct {
	Result   domain.MeetingPointResult
	PoiError string
}

// MeetingPointWorkflow computes the midpoint in the workflow, then looks up
// its address and a nearby place as activities. A missing address degrades
// to a warning; a failed place lookup returns the partial output.
func MeetingPointWorkflow(ctx workflow.Context, input MeetingPointInput) (MeetingPointOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting meeting point workflow", "points", len(input.Points))

	for _, p := range input.Points {
		if !p.Valid() {
			return MeetingPointOutput{}, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("invalid point %s", p), "InvalidPoint", domain.ErrInvalidPoint)
		}
	}
	midpoint, ok := usecases.ComputeMidpoint(input.Points)
	if !ok {
		return MeetingPointOutput{}, temporal.NewNonRetryableApplicationError(
			"at least two points are required", "NotApplicable", domain.ErrNotApplicable)
	}

	query := input.Query
	if query.IsZero() {
		query = domain.DefaultPoiQuery
	}
	radius := input.PoiRadius
	if radius <= 0 {
		radius = usecases.DefaultPoiRadius
	}

	out := MeetingPointOutput{Result: domain.MeetingPointResult{
		Midpoint:   midpoint,
		ComputedAt: workflow.Now(ctx),
	}}

	// Step 1: address. Twenty sequential lookups at one per second fit in two minutes.
	addrCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var addr string
	if err := workflow.ExecuteActivity(addrCtx, ActivityFindQualityAddress, midpoint).Get(ctx, &addr); err != nil {
		logger.Warn("midpoint address unavailable", "error", err)
		out.Result.Warnings = append(out.Result.Warnings, err.Error())
	} else {
		out.Result.Address = &addr
	}

	// Step 2: nearby place
	poiCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})
	var pois []domain.Poi
	if err := workflow.ExecuteActivity(poiCtx, ActivityFindNearbyPois, midpoint, query, radius).Get(ctx, &pois); err != nil {
		logger.Warn("poi lookup failed, returning partial result", "error", err)
		out.PoiError = err.Error()
	} else if len(pois) > 0 {
		out.Result.Recommendation = pois[0].Name
	} else {
		out.Result.Recommendation = domain.NoSuggestion
	}

	// Step 3: announce
	if input.SessionID != "" {
		pubCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 10 * time.Second,
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
		})
		if err := workflow.ExecuteActivity(pubCtx, ActivityPublishMeetingPoint, input.SessionID, out.Result).Get(ctx, nil); err != nil {
			logger.Warn("publish failed", "session_id", input.SessionID, "error", err)
		}
	}

	logger.Info("Meeting point resolved", "recommendation", out.Result.Recommendation)
	return out, nil
}
