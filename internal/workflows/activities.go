package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/ports"
	"github.com/samirrijal/midway/internal/core/usecases"
)

// Activity names as registered on the worker.
const (
	ActivityFindQualityAddress  = "FindQualityAddress"
	ActivityFindNearbyPois      = "FindNearbyPois"
	ActivityPublishMeetingPoint = "PublishMeetingPoint"
)

// MeetingPointActivities holds the activity implementations for the meeting point workflow.
type MeetingPointActivities struct {
	Reverse   ports.ReverseGeocoder
	Pois      ports.PoiFinder
	Search    usecases.AddressSearch
	Publisher ports.EventPublisher // optional
}

// FindQualityAddress runs the widening address search around point.
// The search makes its own decisions about when to stop, so errors are
// never retried by Temporal.
func (a *MeetingPointActivities) FindQualityAddress(ctx context.Context, point domain.GeoPoint) (string, error) {
	search := a.Search
	if search.Step <= 0 {
		search = usecases.DefaultAddressSearch()
	}
	addr, err := search.Find(ctx, point, a.Reverse.ReverseGeocode)
	if err != nil {
		return "", temporal.NewNonRetryableApplicationError(err.Error(), errorType(err), err)
	}
	return addr, nil
}

// FindNearbyPois lists named features around point. Transport errors are
// retried by the activity's retry policy.
func (a *MeetingPointActivities) FindNearbyPois(ctx context.Context, point domain.GeoPoint, query domain.PoiQuery, radiusMeters int) ([]domain.Poi, error) {
	if !point.Valid() {
		err := fmt.Errorf("%w: %s", domain.ErrInvalidPoint, point)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), errorType(err), err)
	}
	pois, err := a.Pois.FindNearby(ctx, point, query, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("find nearby %s=%s: %w", query.AmenityType, query.AmenityValue, err)
	}
	return pois, nil
}

// PublishMeetingPoint announces a result for a session.
func (a *MeetingPointActivities) PublishMeetingPoint(ctx context.Context, sessionID string, result domain.MeetingPointResult) error {
	if a.Publisher == nil {
		slog.InfoContext(ctx, "no publisher configured, dropping result", "session_id", sessionID)
		return nil
	}
	if err := a.Publisher.PublishMeetingPoint(ctx, sessionID, &result); err != nil {
		return fmt.Errorf("publish result for session %s: %w", sessionID, err)
	}
	return nil
}

// errorType names the domain error so workflows can tell failures apart
// after Temporal has serialized them.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoAddressFound):
		return "NoAddressFound"
	case errors.Is(err, domain.ErrLookupFailed):
		return "LookupFailed"
	case errors.Is(err, domain.ErrInvalidPoint):
		return "InvalidPoint"
	case errors.Is(err, domain.ErrNotApplicable):
		return "NotApplicable"
	default:
		return "Unknown"
	}
}
