package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/ports"
	"github.com/samirrijal/midway/internal/pkg/metrics"
	"github.com/samirrijal/midway/internal/pkg/telemetry"
)

// MarkerInput places a marker either by address or by coordinate.
// Point takes precedence when both are set.
type MarkerInput struct {
	Address string           `json:"address,omitempty"`
	Point   *domain.GeoPoint `json:"point,omitempty"`
}

// SessionService owns the marker lists of every open map. Callers only ever
// receive copies; the core resolver is handed a snapshot of the points.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session

	geocoder  ports.Geocoder
	resolver  MeetingPointResolver
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewSessionService creates a new SessionService. publisher may be nil.
func NewSessionService(geocoder ports.Geocoder, resolver MeetingPointResolver, publisher ports.EventPublisher) *SessionService {
	return &SessionService{
		sessions:  make(map[string]*domain.Session),
		geocoder:  geocoder,
		resolver:  resolver,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create opens a new empty session centred on the default location.
func (s *SessionService) Create(query domain.PoiQuery) domain.Session {
	if query.IsZero() {
		query = domain.DefaultPoiQuery
	}
	now := s.now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		Markers:   []domain.Marker{},
		PoiQuery:  query,
		View:      domain.MapView{Center: domain.DefaultCenter, Zoom: domain.DefaultZoom},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	return snapshot(sess)
}

// Get returns a copy of the session.
func (s *SessionService) Get(id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return snapshot(sess), nil
}

// Delete discards a session.
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return nil
}

// SetPoiQuery changes what kind of place is recommended and re-resolves.
func (s *SessionService) SetPoiQuery(ctx context.Context, id string, query domain.PoiQuery) (domain.Session, error) {
	if query.IsZero() {
		query = domain.DefaultPoiQuery
	}
	points, err := s.update(id, func(sess *domain.Session) error {
		sess.PoiQuery = query
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return s.resolve(ctx, id, points, query)
}

// AddMarker geocodes the input if needed, appends the marker and, once there
// are at least two markers, computes a new meeting point.
//
// Resolution runs outside the lock. If two markers are added concurrently the
// computation that finishes last wins.
func (s *SessionService) AddMarker(ctx context.Context, id string, in MarkerInput) (sess domain.Session, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanAddMarker, attribute.String("session_id", id))
	defer func() { telemetry.EndSpan(span, err) }()

	if _, err := s.Get(id); err != nil {
		return domain.Session{}, err
	}

	marker := domain.Marker{Address: in.Address, AddedAt: s.now()}
	switch {
	case in.Point != nil:
		if !in.Point.Valid() {
			return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrInvalidPoint, in.Point)
		}
		marker.Location = *in.Point
	case in.Address != "":
		p, err := s.geocoder.Geocode(ctx, in.Address)
		if err != nil {
			return domain.Session{}, fmt.Errorf("geocode %q: %w", in.Address, err)
		}
		marker.Location = p
	default:
		return domain.Session{}, fmt.Errorf("%w: address or point is required", domain.ErrInvalidQuery)
	}

	var query domain.PoiQuery
	points, err := s.update(id, func(sess *domain.Session) error {
		sess.Markers = append(sess.Markers, marker)
		sess.View = domain.MapView{Center: marker.Location, Zoom: domain.DefaultZoom}
		query = sess.PoiQuery
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	return s.resolve(ctx, id, points, query)
}

// RemoveMarker deletes the marker at index and recomputes the meeting point.
func (s *SessionService) RemoveMarker(ctx context.Context, id string, index int) (domain.Session, error) {
	var query domain.PoiQuery
	points, err := s.update(id, func(sess *domain.Session) error {
		if index < 0 || index >= len(sess.Markers) {
			return fmt.Errorf("%w: index %d out of range [0,%d)", domain.ErrMarkerNotFound, index, len(sess.Markers))
		}
		sess.Markers = slices.Delete(sess.Markers, index, index+1)
		query = sess.PoiQuery
		if len(sess.Markers) < 2 {
			sess.Latest = nil
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return s.resolve(ctx, id, points, query)
}

// update applies fn under the write lock and returns a snapshot of the points.
func (s *SessionService) update(id string, fn func(*domain.Session) error) ([]domain.GeoPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	return sess.Points(), nil
}

// resolve recomputes the meeting point for points when there are enough of them.
// A POI failure still stores the partial result and is returned with the session.
func (s *SessionService) resolve(ctx context.Context, id string, points []domain.GeoPoint, query domain.PoiQuery) (domain.Session, error) {
	if len(points) < 2 {
		return s.Get(id)
	}

	result, resolveErr := s.resolver.Resolve(ctx, points, query)
	if result == nil {
		return domain.Session{}, resolveErr
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return domain.Session{}, domain.ErrSessionNotFound
	}
	sess.Latest = result
	sess.View = domain.MapView{Center: result.Midpoint, Zoom: domain.DefaultZoom}
	sess.UpdatedAt = s.now()
	out := snapshot(sess)
	s.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.PublishMeetingPoint(ctx, id, result); err != nil {
			slog.WarnContext(ctx, "publish meeting point failed", "session_id", id, "error", err)
		}
	}

	if resolveErr != nil && !errors.Is(resolveErr, domain.ErrPoiLookupFailed) {
		return domain.Session{}, resolveErr
	}
	return out, resolveErr
}

func snapshot(sess *domain.Session) domain.Session {
	out := *sess
	out.Markers = slices.Clone(sess.Markers)
	if out.Markers == nil {
		out.Markers = []domain.Marker{}
	}
	return out
}
