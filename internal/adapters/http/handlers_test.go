package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/midway/internal/adapters/http"
	"github.com/samirrijal/midway/internal/core/domain"
	"github.com/samirrijal/midway/internal/core/usecases"
)

// ---- Mock providers ----

type mockReverse struct {
	reverseFn func(ctx context.Context, p domain.GeoPoint, radius int) (domain.ReverseGeocodeResult, error)
}

func (m *mockReverse) ReverseGeocode(ctx context.Context, p domain.GeoPoint, radius int) (domain.ReverseGeocodeResult, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p, radius)
	}
	return domain.ReverseGeocodeResult{DisplayName: "1 Main Street", HasAddress: true}, nil
}

type mockPois struct {
	mu         sync.Mutex
	lastRadius int
	findFn     func(ctx context.Context, p domain.GeoPoint, q domain.PoiQuery, radius int) ([]domain.Poi, error)
}

func (m *mockPois) FindNearby(ctx context.Context, p domain.GeoPoint, q domain.PoiQuery, radius int) ([]domain.Poi, error) {
	m.mu.Lock()
	m.lastRadius = radius
	m.mu.Unlock()
	if m.findFn != nil {
		return m.findFn(ctx, p, q, radius)
	}
	return []domain.Poi{{ID: "node/1", Name: "Cafe A", Location: p}}, nil
}

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.GeoPoint{Lat: 51.5, Lng: -0.12}, nil
}

// ---- Helpers ----

type fakes struct {
	reverse  *mockReverse
	pois     *mockPois
	geocoder *mockGeocoder
}

func newFakes() *fakes {
	return &fakes{reverse: &mockReverse{}, pois: &mockPois{}, geocoder: &mockGeocoder{}}
}

func (f *fakes) deps() *handler.Dependencies {
	mp := usecases.NewMeetingPointService(f.reverse, f.pois)
	return &handler.Dependencies{
		MeetingPoints: mp,
		Geocoding:     usecases.NewGeocodeService(f.geocoder, "test", nil, nil),
		Sessions:      usecases.NewSessionService(f.geocoder, mp, nil),
		Version:       "test",
	}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("%s %s: invalid JSON %q: %v", method, path, data, err)
		}
	}
	return resp.StatusCode, out
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(newFakes().deps())

	code, body := doJSON(t, app, "GET", "/v1/health", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("expected version test, got %v", body["version"])
	}
}

func TestReady_NothingConfigured(t *testing.T) {
	app := setupApp(newFakes().deps())

	code, body := doJSON(t, app, "GET", "/v1/ready", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	checks, _ := body["checks"].(map[string]interface{})
	for _, name := range []string{"database", "nats", "cache"} {
		if checks[name] != "not configured" {
			t.Errorf("%s: expected not configured, got %v", name, checks[name])
		}
	}
}

// ---- Meeting points ----

func TestMeetingPoint_Success(t *testing.T) {
	app := setupApp(newFakes().deps())

	code, body := doJSON(t, app, "POST", "/v1/meeting-points",
		`{"points":[{"lat":0,"lng":0},{"lat":10,"lng":10}]}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	mid, _ := body["midpoint"].(map[string]interface{})
	if mid["lat"] != 5.0 || mid["lng"] != 5.0 {
		t.Errorf("expected midpoint 5,5, got %v", mid)
	}
	if body["address"] != "1 Main Street" {
		t.Errorf("expected address, got %v", body["address"])
	}
	if body["recommendation"] != "Cafe A" {
		t.Errorf("expected Cafe A, got %v", body["recommendation"])
	}
	if _, ok := body["poi_error"]; ok {
		t.Errorf("expected no poi_error, got %v", body["poi_error"])
	}
}

func TestMeetingPoint_CustomRadius(t *testing.T) {
	f := newFakes()
	app := setupApp(f.deps())

	code, _ := doJSON(t, app, "POST", "/v1/meeting-points",
		`{"points":[{"lat":1,"lng":1},{"lat":2,"lng":2}],"poi":{"amenity_type":"amenity","amenity_value":"bar"},"radius":2500}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if f.pois.lastRadius != 2500 {
		t.Errorf("expected radius 2500, got %d", f.pois.lastRadius)
	}
}

func TestMeetingPoint_NotApplicable(t *testing.T) {
	app := setupApp(newFakes().deps())

	code, body := doJSON(t, app, "POST", "/v1/meeting-points", `{"points":[{"lat":1,"lng":1}]}`)
	if code != 422 {
		t.Fatalf("expected 422, got %d", code)
	}
	if body["code"] != "not_applicable" {
		t.Errorf("expected not_applicable, got %v", body["code"])
	}
}

func TestMeetingPoint_InvalidInput(t *testing.T) {
	app := setupApp(newFakes().deps())

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"points":`},
		{"lat out of range", `{"points":[{"lat":91,"lng":0},{"lat":0,"lng":0}]}`},
		{"radius too large", `{"points":[{"lat":0,"lng":0},{"lat":1,"lng":1}],"radius":60000}`},
		{"negative radius", `{"points":[{"lat":0,"lng":0},{"lat":1,"lng":1}],"radius":-5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, app, "POST", "/v1/meeting-points", tt.body)
			if code != 400 {
				t.Fatalf("expected 400, got %d", code)
			}
			if body["code"] != "bad_request" {
				t.Errorf("expected bad_request, got %v", body["code"])
			}
		})
	}
}

func TestMeetingPoint_PoiFailureReturnsPartial(t *testing.T) {
	f := newFakes()
	f.pois.findFn = func(ctx context.Context, p domain.GeoPoint, q domain.PoiQuery, radius int) ([]domain.Poi, error) {
		return nil, fmt.Errorf("%w: overpass returned 504", domain.ErrTransport)
	}
	app := setupApp(f.deps())

	code, body := doJSON(t, app, "POST", "/v1/meeting-points",
		`{"points":[{"lat":0,"lng":0},{"lat":10,"lng":10}]}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["address"] != "1 Main Street" {
		t.Errorf("expected address kept, got %v", body["address"])
	}
	if msg, _ := body["poi_error"].(string); !strings.Contains(msg, "504") {
		t.Errorf("expected poi_error to carry the cause, got %q", msg)
	}
}

func TestMeetingPoint_AddressFailureIsWarning(t *testing.T) {
	f := newFakes()
	f.reverse.reverseFn = func(ctx context.Context, p domain.GeoPoint, radius int) (domain.ReverseGeocodeResult, error) {
		return domain.ReverseGeocodeResult{}, fmt.Errorf("%w: connection refused", domain.ErrTransport)
	}
	app := setupApp(f.deps())

	code, body := doJSON(t, app, "POST", "/v1/meeting-points",
		`{"points":[{"lat":0,"lng":0},{"lat":10,"lng":10}]}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["address"] != nil {
		t.Errorf("expected null address, got %v", body["address"])
	}
	if w, _ := body["warnings"].([]interface{}); len(w) != 1 {
		t.Errorf("expected one warning, got %v", body["warnings"])
	}
}

// ---- Geocode / reverse ----

func TestGeocode_Success(t *testing.T) {
	app := setupApp(newFakes().deps())

	req := httptest.NewRequest("GET", "/v1/geocode?q=Trafalgar+Square", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("expected day-long caching, got %q", cc)
	}

	var body struct {
		Query    string          `json:"query"`
		Location domain.GeoPoint `json:"location"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Query != "Trafalgar Square" || body.Location.Lat != 51.5 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestGeocode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
		wantAPI  string
	}{
		{"missing q", "/v1/geocode", nil, 400, "bad_request"},
		{"not found", "/v1/geocode?q=nowhere", domain.ErrNotFound, 404, "not_found"},
		{"transport", "/v1/geocode?q=x", fmt.Errorf("%w: status 503", domain.ErrTransport), 502, "upstream_error"},
		{"deadline", "/v1/geocode?q=x", context.DeadlineExceeded, 504, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakes()
			f.geocoder.geocodeFn = func(ctx context.Context, address string) (domain.GeoPoint, error) {
				return domain.GeoPoint{}, tt.err
			}
			app := setupApp(f.deps())

			code, body := doJSON(t, app, "GET", tt.path, "")
			if code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, code)
			}
			if body["code"] != tt.wantAPI {
				t.Errorf("expected %s, got %v", tt.wantAPI, body["code"])
			}
		})
	}
}

func TestGeocode_ETagNotModified(t *testing.T) {
	app := setupApp(newFakes().deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/geocode?q=soho", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/v1/geocode?q=soho", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestReverse_Success(t *testing.T) {
	app := setupApp(newFakes().deps())

	code, body := doJSON(t, app, "GET", "/v1/reverse?lat=51.5&lng=-0.12", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["address"] != "1 Main Street" {
		t.Errorf("expected address, got %v", body["address"])
	}
}

func TestReverse_HighwayOnlyIsNotFound(t *testing.T) {
	f := newFakes()
	f.reverse.reverseFn = func(ctx context.Context, p domain.GeoPoint, radius int) (domain.ReverseGeocodeResult, error) {
		return domain.ReverseGeocodeResult{DisplayName: "M25", IsHighwayOnly: true, HasAddress: true}, nil
	}
	app := setupApp(f.deps())

	code, body := doJSON(t, app, "GET", "/v1/reverse?lat=51.5&lng=-0.12", "")
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
	if body["code"] != "not_found" {
		t.Errorf("expected not_found, got %v", body["code"])
	}
}

func TestReverse_BadParams(t *testing.T) {
	app := setupApp(newFakes().deps())

	for _, path := range []string{
		"/v1/reverse",
		"/v1/reverse?lat=abc&lng=0",
		"/v1/reverse?lat=0&lng=200",
	} {
		code, _ := doJSON(t, app, "GET", path, "")
		if code != 400 {
			t.Errorf("%s: expected 400, got %d", path, code)
		}
	}
}

// ---- Nearby POIs ----

func TestNearbyPois_Pagination(t *testing.T) {
	f := newFakes()
	f.pois.findFn = func(ctx context.Context, p domain.GeoPoint, q domain.PoiQuery, radius int) ([]domain.Poi, error) {
		out := make([]domain.Poi, 5)
		for i := range out {
			out[i] = domain.Poi{ID: fmt.Sprintf("node/%d", i), Name: fmt.Sprintf("Cafe %d", i), Location: p}
		}
		return out, nil
	}
	app := setupApp(f.deps())

	req := httptest.NewRequest("GET", "/v1/pois/nearby?lat=51.5&lng=-0.12&offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Data       []domain.Poi       `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if len(body.Data) != 2 || body.Data[0].Name != "Cafe 2" {
		t.Errorf("expected Cafe 2 and Cafe 3, got %+v", body.Data)
	}
	if body.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", body.Pagination.Total)
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected prev and next links, got %q", link)
	}
	if !strings.Contains(link, "lat=51.5") {
		t.Errorf("expected links to keep lat, got %q", link)
	}
}

func TestNearbyPois_DefaultsRadius(t *testing.T) {
	f := newFakes()
	app := setupApp(f.deps())

	code, _ := doJSON(t, app, "GET", "/v1/pois/nearby?lat=1&lng=1", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if f.pois.lastRadius != usecases.DefaultPoiRadius {
		t.Errorf("expected default radius, got %d", f.pois.lastRadius)
	}
}

func TestNearbyPois_BadParams(t *testing.T) {
	app := setupApp(newFakes().deps())

	for _, path := range []string{
		"/v1/pois/nearby?lat=1",
		"/v1/pois/nearby?lat=1&lng=1&type=amenity",
		"/v1/pois/nearby?lat=1&lng=1&radius=0",
		"/v1/pois/nearby?lat=1&lng=1&radius=50001",
	} {
		code, _ := doJSON(t, app, "GET", path, "")
		if code != 400 {
			t.Errorf("%s: expected 400, got %d", path, code)
		}
	}
}

// ---- Sessions ----

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/v1/sessions", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var sess domain.Session
	json.NewDecoder(resp.Body).Decode(&sess)
	if loc := resp.Header.Get("Location"); loc != "/v1/sessions/"+sess.ID {
		t.Errorf("expected Location header, got %q", loc)
	}
	return sess.ID
}

func TestSessions_Lifecycle(t *testing.T) {
	app := setupApp(newFakes().deps())
	id := createSession(t, app)

	code, body := doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":0,"lng":0}`)
	if code != 200 {
		t.Fatalf("add first marker: expected 200, got %d", code)
	}
	if _, ok := body["latest"]; ok {
		t.Error("one marker must not produce a meeting point")
	}

	code, body = doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"address":"Soho, London"}`)
	if code != 200 {
		t.Fatalf("add second marker: expected 200, got %d", code)
	}
	latest, _ := body["latest"].(map[string]interface{})
	if latest["recommendation"] != "Cafe A" {
		t.Errorf("expected Cafe A, got %v", latest["recommendation"])
	}
	markers, _ := body["markers"].([]interface{})
	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(markers))
	}

	req := httptest.NewRequest("GET", "/v1/sessions/"+id, nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store, got %q", cc)
	}

	code, body = doJSON(t, app, "DELETE", "/v1/sessions/"+id+"/markers/0", "")
	if code != 200 {
		t.Fatalf("remove marker: expected 200, got %d", code)
	}
	if _, ok := body["latest"]; ok {
		t.Error("expected latest to be cleared below two markers")
	}

	code, _ = doJSON(t, app, "DELETE", "/v1/sessions/"+id, "")
	if code != 204 {
		t.Fatalf("delete: expected 204, got %d", code)
	}
	code, _ = doJSON(t, app, "GET", "/v1/sessions/"+id, "")
	if code != 404 {
		t.Errorf("get after delete: expected 404, got %d", code)
	}
}

func TestSessions_MarkerErrors(t *testing.T) {
	f := newFakes()
	f.geocoder.geocodeFn = func(ctx context.Context, address string) (domain.GeoPoint, error) {
		return domain.GeoPoint{}, domain.ErrNotFound
	}
	app := setupApp(f.deps())
	id := createSession(t, app)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"unknown session", "POST", "/v1/sessions/nope/markers", `{"lat":1,"lng":1}`, 404},
		{"lat without lng", "POST", "/v1/sessions/" + id + "/markers", `{"lat":1}`, 400},
		{"empty marker", "POST", "/v1/sessions/" + id + "/markers", `{}`, 400},
		{"out of range", "POST", "/v1/sessions/" + id + "/markers", `{"lat":100,"lng":1}`, 400},
		{"unknown address", "POST", "/v1/sessions/" + id + "/markers", `{"address":"Atlantis"}`, 404},
		{"bad index", "DELETE", "/v1/sessions/" + id + "/markers/x", "", 400},
		{"missing marker", "DELETE", "/v1/sessions/" + id + "/markers/3", "", 404},
		{"partial poi query", "PUT", "/v1/sessions/" + id + "/poi", `{"amenity_type":"amenity"}`, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, app, tt.method, tt.path, tt.body)
			if code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %v", tt.wantCode, code, body)
			}
		})
	}
}

func TestSessions_SetPoiQuery(t *testing.T) {
	var mu sync.Mutex
	var seen []domain.PoiQuery
	f := newFakes()
	f.pois.findFn = func(ctx context.Context, p domain.GeoPoint, q domain.PoiQuery, radius int) ([]domain.Poi, error) {
		mu.Lock()
		seen = append(seen, q)
		mu.Unlock()
		return []domain.Poi{{ID: "node/9", Name: "The " + q.AmenityValue, Location: p}}, nil
	}
	app := setupApp(f.deps())
	id := createSession(t, app)

	doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":0,"lng":0}`)
	doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":2,"lng":2}`)

	code, body := doJSON(t, app, "PUT", "/v1/sessions/"+id+"/poi", `{"amenity_type":"amenity","amenity_value":"pub"}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	latest, _ := body["latest"].(map[string]interface{})
	if latest["recommendation"] != "The pub" {
		t.Errorf("expected The pub, got %v", latest["recommendation"])
	}
	if len(seen) != 2 || seen[1].AmenityValue != "pub" {
		t.Errorf("expected a cafe then a pub query, got %+v", seen)
	}
}

func TestSessions_PoiFailureKeepsSnapshot(t *testing.T) {
	f := newFakes()
	f.pois.findFn = func(ctx context.Context, p domain.GeoPoint, q domain.PoiQuery, radius int) ([]domain.Poi, error) {
		return nil, fmt.Errorf("%w: timeout", domain.ErrTransport)
	}
	app := setupApp(f.deps())
	id := createSession(t, app)

	doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":0,"lng":0}`)
	code, body := doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":2,"lng":2}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["poi_error"] == nil {
		t.Error("expected poi_error")
	}
	if body["id"] != id {
		t.Errorf("expected the session snapshot, got %v", body["id"])
	}
}

// ---- GraphQL ----

func TestGraphQL_MeetingPoint(t *testing.T) {
	app := setupApp(newFakes().deps())

	q := `{"query":"{ meetingPoint(points: [{lat: 0, lng: 0}, {lat: 10, lng: 10}]) { midpoint { lat lng } address recommendation } }"}`
	code, body := doJSON(t, app, "POST", "/graphql", q)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["errors"] != nil {
		t.Fatalf("unexpected errors: %v", body["errors"])
	}
	data, _ := body["data"].(map[string]interface{})
	mp, _ := data["meetingPoint"].(map[string]interface{})
	if mp["recommendation"] != "Cafe A" {
		t.Errorf("expected Cafe A, got %v", mp["recommendation"])
	}
	mid, _ := mp["midpoint"].(map[string]interface{})
	if mid["lat"] != 5.0 {
		t.Errorf("expected midpoint lat 5, got %v", mid["lat"])
	}
}

func TestGraphQL_MeetingPointNeedsTwoPoints(t *testing.T) {
	app := setupApp(newFakes().deps())

	q := `{"query":"{ meetingPoint(points: [{lat: 0, lng: 0}]) { recommendation } }"}`
	_, body := doJSON(t, app, "POST", "/graphql", q)
	if body["errors"] == nil {
		t.Error("expected a GraphQL error for a single point")
	}
}

func TestGraphQL_RadiusBounds(t *testing.T) {
	queries := []string{
		`{"query":"{ meetingPoint(points: [{lat: 0, lng: 0}, {lat: 1, lng: 1}], radius: 1000000000) { recommendation } }"}`,
		`{"query":"{ meetingPoint(points: [{lat: 0, lng: 0}, {lat: 1, lng: 1}], radius: -1) { recommendation } }"}`,
		`{"query":"{ nearbyPois(lat: 1, lng: 1, radius: 50001) { name } }"}`,
	}
	for _, q := range queries {
		f := newFakes()
		app := setupApp(f.deps())

		_, body := doJSON(t, app, "POST", "/graphql", q)
		if body["errors"] == nil {
			t.Errorf("expected a radius error for %s", q)
		}
		if f.pois.lastRadius != 0 {
			t.Errorf("expected no place lookup, got radius %d", f.pois.lastRadius)
		}
	}
}

func TestGraphQL_NearbyPoisRadius(t *testing.T) {
	f := newFakes()
	app := setupApp(f.deps())

	_, body := doJSON(t, app, "POST", "/graphql", `{"query":"{ nearbyPois(lat: 1, lng: 1, radius: 50000) { name } }"}`)
	if body["errors"] != nil {
		t.Fatalf("unexpected errors: %v", body["errors"])
	}
	if f.pois.lastRadius != 50000 {
		t.Errorf("expected radius 50000, got %d", f.pois.lastRadius)
	}
}

func TestGraphQL_Session(t *testing.T) {
	app := setupApp(newFakes().deps())
	id := createSession(t, app)

	q := fmt.Sprintf(`{"query":"{ session(id: \"%s\") { id zoom center { lat lng } markers { address } } }"}`, id)
	_, body := doJSON(t, app, "POST", "/graphql", q)
	if body["errors"] != nil {
		t.Fatalf("unexpected errors: %v", body["errors"])
	}
	data, _ := body["data"].(map[string]interface{})
	sess, _ := data["session"].(map[string]interface{})
	if sess["id"] != id {
		t.Errorf("expected session %s, got %v", id, sess["id"])
	}
	if sess["zoom"] != float64(domain.DefaultZoom) {
		t.Errorf("expected default zoom, got %v", sess["zoom"])
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	app := setupApp(newFakes().deps())

	code, _ := doJSON(t, app, "POST", "/graphql", `{"query":""}`)
	if code != 400 {
		t.Errorf("expected 400, got %d", code)
	}
}

// ---- Middleware ----

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(newFakes().deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected nosniff")
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected a request id")
	}
}

func TestErrorsCarryRequestID(t *testing.T) {
	app := setupApp(newFakes().deps())

	_, body := doJSON(t, app, "GET", "/v1/sessions/missing", "")
	if body["request_id"] == nil || body["request_id"] == "" {
		t.Errorf("expected request_id in error body, got %v", body)
	}
}
