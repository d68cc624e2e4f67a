package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/genui-analytics/internal/domain/dashboard"
	"github.com/yanqian/genui-analytics/internal/domain/location"
	"github.com/yanqian/genui-analytics/internal/domain/profile"
	"github.com/yanqian/genui-analytics/internal/domain/render"
	"github.com/yanqian/genui-analytics/internal/infra/config"
	"github.com/yanqian/genui-analytics/internal/infra/sessionstore"
	apperrors "github.com/yanqian/genui-analytics/pkg/errors"
	"github.com/yanqian/genui-analytics/pkg/metrics"
)

const testCookie = "genui_session"

func TestRouter_IndexStartsSession(t *testing.T) {
	svc := &stubDashboard{}
	server := newRouterUnderTest(t, svc)

	rec := doRequest(server, http.MethodGet, "/", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, svc.started)
	require.Contains(t, rec.Header().Get("Set-Cookie"), testCookie+"=sess-1")
	require.Contains(t, rec.Body.String(), "Your city, at a glance")
	require.Contains(t, rec.Body.String(), `http-equiv="refresh"`)
}

func TestRouter_IndexSelecting(t *testing.T) {
	svc := &stubDashboard{sess: &dashboard.Session{ID: "sess-1", State: dashboard.StateSelecting, PendingDriver: true}}

	rec := doRequest(newRouterUnderTest(t, svc), http.MethodGet, "/", nil, "sess-1")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, svc.started)
	body := rec.Body.String()
	require.Contains(t, body, "What do you drive?")
	require.Contains(t, body, `"enableHighAccuracy":true`)
	require.Contains(t, body, `"timeout":5000`)
}

func TestRouter_SelectProfileForm(t *testing.T) {
	svc := &stubDashboard{sess: &dashboard.Session{ID: "sess-1", State: dashboard.StateSelecting}}
	form := url.Values{
		"profile_type":  {"commuter"},
		"geo_supported": {"1"},
		"geo_error":     {"1"},
	}

	rec := doRequest(newRouterUnderTest(t, svc), http.MethodPost, "/select", form, "sess-1")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Equal(t, []dashboard.Event{{Type: dashboard.EventSelectProfile, Value: "commuter"}}, svc.events)
	require.NotNil(t, svc.devices[0].Report)
	require.True(t, svc.devices[0].Report.Supported)
	require.Equal(t, location.CodePermissionDenied, svc.devices[0].Report.ErrorCode)
	require.Nil(t, svc.devices[0].Report.Fix)
}

func TestRouter_SelectVehicleFormWithFix(t *testing.T) {
	svc := &stubDashboard{sess: &dashboard.Session{ID: "sess-1", State: dashboard.StateSelecting, PendingDriver: true}}
	form := url.Values{
		"vehicle_type":  {"ev"},
		"geo_supported": {"1"},
		"geo_lat":       {"13.05"},
		"geo_lng":       {"80.25"},
	}

	rec := doRequest(newRouterUnderTest(t, svc), http.MethodPost, "/select/vehicle", form, "sess-1")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, dashboard.Event{Type: dashboard.EventSelectVehicle, Value: "ev"}, svc.events[0])
	require.Equal(t, &location.Coordinate{Lat: 13.05, Lng: 80.25}, svc.devices[0].Report.Fix)
}

func TestRouter_SelectWithoutReport(t *testing.T) {
	svc := &stubDashboard{sess: &dashboard.Session{ID: "sess-1", State: dashboard.StateSelecting}}

	rec := doRequest(newRouterUnderTest(t, svc), http.MethodPost, "/select", url.Values{"profile_type": {"driver"}}, "sess-1")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Nil(t, svc.devices[0].Report)
}

func TestRouter_InvalidTransition(t *testing.T) {
	svc := &stubDashboard{
		sess:     &dashboard.Session{ID: "sess-1", State: dashboard.StateIntro},
		applyErr: apperrors.Wrap("invalid_transition", "cannot select a profile while in intro state", nil),
	}

	rec := doRequest(newRouterUnderTest(t, svc), http.MethodPost, "/select", url.Values{"profile_type": {"tourist"}}, "sess-1")

	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_transition", errBody["error"]["code"])
}

func TestRouter_VehicleStepBackToProfiles(t *testing.T) {
	svc := dashboard.NewService(dashboard.Config{}, sessionstore.NewMemoryStore(time.Hour), nil, nil, nil, newTestLogger())
	server := newRouterUnderTest(t, svc)

	rec := doRequest(server, http.MethodGet, "/", nil, "")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	id := cookies[0].Value

	rec = doRequest(server, http.MethodGet, "/", nil, id)
	require.Contains(t, rec.Body.String(), "How do you get around?")

	rec = doRequest(server, http.MethodPost, "/select", url.Values{"profile_type": {"driver"}}, id)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = doRequest(server, http.MethodGet, "/", nil, id)
	body := rec.Body.String()
	require.Contains(t, body, "What do you drive?")
	require.Contains(t, body, `action="/change"`)

	rec = doRequest(server, http.MethodPost, "/change", nil, id)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = doRequest(server, http.MethodGet, "/", nil, id)
	body = rec.Body.String()
	require.Contains(t, body, "How do you get around?")
	require.Contains(t, body, `value="commuter"`)
}

func TestRouter_ProfileLoading(t *testing.T) {
	svc := &stubDashboard{sess: &dashboard.Session{
		ID:      "sess-1",
		State:   dashboard.StateProfile,
		Phase:   dashboard.PhaseLocating,
		Request: &profile.Request{ProfileType: profile.Tourist},
	}}

	rec := doRequest(newRouterUnderTest(t, svc), http.MethodGet, "/", nil, "sess-1")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Getting your location...")
	require.Contains(t, rec.Body.String(), "Tourist")
}

func TestRouter_ProfileReady(t *testing.T) {
	svc := &stubDashboard{sess: readySession()}

	rec := doRequest(newRouterUnderTest(t, svc), http.MethodGet, "/", nil, "sess-1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Electric Vehicle Driver")
	require.Contains(t, body, "Location access denied. Using default location.")
	require.Contains(t, body, "X (1.2346, 2.3457)")
	require.Contains(t, body, "Unsupported chart type: scatter")
	require.Contains(t, body, `src="/charts/0"`)

	msg := strings.Index(body, "Charging is cheap tonight")
	listing := strings.Index(body, "X (1.2346, 2.3457)")
	stat := strings.Index(body, "Range")
	chart := strings.Index(body, "Trips")
	require.True(t, msg < listing && listing < stat && stat < chart, "blocks out of order")
}

func TestRouter_ProfileFetchFailure(t *testing.T) {
	sess := readySession()
	fallback := profile.FallbackResponse()
	sess.Response = &fallback
	sess.FetchError = "fetch_failed"

	rec := doRequest(newRouterUnderTest(t, &stubDashboard{sess: sess}), http.MethodGet, "/", nil, "sess-1")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Failed to fetch data. Please try again.")
}

func TestRouter_ChartPage(t *testing.T) {
	server := newRouterUnderTest(t, &stubDashboard{sess: readySession()})

	rec := doRequest(server, http.MethodGet, "/charts/0", nil, "sess-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "Trips")

	rec = doRequest(server, http.MethodGet, "/charts/1", nil, "sess-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Unsupported chart type: scatter")

	rec = doRequest(server, http.MethodGet, "/charts/7", nil, "sess-1")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SessionAPI(t *testing.T) {
	rec := doRequest(newRouterUnderTest(t, &stubDashboard{sess: readySession()}), http.MethodGet, "/api/v1/session", nil, "sess-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		State  string `json:"state"`
		Banner string `json:"banner"`
		Blocks []struct {
			Kind string `json:"kind"`
		} `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "profile", got.State)
	require.Equal(t, "Location access denied. Using default location.", got.Banner)
	kinds := make([]string, len(got.Blocks))
	for i, b := range got.Blocks {
		kinds[i] = b.Kind
	}
	require.Equal(t, []string{"message", "map", "stats", "chart", "chart"}, kinds)
}

func TestRouter_PostEvent(t *testing.T) {
	svc := &stubDashboard{sess: &dashboard.Session{ID: "sess-1", State: dashboard.StateSelecting}}
	body := `{"type":"select_profile","value":"tourist","location":{"supported":true,"lat":1.5,"lng":2.5}}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "sess-1"})
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, svc).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, dashboard.Event{Type: dashboard.EventSelectProfile, Value: "tourist"}, svc.events[0])
	require.Equal(t, &location.Coordinate{Lat: 1.5, Lng: 2.5}, svc.devices[0].Report.Fix)
}

func TestRouter_PostEventInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/events", bytes.NewBufferString(`{"value":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, &stubDashboard{}).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_MapsTokenUnavailable(t *testing.T) {
	rec := doRequest(newRouterUnderTest(t, &stubDashboard{}), http.MethodGet, "/api/v1/maps/token", nil, "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "maps_unavailable", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	server := newRouterUnderTest(t, &stubDashboard{})

	rec := doRequest(server, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","backend":"up"}`, rec.Body.String())

	rec = doRequest(server, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}

func readySession() *dashboard.Session {
	msg := "Charging is cheap tonight"
	return &dashboard.Session{
		ID:      "sess-1",
		State:   dashboard.StateProfile,
		Phase:   dashboard.PhaseReady,
		Token:   1,
		Request: &profile.Request{ProfileType: profile.Driver, VehicleType: profile.VehicleEV},
		Location: &location.Resolution{
			Coordinate: location.Fallback,
			Status:     location.StatusFallback,
			Reason:     location.ReasonDenied,
		},
		Response: &profile.Response{
			Message: &msg,
			Map:     &profile.MapSpec{Kind: profile.MapPins, Points: []profile.MapPoint{{Lat: 1.23456, Lng: 2.34567, Label: "X"}}},
			Stats:   []profile.Stat{{Label: "Range", Value: "320 km"}},
			Charts: []profile.Chart{
				{Kind: profile.ChartBar, Title: "Trips", Points: []profile.ChartPoint{{Label: "Mon", Value: 3}}},
				{Kind: "scatter", Title: "Odd"},
			},
		},
	}
}

func doRequest(server *http.Server, method, path string, form url.Values, cookie string) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: cookie})
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc dashboard.Service) *http.Server {
	t.Helper()
	logger := newTestLogger()
	pages := PageConfig{
		CookieName:   testCookie,
		CookieTTL:    time.Hour,
		MapWidth:     800,
		MapHeight:    400,
		ChartsAssets: "https://assets.example.com/",
		Geolocation:  location.DefaultOptions(),
	}
	handler := NewHandler(pages, svc, render.NewMapRenderer(nil, logger), nil, stubBackend{healthy: true}, logger)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	return NewRouter(cfg, handler, metrics.New())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

type stubBackend struct {
	healthy bool
}

func (s stubBackend) Healthy(context.Context) bool { return s.healthy }

type stubDashboard struct {
	sess     *dashboard.Session
	started  int
	applyErr error
	events   []dashboard.Event
	devices  []location.Device
}

func (s *stubDashboard) Start(ctx context.Context) (*dashboard.Session, error) {
	s.started++
	s.sess = &dashboard.Session{ID: "sess-1", State: dashboard.StateIntro, IntroUntil: time.Now().Add(4 * time.Second)}
	return s.sess, nil
}

func (s *stubDashboard) Current(ctx context.Context, id string) (*dashboard.Session, error) {
	if s.sess == nil || s.sess.ID != id {
		return nil, apperrors.Wrap("session_not_found", "session not found", dashboard.ErrSessionNotFound)
	}
	return s.sess, nil
}

func (s *stubDashboard) SelectProfile(ctx context.Context, id, profileType string, device location.Device) (*dashboard.Session, error) {
	return s.Apply(ctx, id, dashboard.Event{Type: dashboard.EventSelectProfile, Value: profileType}, device)
}

func (s *stubDashboard) SelectVehicle(ctx context.Context, id, vehicleType string, device location.Device) (*dashboard.Session, error) {
	return s.Apply(ctx, id, dashboard.Event{Type: dashboard.EventSelectVehicle, Value: vehicleType}, device)
}

func (s *stubDashboard) ChangeProfile(ctx context.Context, id string) (*dashboard.Session, error) {
	return s.Apply(ctx, id, dashboard.Event{Type: dashboard.EventChangeProfile}, location.Device{})
}

func (s *stubDashboard) Apply(ctx context.Context, id string, ev dashboard.Event, device location.Device) (*dashboard.Session, error) {
	s.events = append(s.events, ev)
	s.devices = append(s.devices, device)
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return s.sess, nil
}
