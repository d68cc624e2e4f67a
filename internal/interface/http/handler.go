package http

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/genui-analytics/internal/domain/dashboard"
	"github.com/yanqian/genui-analytics/internal/domain/location"
	"github.com/yanqian/genui-analytics/internal/domain/profile"
	"github.com/yanqian/genui-analytics/internal/domain/render"
	"github.com/yanqian/genui-analytics/internal/infra/mapkit"
	"github.com/yanqian/genui-analytics/pkg/util"
)

// TokenSource mints MapKit JS tokens.
type TokenSource interface {
	Token(ctx context.Context, now time.Time) (string, time.Time, error)
}

// HealthChecker probes the profile backend.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// PageConfig carries presentation settings for the dashboard pages.
type PageConfig struct {
	CookieName   string
	CookieTTL    time.Duration
	SecureCookie bool
	MapWidth     int
	MapHeight    int
	ChartsAssets string
	Geolocation  location.PositionOptions
}

// Handler wires the HTTP transport to the dashboard services.
type Handler struct {
	cfg       PageConfig
	dashboard dashboard.Service
	maps      *render.MapRenderer
	tokens    TokenSource
	backend   HealthChecker
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg PageConfig, dashboardSvc dashboard.Service, maps *render.MapRenderer, tokens TokenSource, backend HealthChecker, logger *slog.Logger) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "genui_session"
	}
	if cfg.MapWidth <= 0 || cfg.MapHeight <= 0 {
		cfg.MapWidth, cfg.MapHeight = 800, 400
	}
	return &Handler{
		cfg:       cfg,
		dashboard: dashboardSvc,
		maps:      maps,
		tokens:    tokens,
		backend:   backend,
		logger:    logger.With("component", "http.handler"),
	}
}

type blockView struct {
	Kind       render.BlockKind
	Message    string
	Stats      []profile.Stat
	Chart      *render.ChartView
	ChartIndex int
	Map        *mapView
}

type mapView struct {
	Kind        profile.MapKind
	Listing     []string
	Interactive bool
	Width       int
	Height      int
	Markers     []render.Marker
	Scene       *mapkit.SceneData
}

// Index renders the page for the session's current state.
func (h *Handler) Index(c *gin.Context) {
	sess, err := h.session(c)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}

	switch sess.State {
	case dashboard.StateIntro:
		c.HTML(http.StatusOK, "intro.tmpl", gin.H{
			"Refresh": util.RefreshSeconds(util.NowUTC(), sess.IntroUntil),
		})
	case dashboard.StateSelecting:
		c.HTML(http.StatusOK, "select.tmpl", gin.H{
			"PendingDriver": sess.PendingDriver,
			"Geo":           h.geoOptions(),
		})
	default:
		c.HTML(http.StatusOK, "profile.tmpl", h.profilePage(c.Request.Context(), sess))
	}
}

// SelectProfile handles the profile picker form.
func (h *Handler) SelectProfile(c *gin.Context) {
	sess, err := h.session(c)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	if _, err := h.dashboard.SelectProfile(c.Request.Context(), sess.ID, c.PostForm("profile_type"), deviceFromForm(c)); err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// SelectVehicle handles the vehicle picker shown after choosing the driver profile.
func (h *Handler) SelectVehicle(c *gin.Context) {
	sess, err := h.session(c)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	if _, err := h.dashboard.SelectVehicle(c.Request.Context(), sess.ID, c.PostForm("vehicle_type"), deviceFromForm(c)); err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ChangeProfile returns to the selector.
func (h *Handler) ChangeProfile(c *gin.Context) {
	sess, err := h.session(c)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	if _, err := h.dashboard.ChangeProfile(c.Request.Context(), sess.ID); err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Chart serves one chart of the current profile as a standalone go-echarts page.
func (h *Handler) Chart(c *gin.Context) {
	sess, err := h.session(c)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || sess.Response == nil || sess.State != dashboard.StateProfile || index < 0 || index >= len(sess.Response.Charts) {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "chart_not_found", "chart not found", err))
		return
	}

	view := render.RenderChart(sess.Response.Charts[index])
	if !view.Supported {
		page := "<!DOCTYPE html><html><body><p class=\"chart-placeholder\">" + template.HTMLEscapeString(view.Placeholder) + "</p></body></html>"
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
		return
	}

	var buf bytes.Buffer
	frame := chartFrame{Width: "100%", Height: "320px", AssetsHost: h.cfg.ChartsAssets}
	if err := writeEChart(&buf, view, frame); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "chart_render_failed", "failed to render chart", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// MapsToken hands a short-lived MapKit JS token to the page.
func (h *Handler) MapsToken(c *gin.Context) {
	if h.tokens == nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "maps_unavailable", "maps are not configured", nil))
		return
	}
	token, expires, err := h.tokens.Token(c.Request.Context(), util.NowUTC())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "maps_unavailable", "maps are not configured", err))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expires})
}

// Health reports process liveness along with the backend's status.
func (h *Handler) Health(c *gin.Context) {
	backend := "unknown"
	if h.backend != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		backend = "down"
		if h.backend.Healthy(ctx) {
			backend = "up"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": backend})
}

func (h *Handler) profilePage(ctx context.Context, sess *dashboard.Session) gin.H {
	page := gin.H{
		"Title":       sess.Title(),
		"Loading":     sess.Loading(),
		"LoadingText": sess.Phase.LoadingText(),
		"MapKitURL":   mapkit.ScriptURL,
	}
	if sess.Location != nil {
		page["Banner"] = sess.Location.Banner()
	}
	if sess.Response == nil || sess.Loading() {
		page["Refresh"] = 1
		return page
	}

	blocks := render.Schema(*sess.Response)
	views := make([]blockView, 0, len(blocks))
	interactive := false
	for _, b := range blocks {
		view := blockView{Kind: b.Kind, Message: b.Message, Stats: b.Stats, ChartIndex: b.ChartIndex}
		switch b.Kind {
		case render.BlockChart:
			chart := render.RenderChart(*b.Chart)
			view.Chart = &chart
		case render.BlockMap:
			view.Map = h.renderMap(ctx, *b.Map)
			interactive = interactive || view.Map.Interactive
		}
		views = append(views, view)
	}
	page["Blocks"] = views
	page["Interactive"] = interactive
	return page
}

func (h *Handler) renderMap(ctx context.Context, spec profile.MapSpec) *mapView {
	container := render.NewContainer(float64(h.cfg.MapWidth), float64(h.cfg.MapHeight))
	out := h.maps.Render(ctx, container, spec)
	view := &mapView{
		Kind:        out.Kind,
		Listing:     out.Listing,
		Interactive: out.Interactive,
		Width:       h.cfg.MapWidth,
		Height:      h.cfg.MapHeight,
		Markers:     out.Markers,
	}
	if scene, ok := out.Map.(*mapkit.Scene); ok {
		data := scene.Data()
		view.Scene = &data
	}
	return view
}

type geoOptions struct {
	EnableHighAccuracy bool  `json:"enableHighAccuracy"`
	Timeout            int64 `json:"timeout"`
	MaximumAge         int64 `json:"maximumAge"`
}

func (h *Handler) geoOptions() geoOptions {
	return geoOptions{
		EnableHighAccuracy: h.cfg.Geolocation.HighAccuracy,
		Timeout:            h.cfg.Geolocation.Timeout.Milliseconds(),
		MaximumAge:         h.cfg.Geolocation.MaximumAge.Milliseconds(),
	}
}
