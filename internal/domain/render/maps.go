package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/golang/geo/s2"

	"github.com/yanqian/genui-analytics/internal/domain/profile"
)

const (
	// RegionSpan is the lat/lng delta, in degrees, of the initial viewport.
	RegionSpan = 0.02
	// HeatRadiusMeters is the radius of every heatmap circle.
	HeatRadiusMeters = 1000.0

	earthRadiusMeters = 6371008.8
)

var errZeroSpan = errors.New("map region has zero span")

// Span is a viewport extent in degrees.
type Span struct {
	LatDelta float64 `json:"lat_delta"`
	LngDelta float64 `json:"lng_delta"`
}

// Region is the visible area of a map.
type Region struct {
	Center profile.Coordinate `json:"center"`
	Span   Span               `json:"span"`
}

// Annotation is a native SDK pin.
type Annotation struct {
	Coordinate profile.Coordinate `json:"coordinate"`
	Title      string             `json:"title"`
}

// CircleOverlay is a translucent heatmap circle.
type CircleOverlay struct {
	Center      profile.Coordinate `json:"center"`
	Radius      float64            `json:"radius"`
	Severity    profile.Severity   `json:"severity"`
	FillColor   string             `json:"fill_color"`
	StrokeColor string             `json:"stroke_color"`
}

// Map is a live map widget created by an SDK.
type Map interface {
	Region() Region
	SetRegion(Region)
	AddAnnotation(Annotation) error
	AddOverlay(CircleOverlay) error
}

// SDK hides the external mapping toolkit.
type SDK interface {
	EnsureLoaded(ctx context.Context) error
	CreateMap(ctx context.Context, container *Container) (Map, error)
}

// Marker is a custom pin positioned in container pixels.
type Marker struct {
	Left           float64 `json:"left"`
	Top            float64 `json:"top"`
	Title          string  `json:"title"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Container is the element a map is drawn into, along with its custom marker layer.
type Container struct {
	Width  float64
	Height float64

	mu      sync.Mutex
	markers []Marker
}

// NewContainer sizes a container in pixels.
func NewContainer(width, height float64) *Container {
	return &Container{Width: width, Height: height}
}

// Markers returns a copy of the marker layer.
func (c *Container) Markers() []Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Marker(nil), c.markers...)
}

func (c *Container) clearMarkers() {
	c.mu.Lock()
	c.markers = nil
	c.mu.Unlock()
}

func (c *Container) addMarker(m Marker) {
	c.mu.Lock()
	c.markers = append(c.markers, m)
	c.mu.Unlock()
}

// MapView is the result of one map render.
type MapView struct {
	Kind        profile.MapKind
	Listing     []string
	Interactive bool
	Map         Map
	Markers     []Marker
	Skipped     int
}

// MapRenderer draws map specs through an SDK, degrading to a text listing.
type MapRenderer struct {
	sdk    SDK
	logger *slog.Logger
}

// NewMapRenderer builds a renderer. A nil sdk always yields the listing.
func NewMapRenderer(sdk SDK, logger *slog.Logger) *MapRenderer {
	return &MapRenderer{
		sdk:    sdk,
		logger: logger.With("component", "render.map"),
	}
}

// Render draws spec into container. Per-point failures are logged and skipped.
func (r *MapRenderer) Render(ctx context.Context, container *Container, spec profile.MapSpec) MapView {
	view := MapView{Kind: spec.Kind, Listing: Listing(spec.Points)}
	container.clearMarkers()

	if r.sdk == nil {
		return view
	}
	if err := r.sdk.EnsureLoaded(ctx); err != nil {
		r.logger.Info("map sdk unavailable, showing listing", "error", err)
		return view
	}
	m, err := r.sdk.CreateMap(ctx, container)
	if err != nil {
		r.logger.Warn("map creation failed, showing listing", "error", err)
		return view
	}
	view.Interactive = true
	view.Map = m

	if len(spec.Points) > 0 {
		first := spec.Points[0]
		m.SetRegion(Region{
			Center: profile.Coordinate{Lat: first.Lat, Lng: first.Lng},
			Span:   Span{LatDelta: RegionSpan, LngDelta: RegionSpan},
		})
	}

	var place func(profile.MapPoint) error
	switch spec.Kind {
	case profile.MapPins:
		place = func(p profile.MapPoint) error { return placePin(m, container, p) }
	case profile.MapHeatmap:
		place = func(p profile.MapPoint) error { return placeCircle(m, p) }
	default:
		r.logger.Warn("unknown map type, placing nothing", "type", spec.Kind, "points", len(spec.Points))
		return view
	}

	for i, point := range spec.Points {
		err := r.safely(func() error { return place(point) })
		if err != nil {
			view.Skipped++
			r.logger.Error("skipping map point", "index", i, "label", point.Label, "error", err)
		}
	}
	view.Markers = container.Markers()
	return view
}

func (r *MapRenderer) safely(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic placing point: %v", rec)
		}
	}()
	return fn()
}

func placePin(m Map, container *Container, point profile.MapPoint) error {
	coord := profile.Coordinate{Lat: point.Lat, Lng: point.Lng}
	title := pointTitle(point)
	if err := m.AddAnnotation(Annotation{Coordinate: coord, Title: point.Label}); err != nil {
		return fmt.Errorf("add annotation: %w", err)
	}
	left, top, err := MarkerOffset(m.Region(), coord, container.Width, container.Height)
	if err != nil {
		return err
	}
	container.addMarker(Marker{
		Left:           left,
		Top:            top,
		Title:          title,
		DistanceMeters: distanceMeters(m.Region().Center, coord),
	})
	return nil
}

func placeCircle(m Map, point profile.MapPoint) error {
	severity := SeverityOf(point)
	fill, stroke := heatColors(severity)
	return m.AddOverlay(CircleOverlay{
		Center:      profile.Coordinate{Lat: point.Lat, Lng: point.Lng},
		Radius:      HeatRadiusMeters,
		Severity:    severity,
		FillColor:   fill,
		StrokeColor: stroke,
	})
}

// MarkerOffset linearly maps a coordinate to container pixels around the region center.
// It assumes a small span; no projection correction is applied.
func MarkerOffset(region Region, p profile.Coordinate, width, height float64) (left, top float64, err error) {
	if region.Span.LatDelta == 0 || region.Span.LngDelta == 0 {
		return 0, 0, errZeroSpan
	}
	latRatio := (region.Center.Lat - p.Lat) / region.Span.LatDelta
	lngRatio := (region.Center.Lng - p.Lng) / region.Span.LngDelta
	top = (0.5 + latRatio) * height
	left = (0.5 - lngRatio) * width
	return left, top, nil
}

// SeverityOf prefers the explicit severity and falls back to the label text.
func SeverityOf(point profile.MapPoint) profile.Severity {
	switch point.Severity {
	case profile.SeverityHigh, profile.SeverityMedium, profile.SeverityLow:
		return point.Severity
	}
	switch {
	case strings.Contains(point.Label, "High"):
		return profile.SeverityHigh
	case strings.Contains(point.Label, "Medium"):
		return profile.SeverityMedium
	default:
		return profile.SeverityLow
	}
}

func heatColors(s profile.Severity) (fill, stroke string) {
	switch s {
	case profile.SeverityHigh:
		return "rgba(255, 59, 48, 0.5)", "rgba(255, 59, 48, 0.8)"
	case profile.SeverityMedium:
		return "rgba(255, 204, 0, 0.5)", "rgba(255, 204, 0, 0.8)"
	default:
		return "rgba(48, 209, 88, 0.5)", "rgba(48, 209, 88, 0.8)"
	}
}

// Listing is the plain-text rendering of map points.
func Listing(points []profile.MapPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = pointTitle(p)
	}
	return out
}

func pointTitle(p profile.MapPoint) string {
	return fmt.Sprintf("%s (%.4f, %.4f)", p.Label, p.Lat, p.Lng)
}

func distanceMeters(a, b profile.Coordinate) float64 {
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))
	return angle.Radians() * earthRadiusMeters
}
