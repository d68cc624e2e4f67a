package location

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/golang/geo/s2"

	"github.com/yanqian/genui-analytics/pkg/metrics"
)

// Locator obtains the current position of a device.
type Locator interface {
	CurrentPosition(ctx context.Context, device Device, opts PositionOptions) (Position, error)
}

// Resolver turns a single locator attempt into a coordinate, falling back on any failure.
type Resolver struct {
	locator Locator
	opts    PositionOptions
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewResolver builds a Resolver. Zero options are replaced by DefaultOptions.
func NewResolver(locator Locator, opts PositionOptions, recorder *metrics.Recorder, logger *slog.Logger) *Resolver {
	if opts.Timeout <= 0 {
		opts = DefaultOptions()
	}
	return &Resolver{
		locator: locator,
		opts:    opts,
		metrics: recorder,
		logger:  logger.With("component", "location.resolver"),
	}
}

type attempt struct {
	pos Position
	err error
}

// Resolve never fails: errors become the fallback coordinate plus a reason.
func (r *Resolver) Resolve(ctx context.Context, device Device) Resolution {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	done := make(chan attempt, 1)
	go func() {
		pos, err := r.locator.CurrentPosition(ctx, device, r.opts)
		done <- attempt{pos: pos, err: err}
	}()

	var res attempt
	select {
	case res = <-done:
	case <-ctx.Done():
		res = attempt{err: ErrTimeout}
	}

	out := r.interpret(res)
	r.metrics.LocationResolved(string(out.Status), string(out.Reason))
	if out.Status == StatusFallback {
		r.logger.Warn("using fallback location", "reason", out.Reason, "error", res.err)
	} else {
		r.logger.Debug("location resolved", "lat", out.Coordinate.Lat, "lng", out.Coordinate.Lng)
	}
	return out
}

func (r *Resolver) interpret(res attempt) Resolution {
	if res.err != nil {
		return fallback(reasonFor(res.err))
	}
	if !Valid(res.pos.Coordinate) {
		return fallback(ReasonUnavailable)
	}
	return Resolution{Coordinate: res.pos.Coordinate, Status: StatusResolved}
}

func fallback(reason Reason) Resolution {
	return Resolution{Coordinate: Fallback, Status: StatusFallback, Reason: reason}
}

func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ReasonDenied
	case errors.Is(err, ErrUnsupported):
		return ReasonUnsupported
	default:
		return ReasonUnavailable
	}
}

// Valid reports whether c is a finite coordinate on the globe.
func Valid(c Coordinate) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return s2.LatLngFromDegrees(c.Lat, c.Lng).IsValid()
}
