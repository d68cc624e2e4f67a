package geolocate

import (
	"context"
	"time"

	"github.com/yanqian/genui-analytics/internal/domain/location"
)

// BrowserLocator trusts the position the page reported from navigator.geolocation.
type BrowserLocator struct {
	now func() time.Time
}

// NewBrowserLocator builds a locator backed by browser reports.
func NewBrowserLocator() *BrowserLocator {
	return &BrowserLocator{now: time.Now}
}

// CurrentPosition maps the report onto a fix or one of the location sentinel errors.
func (l *BrowserLocator) CurrentPosition(ctx context.Context, device location.Device, _ location.PositionOptions) (location.Position, error) {
	if err := ctx.Err(); err != nil {
		return location.Position{}, location.ErrTimeout
	}
	report := device.Report
	if report == nil || !report.Supported {
		return location.Position{}, location.ErrUnsupported
	}
	if report.Fix != nil {
		return location.Position{Coordinate: *report.Fix, Timestamp: l.now()}, nil
	}
	switch report.ErrorCode {
	case location.CodePermissionDenied:
		return location.Position{}, location.ErrPermissionDenied
	case location.CodeTimeout:
		return location.Position{}, location.ErrTimeout
	default:
		return location.Position{}, location.ErrPositionUnavailable
	}
}

// DisabledLocator is used on deployments without any position source.
type DisabledLocator struct{}

// CurrentPosition always reports the capability as missing.
func (DisabledLocator) CurrentPosition(context.Context, location.Device, location.PositionOptions) (location.Position, error) {
	return location.Position{}, location.ErrUnsupported
}
