package location

import (
	"errors"
	"time"
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fallback is used whenever the device position cannot be obtained.
var Fallback = Coordinate{Lat: 13.0827, Lng: 80.2707}

// PositionOptions mirrors the options handed to a geolocation query.
type PositionOptions struct {
	HighAccuracy bool          `json:"enableHighAccuracy"`
	Timeout      time.Duration `json:"-"`
	MaximumAge   time.Duration `json:"-"`
}

// DefaultOptions asks for a fresh, precise fix within five seconds.
func DefaultOptions() PositionOptions {
	return PositionOptions{
		HighAccuracy: true,
		Timeout:      5 * time.Second,
		MaximumAge:   0,
	}
}

// W3C geolocation error codes as reported by the browser.
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// Report is what the browser observed when it ran its own position query.
type Report struct {
	Supported bool
	Fix       *Coordinate
	ErrorCode int
}

// Device identifies the requester for locators.
type Device struct {
	RemoteIP string
	Report   *Report
}

// Position is a successful fix.
type Position struct {
	Coordinate Coordinate
	Accuracy   float64
	Timestamp  time.Time
}

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("location unavailable")
	ErrTimeout             = errors.New("location request timed out")
	ErrUnsupported         = errors.New("geolocation not supported")
)

// Status tells whether the coordinate came from the device.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusFallback Status = "fallback"
)

// Reason explains a fallback. It is informational only.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonDenied      Reason = "denied"
	ReasonUnavailable Reason = "unavailable"
	ReasonUnsupported Reason = "unsupported"
)

// Resolution is the outcome of one resolve attempt.
type Resolution struct {
	Coordinate Coordinate `json:"coordinate"`
	Status     Status     `json:"status"`
	Reason     Reason     `json:"reason,omitempty"`
}

// Banner is the text shown to the user after a fallback.
func (r Resolution) Banner() string {
	if r.Status != StatusFallback {
		return ""
	}
	switch r.Reason {
	case ReasonDenied:
		return "Location access denied. Using default location."
	case ReasonUnsupported:
		return "Your browser does not support geolocation. Using default location."
	default:
		return "Could not get your location. Using default location."
	}
}
