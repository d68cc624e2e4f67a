package dashboard

import (
	"errors"
	"time"

	"github.com/yanqian/genui-analytics/internal/domain/location"
	"github.com/yanqian/genui-analytics/internal/domain/profile"
)

// State is the top-level view of a session.
type State string

const (
	StateIntro     State = "intro"
	StateSelecting State = "selecting"
	StateProfile   State = "profile"
)

// Phase tracks the fetch pipeline while in StateProfile.
type Phase string

const (
	PhaseIdle     Phase = ""
	PhaseLocating Phase = "locating"
	PhaseFetching Phase = "fetching"
	PhaseReady    Phase = "ready"
)

// LoadingText is the status line shown while the pipeline runs.
func (p Phase) LoadingText() string {
	switch p {
	case PhaseLocating:
		return "Getting your location..."
	case PhaseFetching:
		return "Loading your personalized dashboard..."
	default:
		return ""
	}
}

// Session is the per-visitor view state.
type Session struct {
	ID            string               `json:"id"`
	State         State                `json:"state"`
	StartedAt     time.Time            `json:"started_at"`
	IntroUntil    time.Time            `json:"intro_until"`
	PendingDriver bool                 `json:"pending_driver"`
	Request       *profile.Request     `json:"request,omitempty"`
	Token         uint64               `json:"token"`
	Phase         Phase                `json:"phase,omitempty"`
	Location      *location.Resolution `json:"location,omitempty"`
	Response      *profile.Response    `json:"response,omitempty"`
	FetchError    string               `json:"fetch_error,omitempty"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Loading reports whether the profile view is still waiting for data.
func (s *Session) Loading() bool {
	return s.State == StateProfile && s.Phase != PhaseReady
}

// Title is the heading of the current profile view.
func (s *Session) Title() string {
	if s.Request == nil {
		return ""
	}
	return s.Request.Title()
}

// EventType names a user action.
type EventType string

const (
	EventSelectProfile EventType = "select_profile"
	EventSelectVehicle EventType = "select_vehicle"
	EventChangeProfile EventType = "change_profile"
)

// Event is a user action sent through the JSON API.
type Event struct {
	Type  EventType `json:"type"`
	Value string    `json:"value,omitempty"`
}

// ErrSessionNotFound is returned by stores for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")
