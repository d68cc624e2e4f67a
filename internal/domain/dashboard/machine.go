package dashboard

import (
	"fmt"
	"time"

	"github.com/yanqian/genui-analytics/internal/domain/profile"
	apperrors "github.com/yanqian/genui-analytics/pkg/errors"
)

// newSession starts a visitor on the intro screen.
func newSession(id string, now time.Time, introDelay time.Duration) *Session {
	return &Session{
		ID:         id,
		State:      StateIntro,
		StartedAt:  now,
		IntroUntil: now.Add(introDelay),
		UpdatedAt:  now,
	}
}

// advance fires the timed intro transition. It reports whether the session changed.
func advance(s *Session, now time.Time) bool {
	if s.State != StateIntro || now.Before(s.IntroUntil) {
		return false
	}
	s.State = StateSelecting
	s.UpdatedAt = now
	return true
}

// selectProfile handles a profile choice. A driver choice only arms the vehicle step.
func selectProfile(s *Session, raw string, now time.Time) (entered bool, err error) {
	if s.State != StateSelecting {
		return false, invalidTransition("select a profile", s.State)
	}
	pt, err := profile.ParseProfileType(raw)
	if err != nil {
		return false, apperrors.Wrap("invalid_input", "unknown profile type", err)
	}
	if pt == profile.Driver {
		s.PendingDriver = true
		s.UpdatedAt = now
		return false, nil
	}
	enterProfile(s, profile.Request{ProfileType: pt}, now)
	return true, nil
}

// selectVehicle completes the driver choice.
func selectVehicle(s *Session, raw string, now time.Time) (bool, error) {
	if s.State != StateSelecting || !s.PendingDriver {
		return false, invalidTransition("select a vehicle", s.State)
	}
	vt, err := profile.ParseVehicleType(raw)
	if err != nil {
		return false, apperrors.Wrap("invalid_input", "unknown vehicle type", err)
	}
	enterProfile(s, profile.Request{ProfileType: profile.Driver, VehicleType: vt}, now)
	return true, nil
}

// changeProfile returns to the profile choice, either from a profile view or from the vehicle step.
// The in-flight pipeline keeps running but can no longer commit.
func changeProfile(s *Session, now time.Time) error {
	backFromVehicle := s.State == StateSelecting && s.PendingDriver
	if s.State != StateProfile && !backFromVehicle {
		return invalidTransition("change profile", s.State)
	}
	s.State = StateSelecting
	s.PendingDriver = false
	s.Phase = PhaseIdle
	s.UpdatedAt = now
	return nil
}

func enterProfile(s *Session, req profile.Request, now time.Time) {
	s.Token++
	s.State = StateProfile
	s.PendingDriver = false
	s.Request = &req
	s.Phase = PhaseLocating
	s.Location = nil
	s.Response = nil
	s.FetchError = ""
	s.UpdatedAt = now
}

// apply dispatches a JSON API event.
func apply(s *Session, ev Event, now time.Time) (bool, error) {
	switch ev.Type {
	case EventSelectProfile:
		return selectProfile(s, ev.Value, now)
	case EventSelectVehicle:
		return selectVehicle(s, ev.Value, now)
	case EventChangeProfile:
		return false, changeProfile(s, now)
	default:
		return false, apperrors.Wrap("invalid_input", fmt.Sprintf("unknown event type %q", ev.Type), nil)
	}
}

// accepts reports whether a pipeline step issued under token may still commit.
func accepts(s *Session, token uint64) bool {
	return s.State == StateProfile && s.Token == token
}

func invalidTransition(action string, state State) error {
	return apperrors.Wrap("invalid_transition", fmt.Sprintf("cannot %s while in %s state", action, state), nil)
}
