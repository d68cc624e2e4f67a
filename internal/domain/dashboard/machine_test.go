package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/genui-analytics/internal/domain/profile"
	apperrors "github.com/yanqian/genui-analytics/pkg/errors"
)

func TestAdvanceAfterIntroDelay(t *testing.T) {
	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	s := newSession("s1", start, 4*time.Second)

	require.False(t, advance(s, start.Add(3999*time.Millisecond)))
	require.Equal(t, StateIntro, s.State)

	require.True(t, advance(s, start.Add(4*time.Second)))
	require.Equal(t, StateSelecting, s.State)

	require.False(t, advance(s, start.Add(time.Hour)))
}

func TestSelectDriverRequiresVehicle(t *testing.T) {
	now := time.Now()
	s := &Session{State: StateSelecting}

	entered, err := selectProfile(s, "driver", now)
	require.NoError(t, err)
	require.False(t, entered)
	require.True(t, s.PendingDriver)
	require.Equal(t, StateSelecting, s.State)

	entered, err = selectVehicle(s, "ev", now)
	require.NoError(t, err)
	require.True(t, entered)
	require.Equal(t, StateProfile, s.State)
	require.Equal(t, &profile.Request{ProfileType: profile.Driver, VehicleType: profile.VehicleEV}, s.Request)
	require.Equal(t, uint64(1), s.Token)
	require.Equal(t, PhaseLocating, s.Phase)
}

func TestSelectCommuterHasNoVehicle(t *testing.T) {
	s := &Session{State: StateSelecting}

	entered, err := selectProfile(s, "commuter", time.Now())

	require.NoError(t, err)
	require.True(t, entered)
	require.Equal(t, &profile.Request{ProfileType: profile.Commuter}, s.Request)
}

func TestInvalidEvents(t *testing.T) {
	now := time.Now()

	_, err := selectProfile(&Session{State: StateIntro}, "tourist", now)
	require.True(t, apperrors.IsCode(err, "invalid_transition"))

	_, err = selectVehicle(&Session{State: StateSelecting}, "ev", now)
	require.True(t, apperrors.IsCode(err, "invalid_transition"))

	_, err = selectProfile(&Session{State: StateSelecting}, "pilot", now)
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = selectVehicle(&Session{State: StateSelecting, PendingDriver: true}, "truck", now)
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	err = changeProfile(&Session{State: StateSelecting}, now)
	require.True(t, apperrors.IsCode(err, "invalid_transition"))

	_, err = apply(&Session{State: StateSelecting}, Event{Type: "dance"}, now)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestChangeProfileInvalidatesToken(t *testing.T) {
	now := time.Now()
	s := &Session{State: StateSelecting}
	_, err := selectProfile(s, "tourist", now)
	require.NoError(t, err)
	token := s.Token
	require.True(t, accepts(s, token))

	require.NoError(t, changeProfile(s, now))
	require.False(t, accepts(s, token))
	require.Equal(t, StateSelecting, s.State)

	_, err = selectProfile(s, "commuter", now)
	require.NoError(t, err)
	require.False(t, accepts(s, token))
	require.True(t, accepts(s, token+1))
}

func TestChangeProfileBacksOutOfVehicleStep(t *testing.T) {
	now := time.Now()
	s := &Session{State: StateSelecting}
	_, err := selectProfile(s, "driver", now)
	require.NoError(t, err)
	require.True(t, s.PendingDriver)

	require.NoError(t, changeProfile(s, now))
	require.Equal(t, StateSelecting, s.State)
	require.False(t, s.PendingDriver)
	require.Zero(t, s.Token)

	entered, err := selectProfile(s, "commuter", now)
	require.NoError(t, err)
	require.True(t, entered)
	require.Equal(t, &profile.Request{ProfileType: profile.Commuter}, s.Request)

	_, err = selectVehicle(&Session{State: StateSelecting}, "car", now)
	require.True(t, apperrors.IsCode(err, "invalid_transition"))
}

func TestPhaseLoadingText(t *testing.T) {
	require.Equal(t, "Getting your location...", PhaseLocating.LoadingText())
	require.Equal(t, "Loading your personalized dashboard...", PhaseFetching.LoadingText())
	require.Empty(t, PhaseReady.LoadingText())
}
