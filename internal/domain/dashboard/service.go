package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/genui-analytics/internal/domain/location"
	"github.com/yanqian/genui-analytics/internal/domain/profile"
	apperrors "github.com/yanqian/genui-analytics/pkg/errors"
	"github.com/yanqian/genui-analytics/pkg/metrics"
	"github.com/yanqian/genui-analytics/pkg/util"
)

// Store persists sessions for a bounded time.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Update applies fn to the stored session and saves it unless fn fails.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
}

// LocationResolver is the first pipeline step.
type LocationResolver interface {
	Resolve(ctx context.Context, device location.Device) location.Resolution
}

// Config tunes the view selector.
type Config struct {
	IntroDelay time.Duration
}

// Service drives the view selector and its fetch pipeline.
type Service interface {
	Start(ctx context.Context) (*Session, error)
	Current(ctx context.Context, id string) (*Session, error)
	SelectProfile(ctx context.Context, id, profileType string, device location.Device) (*Session, error)
	SelectVehicle(ctx context.Context, id, vehicleType string, device location.Device) (*Session, error)
	ChangeProfile(ctx context.Context, id string) (*Session, error)
	Apply(ctx context.Context, id string, ev Event, device location.Device) (*Session, error)
}

var errStale = errors.New("stale pipeline result")

type service struct {
	cfg      Config
	store    Store
	resolver LocationResolver
	profiles profile.Service
	metrics  *metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
	spawn    func(func())
}

// NewService wires the dashboard state machine.
func NewService(cfg Config, store Store, resolver LocationResolver, profiles profile.Service, recorder *metrics.Recorder, logger *slog.Logger) Service {
	return newService(cfg, store, resolver, profiles, recorder, logger)
}

func newService(cfg Config, store Store, resolver LocationResolver, profiles profile.Service, recorder *metrics.Recorder, logger *slog.Logger) *service {
	if cfg.IntroDelay < 0 {
		cfg.IntroDelay = 0
	}
	return &service{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		profiles: profiles,
		metrics:  recorder,
		logger:   logger.With("component", "dashboard.service"),
		now:      util.NowUTC,
		spawn:    func(fn func()) { go fn() },
	}
}

func (s *service) Start(ctx context.Context) (*Session, error) {
	sess := newSession(uuid.NewString(), s.now(), s.cfg.IntroDelay)
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, apperrors.Wrap("session_store_failed", "failed to create session", err)
	}
	s.logger.Info("session started", "session_id", sess.ID)
	return sess, nil
}

func (s *service) Current(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(err)
	}
	if sess.State != StateIntro || s.now().Before(sess.IntroUntil) {
		return sess, nil
	}
	sess, err = s.store.Update(ctx, id, func(cur *Session) error {
		advance(cur, s.now())
		return nil
	})
	if err != nil {
		return nil, s.storeError(err)
	}
	return sess, nil
}

func (s *service) SelectProfile(ctx context.Context, id, profileType string, device location.Device) (*Session, error) {
	return s.Apply(ctx, id, Event{Type: EventSelectProfile, Value: profileType}, device)
}

func (s *service) SelectVehicle(ctx context.Context, id, vehicleType string, device location.Device) (*Session, error) {
	return s.Apply(ctx, id, Event{Type: EventSelectVehicle, Value: vehicleType}, device)
}

func (s *service) ChangeProfile(ctx context.Context, id string) (*Session, error) {
	return s.Apply(ctx, id, Event{Type: EventChangeProfile}, location.Device{})
}

func (s *service) Apply(ctx context.Context, id string, ev Event, device location.Device) (*Session, error) {
	var entered bool
	sess, err := s.store.Update(ctx, id, func(cur *Session) error {
		now := s.now()
		advance(cur, now)
		var err error
		entered, err = apply(cur, ev, now)
		return err
	})
	if err != nil {
		if apperrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, s.storeError(err)
	}

	s.logger.Info("session event applied", "session_id", id, "event", ev.Type, "value", ev.Value, "state", sess.State, "token", sess.Token)
	if entered {
		req := *sess.Request
		token := sess.Token
		pipelineCtx := context.WithoutCancel(ctx)
		s.spawn(func() { s.runPipeline(pipelineCtx, id, token, req, device) })
	}
	return sess, nil
}

// runPipeline resolves the location, then fetches the profile. Each step commits only
// while the session still shows the profile entry that started it.
func (s *service) runPipeline(ctx context.Context, id string, token uint64, req profile.Request, device location.Device) {
	res := s.resolver.Resolve(ctx, device)
	s.commit(ctx, id, token, "location", func(cur *Session) {
		cur.Location = &res
		cur.Phase = PhaseFetching
	})

	req.Location = &profile.Coordinate{Lat: res.Coordinate.Lat, Lng: res.Coordinate.Lng}
	result := s.profiles.Load(ctx, req)
	s.commit(ctx, id, token, "profile", func(cur *Session) {
		resp := result.Response
		cur.Response = &resp
		cur.Phase = PhaseReady
		cur.FetchError = ""
		if result.Failed() {
			cur.FetchError = apperrors.CodeOf(result.Err)
		}
	})
}

func (s *service) commit(ctx context.Context, id string, token uint64, step string, mutate func(*Session)) {
	_, err := s.store.Update(ctx, id, func(cur *Session) error {
		if !accepts(cur, token) {
			return errStale
		}
		mutate(cur)
		cur.UpdatedAt = s.now()
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errStale):
		s.metrics.StaleCommit()
		s.logger.Info("discarding stale pipeline result", "session_id", id, "step", step, "token", token)
	default:
		s.logger.Error("pipeline commit failed", "session_id", id, "step", step, "token", token, "error", err)
	}
}

func (s *service) storeError(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return apperrors.Wrap("session_not_found", "session not found", err)
	}
	return apperrors.Wrap("session_store_failed", "session store failure", err)
}
