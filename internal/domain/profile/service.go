package profile

import (
	"context"
	"log/slog"

	apperrors "github.com/yanqian/genui-analytics/pkg/errors"
	"github.com/yanqian/genui-analytics/pkg/metrics"
)

// FallbackErrorLabel and FallbackErrorMessage form the sentinel stat shown when a fetch fails.
const (
	FallbackErrorLabel   = "Error"
	FallbackErrorMessage = "Failed to fetch data. Please try again."
)

// Fetcher retrieves a profile payload from the backend.
type Fetcher interface {
	FetchProfile(ctx context.Context, req Request) (Response, error)
}

// Service loads profile payloads for the dashboard.
type Service interface {
	Load(ctx context.Context, req Request) Result
}

// Result keeps the failure explicit while still carrying a renderable payload.
type Result struct {
	Response Response
	Err      error
}

// Failed reports whether Response is the fallback payload.
func (r Result) Failed() bool {
	return r.Err != nil
}

type service struct {
	fetcher Fetcher
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewService wires the profile domain to a backend fetcher.
func NewService(fetcher Fetcher, recorder *metrics.Recorder, logger *slog.Logger) Service {
	return &service{
		fetcher: fetcher,
		metrics: recorder,
		logger:  logger.With("component", "profile.service"),
	}
}

func (s *service) Load(ctx context.Context, req Request) Result {
	if err := req.Validate(); err != nil {
		s.metrics.ProfileFetch(string(req.ProfileType), true)
		s.logger.Warn("profile request rejected", "profile_type", req.ProfileType, "vehicle_type", req.VehicleType, "error", err)
		return Result{Response: FallbackResponse(), Err: apperrors.Wrap("invalid_input", "invalid profile request", err)}
	}

	resp, err := s.fetcher.FetchProfile(ctx, req)
	if err != nil {
		s.metrics.ProfileFetch(string(req.ProfileType), true)
		s.logger.Error("profile fetch failed", "profile_type", req.ProfileType, "vehicle_type", req.VehicleType, "error", err)
		return Result{Response: FallbackResponse(), Err: apperrors.Wrap("fetch_failed", "failed to fetch profile data", err)}
	}
	if resp.Charts == nil {
		resp.Charts = []Chart{}
	}
	if resp.Stats == nil {
		resp.Stats = []Stat{}
	}

	s.metrics.ProfileFetch(string(req.ProfileType), false)
	s.logger.Info("profile fetched", "profile_type", req.ProfileType, "charts", len(resp.Charts), "stats", len(resp.Stats), "has_map", resp.Map != nil)
	return Result{Response: resp}
}

// FallbackResponse is the payload shown in place of data when a fetch fails.
func FallbackResponse() Response {
	return Response{
		Charts: []Chart{},
		Stats: []Stat{
			{Label: FallbackErrorLabel, Value: FallbackErrorMessage},
		},
	}
}

// IsFallback detects the sentinel payload for callers that only hold a Response.
func IsFallback(resp Response) bool {
	return resp.Map == nil &&
		resp.Message == nil &&
		len(resp.Charts) == 0 &&
		len(resp.Stats) == 1 &&
		resp.Stats[0].Label == FallbackErrorLabel &&
		resp.Stats[0].Value == FallbackErrorMessage
}
