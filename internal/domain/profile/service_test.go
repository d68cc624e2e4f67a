package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/genui-analytics/pkg/errors"
)

func TestServiceLoadSuccess(t *testing.T) {
	msg := "Traffic is light"
	fetcher := &stubFetcher{resp: Response{Message: &msg, Stats: []Stat{{Label: "Average Commute", Value: "32 min"}}}}
	svc := NewService(fetcher, nil, newTestLogger())

	res := svc.Load(context.Background(), Request{ProfileType: Commuter})

	require.False(t, res.Failed())
	require.NoError(t, res.Err)
	require.Equal(t, "Traffic is light", *res.Response.Message)
	require.NotNil(t, res.Response.Charts)
	require.Equal(t, 1, fetcher.calls)
	require.Equal(t, Request{ProfileType: Commuter}, fetcher.last)
}

func TestServiceLoadFailureYieldsFallback(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("dial tcp: connection refused")}
	svc := NewService(fetcher, nil, newTestLogger())

	res := svc.Load(context.Background(), Request{ProfileType: Tourist})

	require.True(t, res.Failed())
	require.True(t, apperrors.IsCode(res.Err, "fetch_failed"))
	require.Empty(t, res.Response.Charts)
	require.NotNil(t, res.Response.Charts)
	require.Equal(t, []Stat{{Label: "Error", Value: "Failed to fetch data. Please try again."}}, res.Response.Stats)
	require.True(t, IsFallback(res.Response))
}

func TestServiceLoadRejectsInvalidRequestWithoutFetching(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := NewService(fetcher, nil, newTestLogger())

	res := svc.Load(context.Background(), Request{ProfileType: Driver})

	require.True(t, res.Failed())
	require.True(t, apperrors.IsCode(res.Err, "invalid_input"))
	require.True(t, IsFallback(res.Response))
	require.Zero(t, fetcher.calls)
}

func TestIsFallbackIgnoresRealErrorLikeData(t *testing.T) {
	resp := Response{Charts: []Chart{}, Stats: []Stat{{Label: "Error", Value: "Please select a vehicle type"}}}
	require.False(t, IsFallback(resp))
}

type stubFetcher struct {
	resp  Response
	err   error
	calls int
	last  Request
}

func (s *stubFetcher) FetchProfile(ctx context.Context, req Request) (Response, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return Response{}, s.err
	}
	return s.resp, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
