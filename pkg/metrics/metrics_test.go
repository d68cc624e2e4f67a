package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.ProfileFetch("commuter", false)
	r.ProfileFetch("commuter", true)
	r.ProfileFetch("commuter", true)
	r.LocationResolved("fallback", "denied")
	r.StaleCommit()

	require.Equal(t, 1.0, testutil.ToFloat64(r.profileFetches.WithLabelValues("commuter", "ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(r.profileFetches.WithLabelValues("commuter", "fallback")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.locationResults.WithLabelValues("fallback", "denied")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.staleCommits))
}

func TestRecorderHandlerExposesHTTPMetrics(t *testing.T) {
	r := New()
	r.ObserveHTTP(http.MethodGet, "/", http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/",status="200"} 1`)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	require.NotPanics(t, func() {
		r.ProfileFetch("tourist", true)
		r.LocationResolved("resolved", "")
		r.StaleCommit()
		r.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})
}
