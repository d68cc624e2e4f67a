package geolocate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/genui-analytics/internal/domain/location"
)

func TestBrowserLocator(t *testing.T) {
	fix := location.Coordinate{Lat: 12.97, Lng: 77.59}
	cases := []struct {
		name    string
		report  *location.Report
		wantErr error
	}{
		{name: "no report", report: nil, wantErr: location.ErrUnsupported},
		{name: "unsupported", report: &location.Report{Supported: false}, wantErr: location.ErrUnsupported},
		{name: "denied", report: &location.Report{Supported: true, ErrorCode: 1}, wantErr: location.ErrPermissionDenied},
		{name: "unavailable", report: &location.Report{Supported: true, ErrorCode: 2}, wantErr: location.ErrPositionUnavailable},
		{name: "timeout", report: &location.Report{Supported: true, ErrorCode: 3}, wantErr: location.ErrTimeout},
		{name: "fix", report: &location.Report{Supported: true, Fix: &fix}},
	}
	locator := NewBrowserLocator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := locator.CurrentPosition(context.Background(), location.Device{Report: tc.report}, location.DefaultOptions())
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, fix, pos.Coordinate)
		})
	}
}

func TestDisabledLocator(t *testing.T) {
	_, err := DisabledLocator{}.CurrentPosition(context.Background(), location.Device{}, location.DefaultOptions())
	require.ErrorIs(t, err, location.ErrUnsupported)
}

func TestIPAPILocatorLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/json/8.8.8.8", r.URL.Path)
		require.Equal(t, "status,message,lat,lon", r.URL.Query().Get("fields"))
		require.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		_, _ = w.Write([]byte(`{"status":"success","lat":37.386,"lon":-122.0838}`))
	}))
	defer srv.Close()

	pos, err := NewIPAPILocator(srv.URL).CurrentPosition(context.Background(), location.Device{RemoteIP: "8.8.8.8"}, location.DefaultOptions())

	require.NoError(t, err)
	require.Equal(t, location.Coordinate{Lat: 37.386, Lng: -122.0838}, pos.Coordinate)
}

func TestIPAPILocatorFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	}))
	defer srv.Close()
	locator := NewIPAPILocator(srv.URL)

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "::1", "not-an-ip", "1.1.1.1"} {
		_, err := locator.CurrentPosition(context.Background(), location.Device{RemoteIP: ip}, location.DefaultOptions())
		require.ErrorIs(t, err, location.ErrPositionUnavailable, ip)
	}
}

func TestNewProvider(t *testing.T) {
	loc, err := New("", "")
	require.NoError(t, err)
	require.IsType(t, &BrowserLocator{}, loc)

	loc, err = New("IPAPI", "")
	require.NoError(t, err)
	require.IsType(t, &IPAPILocator{}, loc)

	loc, err = New("disabled", "")
	require.NoError(t, err)
	require.IsType(t, DisabledLocator{}, loc)

	_, err = New("gps", "")
	require.Error(t, err)
}
