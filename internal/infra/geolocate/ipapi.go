package geolocate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/yanqian/genui-analytics/internal/domain/location"
)

const defaultIPAPIBaseURL = "http://ip-api.com"

// IPAPILocator approximates the position from the requester's public IP.
type IPAPILocator struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewIPAPILocator builds an ip-api.com style lookup client.
func NewIPAPILocator(baseURL string) *IPAPILocator {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultIPAPIBaseURL
	}
	return &IPAPILocator{
		baseURL: strings.TrimRight(base, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

type ipapiResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CurrentPosition looks up device.RemoteIP.
func (l *IPAPILocator) CurrentPosition(ctx context.Context, device location.Device, opts location.PositionOptions) (location.Position, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(device.RemoteIP))
	if err != nil {
		return location.Position{}, fmt.Errorf("%w: unparsable remote address %q", location.ErrPositionUnavailable, device.RemoteIP)
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
		return location.Position{}, fmt.Errorf("%w: non-routable address %s", location.ErrPositionUnavailable, addr)
	}

	endpoint := fmt.Sprintf("%s/json/%s?fields=status,message,lat,lon", l.baseURL, addr.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return location.Position{}, fmt.Errorf("build ip lookup request: %w", err)
	}
	if opts.MaximumAge == 0 {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return location.Position{}, location.ErrTimeout
		}
		return location.Position{}, fmt.Errorf("%w: %v", location.ErrPositionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return location.Position{}, fmt.Errorf("%w: status=%d body=%s", location.ErrPositionUnavailable, resp.StatusCode, string(payload))
	}

	var raw ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return location.Position{}, fmt.Errorf("%w: decode ip lookup: %v", location.ErrPositionUnavailable, err)
	}
	if raw.Status != "success" {
		return location.Position{}, fmt.Errorf("%w: %s", location.ErrPositionUnavailable, raw.Message)
	}
	return location.Position{
		Coordinate: location.Coordinate{Lat: raw.Lat, Lng: raw.Lon},
		Timestamp:  l.now(),
	}, nil
}
