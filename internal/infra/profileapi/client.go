package profileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/genui-analytics/internal/domain/profile"
)

const defaultBaseURL = "http://localhost:8000"

// Mode selects how a profile is requested from the backend.
type Mode string

const (
	ModeGet  Mode = "get"
	ModePost Mode = "post"
)

// Client talks to the profile backend.
type Client struct {
	baseURL    string
	mode       Mode
	httpClient *http.Client
}

// NewClient builds a backend client. A zero timeout falls back to 10s.
func NewClient(baseURL string, mode Mode, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if mode != ModePost {
		mode = ModeGet
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		mode:    mode,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchProfile issues the request using the configured mode.
func (c *Client) FetchProfile(ctx context.Context, req profile.Request) (profile.Response, error) {
	if c.mode == ModePost {
		return c.SubmitProfile(ctx, req)
	}
	return c.GetProfile(ctx, req)
}

// GetProfile calls GET /api/profile/{type} with optional vehicle and location parameters.
func (c *Client) GetProfile(ctx context.Context, req profile.Request) (profile.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL(req), nil)
	if err != nil {
		return profile.Response{}, fmt.Errorf("build profile request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	return c.do(httpReq)
}

// SubmitProfile calls POST /api/profile with the request as JSON.
func (c *Client) SubmitProfile(ctx context.Context, req profile.Request) (profile.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return profile.Response{}, fmt.Errorf("encode profile request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/profile", bytes.NewReader(body))
	if err != nil {
		return profile.Response{}, fmt.Errorf("build profile request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	return c.do(httpReq)
}

// Healthy reports whether GET /health answers 200.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	return resp.StatusCode == http.StatusOK
}

func (c *Client) profileURL(req profile.Request) string {
	endpoint := c.baseURL + "/api/profile/" + url.PathEscape(string(req.ProfileType))
	query := url.Values{}
	if req.VehicleType != "" {
		query.Set("vehicle_type", string(req.VehicleType))
	}
	if req.Location != nil {
		query.Set("lat", strconv.FormatFloat(req.Location.Lat, 'f', -1, 64))
		query.Set("lng", strconv.FormatFloat(req.Location.Lng, 'f', -1, 64))
	}
	if len(query) == 0 {
		return endpoint
	}
	return endpoint + "?" + query.Encode()
}

func (c *Client) do(req *http.Request) (profile.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return profile.Response{}, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return profile.Response{}, fmt.Errorf("profile request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var out profile.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return profile.Response{}, fmt.Errorf("decode profile response: %w", err)
	}
	return out, nil
}
