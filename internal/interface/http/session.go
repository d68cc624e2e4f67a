package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/genui-analytics/internal/domain/dashboard"
	"github.com/yanqian/genui-analytics/internal/domain/location"
	apperrors "github.com/yanqian/genui-analytics/pkg/errors"
)

// session loads the visitor's session, starting a new one when the cookie is missing or stale.
func (h *Handler) session(c *gin.Context) (*dashboard.Session, error) {
	ctx := c.Request.Context()
	if id, err := c.Cookie(h.cfg.CookieName); err == nil && id != "" {
		sess, err := h.dashboard.Current(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !apperrors.IsCode(err, "session_not_found") {
			return nil, err
		}
		h.logger.Info("session expired, starting a new one", "session_id", id)
	}

	sess, err := h.dashboard.Start(ctx)
	if err != nil {
		return nil, err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, sess.ID, int(h.cfg.CookieTTL.Seconds()), "/", "", h.cfg.SecureCookie, true)
	return sess, nil
}

// deviceFromForm reads the geolocation report the page attached to a form post.
func deviceFromForm(c *gin.Context) location.Device {
	device := location.Device{RemoteIP: c.ClientIP()}
	supported, ok := c.GetPostForm("geo_supported")
	if !ok {
		return device
	}
	report := &location.Report{Supported: supported == "1" || strings.EqualFold(supported, "true")}
	lat, latErr := strconv.ParseFloat(c.PostForm("geo_lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.PostForm("geo_lng"), 64)
	if latErr == nil && lngErr == nil {
		report.Fix = &location.Coordinate{Lat: lat, Lng: lng}
	}
	if code, err := strconv.Atoi(c.PostForm("geo_error")); err == nil {
		report.ErrorCode = code
	}
	device.Report = report
	return device
}

// geoReport is the JSON form of a browser geolocation result.
type geoReport struct {
	Supported bool     `json:"supported"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	ErrorCode int      `json:"error_code,omitempty"`
}

func (r *geoReport) device(remoteIP string) location.Device {
	device := location.Device{RemoteIP: remoteIP}
	if r == nil {
		return device
	}
	report := &location.Report{Supported: r.Supported, ErrorCode: r.ErrorCode}
	if r.Lat != nil && r.Lng != nil {
		report.Fix = &location.Coordinate{Lat: *r.Lat, Lng: *r.Lng}
	}
	device.Report = report
	return device
}
