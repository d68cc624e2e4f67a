package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/genui-analytics/internal/domain/dashboard"
	"github.com/yanqian/genui-analytics/internal/domain/location"
	"github.com/yanqian/genui-analytics/internal/domain/profile"
	"github.com/yanqian/genui-analytics/internal/domain/render"
)

type sessionPayload struct {
	ID            string               `json:"id"`
	State         dashboard.State      `json:"state"`
	Phase         dashboard.Phase      `json:"phase,omitempty"`
	LoadingText   string               `json:"loading_text,omitempty"`
	PendingDriver bool                 `json:"pending_driver"`
	Title         string               `json:"title,omitempty"`
	Request       *profile.Request     `json:"request,omitempty"`
	Location      *location.Resolution `json:"location,omitempty"`
	Banner        string               `json:"banner,omitempty"`
	Blocks        []render.Block       `json:"blocks"`
	FetchError    string               `json:"fetch_error,omitempty"`
	IntroUntil    time.Time            `json:"intro_until"`
}

type eventRequest struct {
	Type     dashboard.EventType `json:"type" binding:"required"`
	Value    string              `json:"value"`
	Location *geoReport          `json:"location"`
}

// GetSession returns the session state and, once loaded, its rendered blocks.
func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.session(c)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, newSessionPayload(sess))
}

// PostEvent applies a user action to the session.
func (h *Handler) PostEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	sess, err := h.session(c)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	ev := dashboard.Event{Type: req.Type, Value: req.Value}
	updated, err := h.dashboard.Apply(c.Request.Context(), sess.ID, ev, req.Location.device(c.ClientIP()))
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, newSessionPayload(updated))
}

func newSessionPayload(sess *dashboard.Session) sessionPayload {
	payload := sessionPayload{
		ID:            sess.ID,
		State:         sess.State,
		Phase:         sess.Phase,
		LoadingText:   sess.Phase.LoadingText(),
		PendingDriver: sess.PendingDriver,
		Title:         sess.Title(),
		Request:       sess.Request,
		Location:      sess.Location,
		Blocks:        []render.Block{},
		FetchError:    sess.FetchError,
		IntroUntil:    sess.IntroUntil,
	}
	if sess.Location != nil {
		payload.Banner = sess.Location.Banner()
	}
	if sess.State == dashboard.StateProfile && sess.Response != nil && !sess.Loading() {
		payload.Blocks = render.Schema(*sess.Response)
	}
	return payload
}
