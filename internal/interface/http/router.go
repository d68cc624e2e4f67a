package http

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/genui-analytics/internal/infra/config"
	"github.com/yanqian/genui-analytics/pkg/metrics"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, recorder *metrics.Recorder) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.tmpl")))
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		metricsMiddleware(recorder),
		errorHandlingMiddleware(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/", handler.Index)
	router.POST("/select", handler.SelectProfile)
	router.POST("/select/vehicle", handler.SelectVehicle)
	router.POST("/change", handler.ChangeProfile)
	router.GET("/charts/:index", handler.Chart)
	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/session", handler.GetSession)
		api.POST("/session/events", handler.PostEvent)
		api.GET("/maps/token", handler.MapsToken)
	}

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(recorder.Handler()))
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
