package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "ml-pipelines/docs"
	"ml-pipelines/internal/api/handler"
	"ml-pipelines/internal/metrics"
	"ml-pipelines/pkg/router"
)

// NewRouter builds the service router with request metrics applied.
func NewRouter(h *handler.Handler) *router.Router {
	r := router.New()
	r.Use(metrics.Middleware)
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/pipelines/covertype", h.CompileCovertype)
	r.POST("/api/v1/pipelines/tfx", h.CompileTFX)
	r.GET("/api/v1/pipelines", h.ListPipelines)
	// More specific routes first
	r.GET("/api/v1/pipelines/*/workflow", h.GetWorkflow)
	r.GET("/api/v1/pipelines/*/errors", h.GetPipelineErrors)
	// Generic pipeline route last
	r.GET("/api/v1/pipelines/*", h.GetPipeline)

	r.POST("/api/v1/sampling/query", h.SamplingQuery)

	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle(http.MethodGet, "/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
