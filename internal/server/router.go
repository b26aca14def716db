// Package server exposes a running monitor over HTTP.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusFunc returns a JSON-serializable view of the monitor.
type StatusFunc func() any

// Router provides embeddable HTTP handlers for inspecting a monitor.
// Endpoints:
//
//	GET {basePath}/status   monitor status as JSON
//	GET {basePath}/metrics  Prometheus exposition
//	GET {basePath}/healthz  liveness
//
// basePath is optional; it is normalized to a leading slash and no
// trailing slash.
type Router struct {
	status   StatusFunc
	metrics  http.Handler
	basePath string
}

// NewRouter builds a router. metrics may be nil to omit /metrics.
func NewRouter(status StatusFunc, metrics http.Handler, basePath string) *Router {
	return &Router{status: status, metrics: metrics, basePath: cleanBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.GET("/healthz", r.handleHealth)
	if r.metrics != nil {
		group.GET("/metrics", gin.WrapH(r.metrics))
	}
	return g
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleStatus(c *gin.Context) {
	if r.status == nil {
		writeJSON(c, http.StatusServiceUnavailable, errorResp{Error: "status unavailable"})
		return
	}
	writeJSON(c, http.StatusOK, r.status())
}

func (r *Router) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, okResp{OK: true})
}
