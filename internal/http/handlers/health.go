package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler separates liveness from readiness: readyz fails when a
// backing store cannot be reached so load balancers stop routing here.
type HealthHandler struct {
	pings map[string]func(context.Context) error
}

func NewHealthHandler(pings map[string]func(context.Context) error) *HealthHandler {
	return &HealthHandler{pings: pings}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	checks := make(gin.H, len(h.pings))
	ready := true

	for name, ping := range h.pings {
		if ping == nil {
			continue
		}

		pctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		err := ping(pctx)
		cancel()

		if err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}

		checks[name] = "ok"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
