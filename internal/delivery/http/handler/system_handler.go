package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"kernex-dashboard/internal/fleet/service"
	"kernex-dashboard/internal/liveness"
	"kernex-dashboard/pkg/utils"
)

// LivenessReporter exposes the cached backend liveness.
type LivenessReporter interface {
	IsBackendHealthy(ctx context.Context) bool
	Snapshot() liveness.State
}

type SystemHandler struct {
	service  *service.Service
	liveness LivenessReporter
	tracker  *service.FetchTracker
}

func NewSystemHandler(svc *service.Service, live LivenessReporter, tracker *service.FetchTracker) *SystemHandler {
	return &SystemHandler{service: svc, liveness: live, tracker: tracker}
}

func (h *SystemHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/liveness", h.Liveness)
	router.GET("/stats", h.Stats)
	router.GET("/diagnostics", h.Diagnostics)
}

type livenessResponse struct {
	liveness.State
	FallbackEnabled bool `json:"fallbackEnabled"`
}

// Liveness answers from the cache, probing only when the cached answer
// has expired.
func (h *SystemHandler) Liveness(c *gin.Context) {
	h.liveness.IsBackendHealthy(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Liveness retrieved successfully", livenessResponse{
		State:           h.liveness.Snapshot(),
		FallbackEnabled: h.service.FallbackEnabled(),
	})
}

func (h *SystemHandler) Stats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Fetch statistics retrieved successfully", h.tracker.Snapshot())
}

func (h *SystemHandler) Diagnostics(c *gin.Context) {
	report := h.service.Diagnostics(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Diagnostics completed", report)
}
