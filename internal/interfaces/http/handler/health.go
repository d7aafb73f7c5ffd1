package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
)

// readinessTimeout bounds all dependency checks of one probe
const readinessTimeout = 3 * time.Second

// HealthCheck probes one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	version   string
	startTime time.Time
	checks    []HealthCheck
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, startTime: time.Now(), checks: checks}
}

// HealthResponse is the body of both probes
type HealthResponse struct {
	Status    string            `json:"status" example:"ok"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) base(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
}

// Live godoc
// @Summary      Liveness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.base("ok")))
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Pings the database and the other configured dependencies
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	resp := h.base("ok")
	resp.Checks = make(map[string]string, len(h.checks))
	healthy := true
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			resp.Checks[check.Name] = err.Error()
			healthy = false
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	if !healthy {
		resp.Status = "unavailable"
		body := dto.NewErrorResponse(dto.CodeUnavailable, "One or more dependencies are unavailable", middleware.GetRequestID(c))
		body.Error.Details = resp.Checks
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
