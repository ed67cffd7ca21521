package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salonsuite/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler handles health and system information endpoints
type SystemHandler struct {
	BaseHandler
	db        Pinger
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers the system routes on the given group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/health", h.Health)
		system.GET("/info", h.Info)
	}
}

// HealthResponse reports service and dependency health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health checks the service and its database connection
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok"}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
			return
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// InfoResponse represents the system information response
type InfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Info returns basic system information
func (h *SystemHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(InfoResponse{
		Name:      "SalonSuite Tab Engine",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}
