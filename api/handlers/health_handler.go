package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/tunedrop/internal/app"
	"github.com/yourusername/tunedrop/internal/domain"
)

// CapabilityReader exposes the last stored capability snapshot
type CapabilityReader interface {
	Current() *domain.CapabilitySnapshot
}

// HealthHandler handles health, readiness and capability requests
type HealthHandler struct {
	probe   CapabilityReader
	library *app.Library
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(probe CapabilityReader, library *app.Library, version string) *HealthHandler {
	return &HealthHandler{
		probe:   probe,
		library: library,
		version: version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string               `json:"status"`
	Version string               `json:"version"`
	Stats   *domain.LibraryStats `json:"stats,omitempty"`
}

// CapabilitiesResponse describes the downloader binary
type CapabilitiesResponse struct {
	Probed   bool       `json:"probed"`
	Known    bool       `json:"known"`
	Version  *string    `json:"version"`
	Flags    []string   `json:"flags"`
	ProbedAt *time.Time `json:"probedAt,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "awake",
		Version: h.version,
	}
	if stats, err := h.library.Stats(c.Request.Context()); err == nil {
		response.Stats = stats
	}

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.probe.Current() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "capability probe has not finished",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Capabilities handles GET /api/v1/capabilities
func (h *HealthHandler) Capabilities(c *gin.Context) {
	snap := h.probe.Current()
	if snap == nil {
		c.JSON(http.StatusOK, CapabilitiesResponse{Flags: []string{}})
		return
	}

	c.JSON(http.StatusOK, CapabilitiesResponse{
		Probed:   true,
		Known:    snap.Known(),
		Version:  snap.Version,
		Flags:    snap.Flags(),
		ProbedAt: &snap.ProbedAt,
	})
}
