package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/app"
)

// UploadHandler handles track upload requests
type UploadHandler struct {
	pipeline *app.Pipeline
	logger   *zap.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(pipeline *app.Pipeline, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Upload handles POST /api/v1/uploads. The request blocks until the song is stored.
func (h *UploadHandler) Upload(c *gin.Context) {
	var req app.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := h.pipeline.Process(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Song uploaded",
		zap.String("song_id", resp.Song.ID),
		zap.String("url", resp.Upload.RemoteURL))
	c.JSON(http.StatusOK, resp)
}
