package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/tunedrop/internal/app"
)

// respondError writes err with a status derived from its kind.
// The message is passed through verbatim.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case app.IsClientError(err):
		status = http.StatusBadRequest
	case app.IsNotFound(err):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
