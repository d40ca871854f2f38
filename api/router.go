package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/api/handlers"
	"github.com/yourusername/tunedrop/api/middleware"
	"github.com/yourusername/tunedrop/internal/app"
	"github.com/yourusername/tunedrop/internal/domain"
	"github.com/yourusername/tunedrop/pkg/logger"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// RouterConfig carries the dependencies of the HTTP router
type RouterConfig struct {
	Pipeline *app.Pipeline
	Library  *app.Library
	Probe    handlers.CapabilityReader
	Server   *domain.ServerConfig
	Logger   *zap.Logger
	Events   *logger.MultiLogger
	LogsDir  string
}

// SetupRouter sets up the HTTP router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log, cfg.Events))
	router.Use(middleware.Recovery(log, cfg.Events))
	router.Use(middleware.CORS())

	var limit float64
	var burst int
	if cfg.Server != nil {
		limit, burst = cfg.Server.RateLimit, cfg.Server.RateBurst
	}
	uploadLimit := middleware.RateLimit(limit, burst)

	healthHandler := handlers.NewHealthHandler(cfg.Probe, cfg.Library, Version)
	uploadHandler := handlers.NewUploadHandler(cfg.Pipeline, log)
	libraryHandler := handlers.NewLibraryHandler(cfg.Library)
	logHandler := handlers.NewLogHandler(cfg.LogsDir)

	// Health endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Legacy paths used by the existing web client
	router.POST("/yt-upload", uploadLimit, uploadHandler.Upload)
	router.POST("/sc-upload", uploadLimit, uploadHandler.Upload)
	router.GET("/playlists", libraryHandler.ListPlaylists)
	router.GET("/cookie-expiry", libraryHandler.CookieExpiry)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/uploads", uploadLimit, uploadHandler.Upload)
		v1.GET("/capabilities", healthHandler.Capabilities)
		v1.GET("/cookies/expiry", libraryHandler.CookieExpiry)

		songs := v1.Group("/songs")
		{
			songs.GET("", libraryHandler.ListSongs)
			songs.GET("/:id", libraryHandler.GetSong)
		}

		playlists := v1.Group("/playlists")
		{
			playlists.GET("", libraryHandler.ListPlaylists)
			playlists.POST("", libraryHandler.CreatePlaylist)
			playlists.GET("/:id", libraryHandler.GetPlaylist)
			playlists.POST("/:id/songs", libraryHandler.AddSong)
		}

		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
