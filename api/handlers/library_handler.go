package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/tunedrop/internal/app"
)

// LibraryHandler handles song, playlist and cookie requests
type LibraryHandler struct {
	library *app.Library
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(library *app.Library) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// CreatePlaylistRequest is the body of POST /api/v1/playlists
type CreatePlaylistRequest struct {
	Name       string   `json:"name"`
	CoverImage string   `json:"coverImage"`
	SongIDs    []string `json:"songIds"`
}

// AddSongRequest is the body of POST /api/v1/playlists/:id/songs
type AddSongRequest struct {
	SongID string `json:"songId"`
}

// ListSongs handles GET /api/v1/songs
func (h *LibraryHandler) ListSongs(c *gin.Context) {
	songs, err := h.library.ListSongs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}

// GetSong handles GET /api/v1/songs/:id
func (h *LibraryHandler) GetSong(c *gin.Context) {
	song, err := h.library.GetSong(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, song)
}

// ListPlaylists handles GET /api/v1/playlists
func (h *LibraryHandler) ListPlaylists(c *gin.Context) {
	playlists, err := h.library.ListPlaylists(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlists)
}

// GetPlaylist handles GET /api/v1/playlists/:id
func (h *LibraryHandler) GetPlaylist(c *gin.Context) {
	playlist, err := h.library.GetPlaylist(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// CreatePlaylist handles POST /api/v1/playlists
func (h *LibraryHandler) CreatePlaylist(c *gin.Context) {
	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	playlist, err := h.library.CreatePlaylist(c.Request.Context(), req.Name, req.CoverImage, req.SongIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, playlist)
}

// AddSong handles POST /api/v1/playlists/:id/songs
func (h *LibraryHandler) AddSong(c *gin.Context) {
	var req AddSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	playlist, err := h.library.AddSongToPlaylist(c.Request.Context(), c.Param("id"), req.SongID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// CookieExpiry handles GET /api/v1/cookies/expiry. The legacy "expiry"
// field carries the same value as "expiresAt".
func (h *LibraryHandler) CookieExpiry(c *gin.Context) {
	status, err := h.library.CookieStatus()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expiresAt": status.ExpiresAt,
		"expiry":    status.ExpiresAt,
		"expired":   status.Expired,
		"valid":     status.Valid,
		"entries":   status.Entries,
	})
}
