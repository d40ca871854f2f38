package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
	"github.com/yourusername/tunedrop/internal/infrastructure"
)

// Library serves song, playlist and cookie queries
type Library struct {
	repo        domain.SongRepository
	cookiesPath string
	logger      *zap.Logger
	now         func() time.Time
}

// CookieStatus reports the state of the exported cookie file
type CookieStatus struct {
	ExpiresAt *time.Time `json:"expiresAt"`
	Expired   bool       `json:"expired"`
	Valid     bool       `json:"valid"`
	Entries   int        `json:"entries"`
	Path      string     `json:"path"`
}

// NewLibrary creates a library service
func NewLibrary(repo domain.SongRepository, cookiesPath string, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{repo: repo, cookiesPath: cookiesPath, logger: logger, now: time.Now}
}

// ListSongs returns all songs
func (l *Library) ListSongs(ctx context.Context) ([]*domain.Song, error) {
	return l.repo.ListSongs(ctx)
}

// GetSong returns one song
func (l *Library) GetSong(ctx context.Context, id string) (*domain.Song, error) {
	return l.repo.FindSong(ctx, id)
}

// ListPlaylists returns all playlists
func (l *Library) ListPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	return l.repo.ListPlaylists(ctx)
}

// GetPlaylist returns one playlist with its songs
func (l *Library) GetPlaylist(ctx context.Context, id string) (*domain.Playlist, error) {
	return l.repo.FindPlaylist(ctx, id)
}

// CreatePlaylist creates a playlist, optionally seeded with songs
func (l *Library) CreatePlaylist(ctx context.Context, name, coverImage string, songIDs []string) (*domain.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrMissingFields
	}

	playlist := domain.NewPlaylist(name)
	if coverImage != "" {
		playlist.CoverImage = coverImage
	}
	if len(songIDs) > 0 {
		playlist.SongIDs = songIDs
	}
	if err := l.repo.CreatePlaylist(ctx, playlist); err != nil {
		return nil, err
	}

	l.logger.Info("Playlist created", zap.String("id", playlist.ID), zap.String("name", name))
	return playlist, nil
}

// AddSongToPlaylist links an existing song and returns the updated playlist
func (l *Library) AddSongToPlaylist(ctx context.Context, playlistID, songID string) (*domain.Playlist, error) {
	if songID == "" {
		return nil, domain.ErrMissingFields
	}
	if err := l.repo.AddSongToPlaylist(ctx, playlistID, songID); err != nil {
		return nil, err
	}
	return l.repo.FindPlaylist(ctx, playlistID)
}

// Stats returns library counts
func (l *Library) Stats(ctx context.Context) (*domain.LibraryStats, error) {
	return l.repo.Stats(ctx)
}

// CookieStatus inspects the cookie file. The file is re-read on every call.
func (l *Library) CookieStatus() (*CookieStatus, error) {
	expiry, err := infrastructure.InspectCookieFile(l.cookiesPath)
	if err != nil {
		return nil, err
	}

	expired := expiry.Expired(l.now())
	return &CookieStatus{
		ExpiresAt: expiry.ExpiresAt,
		Expired:   expired,
		Valid:     expiry.ExpiresAt != nil && !expired,
		Entries:   expiry.Entries,
		Path:      l.cookiesPath,
	}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsClientError reports whether err was caused by the request itself
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrMissingFields) || errors.Is(err, domain.ErrUnsupportedSource)
}

// IsNotFound reports whether err means a missing resource
func IsNotFound(err error) bool {
	return isNotFound(err) || errors.Is(err, domain.ErrCookieFileNotFound)
}
