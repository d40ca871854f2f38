package domain

import "context"

// SongRepository defines the interface for song and playlist persistence.
// Find methods return ErrNotFound when no record matches.
type SongRepository interface {
	// CreateSong stores a new song
	CreateSong(ctx context.Context, song *Song) error

	// FindSong finds a song by ID
	FindSong(ctx context.Context, id string) (*Song, error)

	// ListSongs returns all songs, newest first
	ListSongs(ctx context.Context) ([]*Song, error)

	// CreatePlaylist stores a new playlist along with its initial songs
	CreatePlaylist(ctx context.Context, playlist *Playlist) error

	// FindPlaylist finds a playlist by ID with its songs loaded
	FindPlaylist(ctx context.Context, id string) (*Playlist, error)

	// ListPlaylists returns all playlists with their songs, newest first
	ListPlaylists(ctx context.Context) ([]*Playlist, error)

	// AddSongToPlaylist appends a song to an existing playlist
	AddSongToPlaylist(ctx context.Context, playlistID, songID string) error

	// Stats returns library counts
	Stats(ctx context.Context) (*LibraryStats, error)

	// Close releases the underlying connection
	Close() error
}

// LibraryStats represents library statistics
type LibraryStats struct {
	Songs     int64 `json:"songs"`
	Playlists int64 `json:"playlists"`
}
