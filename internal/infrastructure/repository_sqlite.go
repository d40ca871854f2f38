package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/tunedrop/internal/domain"
)

// SQLiteSongRepository implements domain.SongRepository using SQLite
type SQLiteSongRepository struct {
	db *gorm.DB
}

// NewSQLiteSongRepository creates a new SQLite repository
func NewSQLiteSongRepository(dbPath string) (*SQLiteSongRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Song{}, &domain.Playlist{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteSongRepository{db: db}, nil
}

// CreateSong stores a new song
func (r *SQLiteSongRepository) CreateSong(ctx context.Context, song *domain.Song) error {
	return r.db.WithContext(ctx).Create(song).Error
}

// FindSong finds a song by ID
func (r *SQLiteSongRepository) FindSong(ctx context.Context, id string) (*domain.Song, error) {
	var song domain.Song
	if err := r.db.WithContext(ctx).First(&song, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, "song", id)
	}
	return &song, nil
}

// ListSongs returns all songs, newest first
func (r *SQLiteSongRepository) ListSongs(ctx context.Context) ([]*domain.Song, error) {
	songs := []*domain.Song{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&songs).Error
	return songs, err
}

// CreatePlaylist stores a playlist and links the songs listed in SongIDs
func (r *SQLiteSongRepository) CreatePlaylist(ctx context.Context, playlist *domain.Playlist) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		songs := []*domain.Song{}
		if len(playlist.SongIDs) > 0 {
			if err := tx.Where("id IN ?", playlist.SongIDs).Find(&songs).Error; err != nil {
				return err
			}
			if len(songs) != len(uniqueIDs(playlist.SongIDs)) {
				return fmt.Errorf("playlist references unknown songs: %w", domain.ErrNotFound)
			}
		}

		if err := tx.Omit("Songs").Create(playlist).Error; err != nil {
			return err
		}
		if len(songs) > 0 {
			if err := tx.Model(playlist).Omit("Songs.*").Association("Songs").Append(songs); err != nil {
				return err
			}
		}
		playlist.Songs = songs
		fillSongIDs(playlist)
		return nil
	})
}

// FindPlaylist finds a playlist by ID with its songs loaded
func (r *SQLiteSongRepository) FindPlaylist(ctx context.Context, id string) (*domain.Playlist, error) {
	var playlist domain.Playlist
	err := r.withSongs(r.db.WithContext(ctx)).First(&playlist, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, "playlist", id)
	}
	fillSongIDs(&playlist)
	return &playlist, nil
}

// ListPlaylists returns all playlists with their songs, newest first
func (r *SQLiteSongRepository) ListPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	playlists := []*domain.Playlist{}
	if err := r.withSongs(r.db.WithContext(ctx)).Order("created_at DESC").Find(&playlists).Error; err != nil {
		return nil, err
	}
	for _, p := range playlists {
		fillSongIDs(p)
	}
	return playlists, nil
}

// AddSongToPlaylist appends a song to an existing playlist. Adding a song twice is a no-op.
func (r *SQLiteSongRepository) AddSongToPlaylist(ctx context.Context, playlistID, songID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var playlist domain.Playlist
		if err := tx.First(&playlist, "id = ?", playlistID).Error; err != nil {
			return mapNotFound(err, "playlist", playlistID)
		}
		var song domain.Song
		if err := tx.First(&song, "id = ?", songID).Error; err != nil {
			return mapNotFound(err, "song", songID)
		}

		var linked int64
		if err := tx.Table("playlist_songs").
			Where("playlist_id = ? AND song_id = ?", playlistID, songID).
			Count(&linked).Error; err != nil {
			return err
		}
		if linked > 0 {
			return nil
		}

		if err := tx.Model(&playlist).Omit("Songs.*").Association("Songs").Append(&song); err != nil {
			return err
		}
		return tx.Model(&playlist).Update("updated_at", time.Now()).Error
	})
}

// Stats returns library counts
func (r *SQLiteSongRepository) Stats(ctx context.Context) (*domain.LibraryStats, error) {
	stats := &domain.LibraryStats{}
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.Song{}).Count(&stats.Songs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Playlist{}).Count(&stats.Playlists).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// Close closes the database connection
func (r *SQLiteSongRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *SQLiteSongRepository) withSongs(db *gorm.DB) *gorm.DB {
	return db.Preload("Songs", func(db *gorm.DB) *gorm.DB {
		return db.Order("songs.created_at ASC")
	})
}

func fillSongIDs(p *domain.Playlist) {
	p.SongIDs = make([]string, 0, len(p.Songs))
	for _, s := range p.Songs {
		p.SongIDs = append(p.SongIDs, s.ID)
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func mapNotFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return err
}
