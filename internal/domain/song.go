package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source represents the site a song is fetched from
type Source string

const (
	SourceYouTube    Source = "youtube"
	SourceSoundCloud Source = "soundcloud"
)

const (
	DefaultArtist        = "Unknown Artist"
	DefaultPlaylistCover = "/playlist.png"
)

// Song is an uploaded track
type Song struct {
	ID           string       `json:"id" gorm:"primaryKey" bson:"_id"`
	Title        string       `json:"title" gorm:"not null" bson:"title"`
	Artist       string       `json:"artist" gorm:"not null" bson:"artist"`
	URL          string       `json:"url" gorm:"not null" bson:"url"`
	CoverImage   string       `json:"coverImage,omitempty" bson:"cover_image,omitempty"`
	Source       Source       `json:"source" gorm:"index" bson:"source"`
	SourceURL    string       `json:"sourceUrl" bson:"source_url"`
	ResourceKind ResourceKind `json:"resourceKind" bson:"resource_kind"`
	CreatedAt    time.Time    `json:"createdAt" gorm:"autoCreateTime" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" gorm:"autoUpdateTime" bson:"updated_at"`
}

// Playlist groups songs
type Playlist struct {
	ID         string    `json:"id" gorm:"primaryKey" bson:"_id"`
	Name       string    `json:"name" gorm:"not null" bson:"name"`
	CoverImage string    `json:"coverImage" gorm:"default:/playlist.png" bson:"cover_image"`
	SongIDs    []string  `json:"songIds" gorm:"-" bson:"song_ids"`
	Songs      []*Song   `json:"songs,omitempty" gorm:"many2many:playlist_songs" bson:"-"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime" bson:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime" bson:"updated_at"`
}

// NewSong creates a song record for an uploaded file
func NewSong(title, artist string, source Source, sourceURL string, upload *UploadResult) *Song {
	if strings.TrimSpace(artist) == "" {
		artist = DefaultArtist
	}
	now := time.Now()
	song := &Song{
		ID:        uuid.New().String(),
		Title:     title,
		Artist:    artist,
		Source:    source,
		SourceURL: sourceURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if upload != nil {
		song.URL = upload.RemoteURL
		song.ResourceKind = upload.ResourceKind
	}
	return song
}

// NewPlaylist creates an empty playlist
func NewPlaylist(name string) *Playlist {
	now := time.Now()
	return &Playlist{
		ID:         uuid.New().String(),
		Name:       name,
		CoverImage: DefaultPlaylistCover,
		SongIDs:    []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// HasSong reports whether the playlist already references a song
func (p *Playlist) HasSong(songID string) bool {
	for _, id := range p.SongIDs {
		if id == songID {
			return true
		}
	}
	return false
}

// DetectSource detects the source site from a URL
func DetectSource(rawURL string) Source {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	switch {
	case host == "youtube.com", host == "music.youtube.com", host == "youtu.be":
		return SourceYouTube
	case host == "soundcloud.com", host == "on.soundcloud.com":
		return SourceSoundCloud
	}
	return ""
}

// ValidateSource checks if a source is supported
func ValidateSource(source Source) bool {
	return source == SourceYouTube || source == SourceSoundCloud
}

// CleanSourceURL strips tracking query strings where the site doesn't need them.
// YouTube keeps its query since the video id lives in ?v=.
func CleanSourceURL(rawURL string, source Source) string {
	rawURL = strings.TrimSpace(rawURL)
	if source == SourceSoundCloud {
		if idx := strings.Index(rawURL, "?"); idx > 0 {
			return rawURL[:idx]
		}
	}
	return rawURL
}
