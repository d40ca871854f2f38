package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
	"github.com/yourusername/tunedrop/pkg/logger"
)

// UploadRequest is an inbound request to fetch a track and store it
type UploadRequest struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	PlaylistID      string `json:"playlistId"`
	NewPlaylistName string `json:"newPlaylistName"`
}

// UploadResponse is returned once the song is stored
type UploadResponse struct {
	Success  bool                 `json:"success"`
	Song     *domain.Song         `json:"song"`
	Playlist *domain.Playlist     `json:"playlist"`
	Upload   *domain.UploadResult `json:"upload"`
	Strategy string               `json:"strategy"`
	Attempts int                  `json:"attempts"`
}

// MetadataSource looks up optional track metadata
type MetadataSource interface {
	Fetch(ctx context.Context, sourceURL, cookiesPath string) (*domain.SourceMetadata, error)
}

// Pipeline runs one upload request: download, transcode, upload, persist.
// Steps run strictly in order; concurrent requests share nothing but the
// capability snapshot.
type Pipeline struct {
	downloader domain.Downloader
	transcoder domain.Transcoder
	uploads    *UploadManager
	metadata   MetadataSource
	repo       domain.SongRepository
	config     *domain.Config
	logger     *zap.Logger
	events     *logger.MultiLogger
}

// NewPipeline creates a pipeline. metadata and events may be nil.
func NewPipeline(
	downloader domain.Downloader,
	transcoder domain.Transcoder,
	uploads *UploadManager,
	metadata MetadataSource,
	repo domain.SongRepository,
	config *domain.Config,
	logger *zap.Logger,
	events *logger.MultiLogger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		downloader: downloader,
		transcoder: transcoder,
		uploads:    uploads,
		metadata:   metadata,
		repo:       repo,
		config:     config,
		logger:     logger,
		events:     events,
	}
}

// Process handles one upload request end to end
func (p *Pipeline) Process(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	req.URL = strings.TrimSpace(req.URL)
	req.Title = strings.TrimSpace(req.Title)
	if req.URL == "" || req.Title == "" {
		return nil, domain.ErrMissingFields
	}

	source := domain.DetectSource(req.URL)
	if !domain.ValidateSource(source) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, req.URL)
	}
	sourceURL := domain.CleanSourceURL(req.URL, source)

	start := time.Now()
	p.events.LogPipelineEvent("upload_started",
		zap.String("url", sourceURL),
		zap.String("source", string(source)),
		zap.String("title", req.Title))

	resp, err := p.process(ctx, req, source, sourceURL)
	if err != nil {
		p.logger.Error("Upload request failed", zap.String("url", sourceURL), zap.Error(err))
		p.events.LogAppError("upload_failed",
			zap.String("url", sourceURL),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	p.events.LogPipelineEvent("upload_completed",
		zap.String("url", sourceURL),
		zap.String("song_id", resp.Song.ID),
		zap.String("remote_url", resp.Upload.RemoteURL),
		zap.Bool("chunked", resp.Upload.Chunked),
		zap.String("strategy", resp.Strategy),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

func (p *Pipeline) process(ctx context.Context, req UploadRequest, source domain.Source, sourceURL string) (*UploadResponse, error) {
	cookies := p.cookiesPath()

	outputPath, err := p.tempPath()
	if err != nil {
		return nil, err
	}
	defer removeFiles(outputPath)

	dl, err := p.downloader.Download(ctx, domain.DownloadRequest{
		SourceURL:   sourceURL,
		OutputPath:  outputPath,
		CookiesPath: cookies,
	})
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	p.events.LogPipelineEvent("download_completed",
		zap.String("url", sourceURL),
		zap.String("strategy", dl.Strategy.FormatSelector),
		zap.Int("attempts", len(dl.Attempts)),
		zap.Int("cleanups", dl.Cleanups))

	uploadPath := dl.FilePath
	var cleanup []string
	if tr := p.transcoder.TryTranscode(ctx, dl.FilePath); tr.Skipped {
		p.events.LogPipelineEvent("transcode_skipped", zap.String("reason", tr.Reason))
	} else {
		uploadPath = tr.OutputPath
		cleanup = append(cleanup, dl.FilePath)
	}

	upload, err := p.uploads.Upload(ctx, uploadPath, cleanup...)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	song := domain.NewSong(req.Title, req.Artist, source, sourceURL, upload)
	song.CoverImage = p.coverImage(ctx, sourceURL, cookies)
	if err := p.repo.CreateSong(ctx, song); err != nil {
		return nil, fmt.Errorf("failed to save song: %w", err)
	}

	playlist, err := p.attachToPlaylist(ctx, req, song)
	if err != nil {
		return nil, err
	}

	return &UploadResponse{
		Success:  true,
		Song:     song,
		Playlist: playlist,
		Upload:   upload,
		Strategy: dl.Strategy.FormatSelector,
		Attempts: len(dl.Attempts),
	}, nil
}

// attachToPlaylist creates a new playlist or appends to an existing one.
// An unknown playlist id leaves the song unattached.
func (p *Pipeline) attachToPlaylist(ctx context.Context, req UploadRequest, song *domain.Song) (*domain.Playlist, error) {
	if name := strings.TrimSpace(req.NewPlaylistName); name != "" {
		playlist := domain.NewPlaylist(name)
		playlist.SongIDs = []string{song.ID}
		if err := p.repo.CreatePlaylist(ctx, playlist); err != nil {
			return nil, fmt.Errorf("failed to create playlist: %w", err)
		}
		return playlist, nil
	}

	if req.PlaylistID == "" {
		return nil, nil
	}
	if err := p.repo.AddSongToPlaylist(ctx, req.PlaylistID, song.ID); err != nil {
		if isNotFound(err) {
			p.logger.Warn("Playlist not found, song left unattached", zap.String("playlist_id", req.PlaylistID))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update playlist: %w", err)
	}
	return p.repo.FindPlaylist(ctx, req.PlaylistID)
}

// coverImage returns the source thumbnail, or "" when the lookup fails
func (p *Pipeline) coverImage(ctx context.Context, sourceURL, cookies string) string {
	if p.metadata == nil {
		return ""
	}
	meta, err := p.metadata.Fetch(ctx, sourceURL, cookies)
	if err != nil {
		p.logger.Warn("Metadata lookup failed", zap.String("url", sourceURL), zap.Error(err))
		return ""
	}
	return meta.Thumbnail
}

// cookiesPath returns the configured cookie file when it exists
func (p *Pipeline) cookiesPath() string {
	path := p.config.Cookies.Path
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// tempPath returns a unique download target inside the temp dir
func (p *Pipeline) tempPath() (string, error) {
	dir := p.config.Downloader.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	name := fmt.Sprintf("song-%d-%s.webm", time.Now().UnixNano(), uuid.NewString()[:8])
	return filepath.Join(dir, name), nil
}
