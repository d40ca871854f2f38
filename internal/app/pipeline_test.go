package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tunedrop/internal/domain"
)

type pipelineFixture struct {
	pipeline   *Pipeline
	downloader *fakeDownloader
	transcoder *fakeTranscoder
	host       *fakeHost
	repo       *fakeRepo
	config     *domain.Config
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.Downloader.TempDir = t.TempDir()
	cfg.Cookies.Path = filepath.Join(t.TempDir(), "cookies.txt")

	f := &pipelineFixture{
		downloader: &fakeDownloader{},
		transcoder: &fakeTranscoder{skip: true},
		host:       &fakeHost{url: "https://res.cloudinary.com/demo/raw/upload/songs/song.webm"},
		repo:       newFakeRepo(),
		config:     cfg,
	}
	uploads := NewUploadManager(f.host, &cfg.Media, nil)
	f.pipeline = NewPipeline(f.downloader, f.transcoder, uploads, nil, f.repo, cfg, nil, nil)
	return f
}

func (f *pipelineFixture) tempDirEntries(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(f.config.Downloader.TempDir)
	require.NoError(t, err)
	return entries
}

func TestPipeline_WebmWithoutTranscoder(t *testing.T) {
	f := newPipelineFixture(t)

	resp, err := f.pipeline.Process(context.Background(), UploadRequest{
		URL:   "https://www.youtube.com/watch?v=IpFX2vq8HKw",
		Title: "Track",
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, domain.ResourceRaw, resp.Upload.ResourceKind)
	assert.False(t, resp.Upload.Chunked)
	assert.Equal(t, "bestaudio", resp.Strategy)

	stored, err := f.repo.FindSong(context.Background(), resp.Song.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/songs/song.webm", stored.URL)
	assert.Equal(t, domain.DefaultArtist, stored.Artist)
	assert.Equal(t, domain.SourceYouTube, stored.Source)
	assert.Nil(t, resp.Playlist)

	require.Len(t, f.host.calls, 1)
	assert.Equal(t, ".webm", filepath.Ext(f.host.calls[0].Path))
	assert.Empty(t, f.downloader.requests[0].CookiesPath, "missing cookie file is not passed")
	assert.Empty(t, f.tempDirEntries(t))
}

func TestPipeline_TranscodedUploadCleansBothFiles(t *testing.T) {
	f := newPipelineFixture(t)
	f.transcoder.skip = false

	resp, err := f.pipeline.Process(context.Background(), UploadRequest{URL: "https://youtu.be/abc", Title: "Track"})

	require.NoError(t, err)
	assert.Equal(t, ".mp3", filepath.Ext(f.host.calls[0].Path))
	assert.Equal(t, domain.ResourceRaw, resp.Upload.ResourceKind)
	assert.Empty(t, f.tempDirEntries(t))
}

func TestPipeline_MissingFields(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Process(context.Background(), UploadRequest{URL: "https://youtu.be/abc"})
	assert.ErrorIs(t, err, domain.ErrMissingFields)

	_, err = f.pipeline.Process(context.Background(), UploadRequest{Title: "Track"})
	assert.ErrorIs(t, err, domain.ErrMissingFields)
	assert.Equal(t, "Missing required fields", err.Error())
	assert.Empty(t, f.downloader.requests)
}

func TestPipeline_UnsupportedSource(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Process(context.Background(), UploadRequest{URL: "https://vimeo.com/123", Title: "Track"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
	assert.True(t, IsClientError(err))
}

func TestPipeline_SoundCloudURLCleanedAndCookiesPassed(t *testing.T) {
	f := newPipelineFixture(t)
	require.NoError(t, os.WriteFile(f.config.Cookies.Path, []byte("# Netscape HTTP Cookie File\n"), 0600))

	resp, err := f.pipeline.Process(context.Background(), UploadRequest{
		URL:    "https://soundcloud.com/artist/track?si=abc&utm_source=clipboard",
		Title:  "Track",
		Artist: "Artist",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://soundcloud.com/artist/track", f.downloader.requests[0].SourceURL)
	assert.Equal(t, f.config.Cookies.Path, f.downloader.requests[0].CookiesPath)
	assert.Equal(t, "Artist", resp.Song.Artist)
	assert.Equal(t, domain.SourceSoundCloud, resp.Song.Source)
}

func TestPipeline_DownloadFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.downloader.err = &domain.StrategyExhaustedError{Last: errors.New("Video unavailable")}

	_, err := f.pipeline.Process(context.Background(), UploadRequest{URL: "https://youtu.be/abc", Title: "Track"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStrategiesExhausted)
	assert.Contains(t, err.Error(), "Video unavailable")
	assert.Empty(t, f.host.calls)
	assert.Empty(t, f.repo.songs)
}

func TestPipeline_UploadFailureCleansTemp(t *testing.T) {
	f := newPipelineFixture(t)
	f.host.uploadErr = errors.New("Invalid api_key")

	_, err := f.pipeline.Process(context.Background(), UploadRequest{URL: "https://youtu.be/abc", Title: "Track"})

	assert.ErrorContains(t, err, "Invalid api_key")
	assert.Empty(t, f.tempDirEntries(t))
	assert.Empty(t, f.repo.songs)
}

func TestPipeline_NewPlaylist(t *testing.T) {
	f := newPipelineFixture(t)

	resp, err := f.pipeline.Process(context.Background(), UploadRequest{
		URL:             "https://youtu.be/abc",
		Title:           "Track",
		NewPlaylistName: "Road Trip",
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Playlist)
	assert.Equal(t, "Road Trip", resp.Playlist.Name)
	assert.Equal(t, domain.DefaultPlaylistCover, resp.Playlist.CoverImage)
	assert.Equal(t, []string{resp.Song.ID}, resp.Playlist.SongIDs)
}

func TestPipeline_ExistingPlaylist(t *testing.T) {
	f := newPipelineFixture(t)
	existing := domain.NewPlaylist("Favorites")
	require.NoError(t, f.repo.CreatePlaylist(context.Background(), existing))

	resp, err := f.pipeline.Process(context.Background(), UploadRequest{
		URL:        "https://youtu.be/abc",
		Title:      "Track",
		PlaylistID: existing.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Playlist)
	assert.Equal(t, []string{resp.Song.ID}, resp.Playlist.SongIDs)
}

func TestPipeline_UnknownPlaylistLeavesSongUnattached(t *testing.T) {
	f := newPipelineFixture(t)

	resp, err := f.pipeline.Process(context.Background(), UploadRequest{
		URL:        "https://youtu.be/abc",
		Title:      "Track",
		PlaylistID: "missing",
	})

	require.NoError(t, err)
	assert.Nil(t, resp.Playlist)
	assert.Len(t, f.repo.songs, 1)
}

func TestPipeline_MetadataCoverImage(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.metadata = fakeMetadata{meta: &domain.SourceMetadata{Thumbnail: "https://i.ytimg.com/vi/abc/hq.jpg"}}

	resp, err := f.pipeline.Process(context.Background(), UploadRequest{URL: "https://youtu.be/abc", Title: "Track"})

	require.NoError(t, err)
	assert.Equal(t, "https://i.ytimg.com/vi/abc/hq.jpg", resp.Song.CoverImage)
}

func TestPipeline_MetadataFailureIsNotFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.metadata = fakeMetadata{err: errors.New("Private video")}

	resp, err := f.pipeline.Process(context.Background(), UploadRequest{URL: "https://youtu.be/abc", Title: "Track"})

	require.NoError(t, err)
	assert.Empty(t, resp.Song.CoverImage)
}

func TestPipeline_UniqueTempPaths(t *testing.T) {
	f := newPipelineFixture(t)

	first, err := f.pipeline.tempPath()
	require.NoError(t, err)
	second, err := f.pipeline.tempPath()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Regexp(t, `song-\d+-[0-9a-f]{8}\.webm$`, first)
}
