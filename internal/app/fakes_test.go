package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yourusername/tunedrop/internal/domain"
)

type hostCall struct {
	Path      string
	Opts      domain.UploadOptions
	Chunked   bool
	ChunkSize int64
}

// fakeHost implements domain.MediaHost for testing
type fakeHost struct {
	mu         sync.Mutex
	calls      []hostCall
	uploadErr  error
	chunkedErr error
	url        string
	onUpload   func(path string)
}

func (f *fakeHost) Upload(ctx context.Context, path string, opts domain.UploadOptions) (string, error) {
	f.record(hostCall{Path: path, Opts: opts})
	if f.onUpload != nil {
		f.onUpload(path)
	}
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.urlFor(path), nil
}

func (f *fakeHost) UploadChunked(ctx context.Context, path string, opts domain.UploadOptions, chunkSize int64) (string, error) {
	f.record(hostCall{Path: path, Opts: opts, Chunked: true, ChunkSize: chunkSize})
	if f.chunkedErr != nil {
		return "", f.chunkedErr
	}
	return f.urlFor(path), nil
}

func (f *fakeHost) record(c hostCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeHost) urlFor(path string) string {
	if f.url != "" {
		return f.url
	}
	return "https://res.cloudinary.com/demo/upload/" + path
}

// fakeRepo implements domain.SongRepository in memory
type fakeRepo struct {
	mu        sync.Mutex
	songs     map[string]*domain.Song
	playlists map[string]*domain.Playlist
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{songs: map[string]*domain.Song{}, playlists: map[string]*domain.Playlist{}}
}

func (r *fakeRepo) CreateSong(ctx context.Context, song *domain.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.songs[song.ID] = song
	return nil
}

func (r *fakeRepo) FindSong(ctx context.Context, id string) (*domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.songs[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) ListSongs(ctx context.Context) ([]*domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	songs := []*domain.Song{}
	for _, s := range r.songs {
		songs = append(songs, s)
	}
	return songs, nil
}

func (r *fakeRepo) CreatePlaylist(ctx context.Context, playlist *domain.Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range playlist.SongIDs {
		if _, ok := r.songs[id]; !ok {
			return domain.ErrNotFound
		}
	}
	r.playlists[playlist.ID] = playlist
	return nil
}

func (r *fakeRepo) FindPlaylist(ctx context.Context, id string) (*domain.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.playlists[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) ListPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlists := []*domain.Playlist{}
	for _, p := range r.playlists {
		playlists = append(playlists, p)
	}
	return playlists, nil
}

func (r *fakeRepo) AddSongToPlaylist(ctx context.Context, playlistID, songID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.playlists[playlistID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.songs[songID]; !ok {
		return domain.ErrNotFound
	}
	if !p.HasSong(songID) {
		p.SongIDs = append(p.SongIDs, songID)
	}
	return nil
}

func (r *fakeRepo) Stats(ctx context.Context) (*domain.LibraryStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.LibraryStats{Songs: int64(len(r.songs)), Playlists: int64(len(r.playlists))}, nil
}

func (r *fakeRepo) Close() error { return nil }

// fakeDownloader writes a file at the requested output path
type fakeDownloader struct {
	requests []domain.DownloadRequest
	err      error
}

func (d *fakeDownloader) Download(ctx context.Context, req domain.DownloadRequest) (*domain.DownloadResult, error) {
	d.requests = append(d.requests, req)
	if d.err != nil {
		return nil, d.err
	}
	if err := os.WriteFile(req.OutputPath, []byte("webm-audio"), 0644); err != nil {
		return nil, err
	}
	strategy := domain.DownloadStrategy{FormatSelector: "bestaudio"}
	return &domain.DownloadResult{
		FilePath: req.OutputPath,
		Strategy: strategy,
		Attempts: []domain.DownloadAttemptResult{{Strategy: strategy, Outcome: domain.AttemptSucceeded, FilePath: req.OutputPath}},
	}, nil
}

// fakeTranscoder either skips or writes an .mp3 next to the input
type fakeTranscoder struct {
	skip   bool
	output string
}

func (t *fakeTranscoder) TryTranscode(ctx context.Context, inputPath string) domain.TranscodeResult {
	if t.skip {
		return domain.TranscodeResult{Skipped: true, Reason: domain.SkipToolNotFound}
	}
	t.output = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".mp3"
	if err := os.WriteFile(t.output, []byte("mp3"), 0644); err != nil {
		return domain.TranscodeResult{Skipped: true, Reason: err.Error()}
	}
	return domain.TranscodeResult{OutputPath: t.output}
}

type fakeMetadata struct {
	meta *domain.SourceMetadata
	err  error
}

func (m fakeMetadata) Fetch(ctx context.Context, sourceURL, cookiesPath string) (*domain.SourceMetadata, error) {
	return m.meta, m.err
}
