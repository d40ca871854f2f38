package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tunedrop/internal/domain"
)

func TestMetadataFetcher_Fetch(t *testing.T) {
	runner := &fakeRunner{handler: func(call fakeCall) (*domain.ProcessResult, error) {
		return okResult(`{"title":"Track","uploader":"Artist","thumbnail":"https://i.ytimg.com/vi/abc/hq.jpg","duration":212.5}`)
	}}
	f := NewMetadataFetcher(runner, "yt-dlp", staticCapabilities{knownSnapshot("no-playlist")}, nil)

	meta, err := f.Fetch(context.Background(), "https://youtu.be/abc", "/tmp/c.txt")

	require.NoError(t, err)
	assert.Equal(t, "Track", meta.Title)
	assert.Equal(t, "Artist", meta.Uploader)
	assert.Equal(t, "https://i.ytimg.com/vi/abc/hq.jpg", meta.Thumbnail)
	assert.Equal(t, 212.5, meta.Duration)

	call := runner.calls[0]
	assert.True(t, call.has("--dump-single-json"))
	assert.True(t, call.has("--skip-download"))
	assert.True(t, call.has("--no-playlist"))
	assert.Equal(t, "/tmp/c.txt", call.valueOf("--cookies"))
}

func TestMetadataFetcher_UnconfirmedFlagOmitted(t *testing.T) {
	runner := &fakeRunner{handler: func(call fakeCall) (*domain.ProcessResult, error) {
		return okResult(`{"title":"Track"}`)
	}}
	f := NewMetadataFetcher(runner, "yt-dlp", staticCapabilities{domain.UnknownCapabilities()}, nil)

	_, err := f.Fetch(context.Background(), "https://youtu.be/abc", "")

	require.NoError(t, err)
	assert.False(t, runner.calls[0].has("--no-playlist"))
	assert.False(t, runner.calls[0].has("--cookies"))
}

func TestMetadataFetcher_Failures(t *testing.T) {
	runner := &fakeRunner{handler: func(call fakeCall) (*domain.ProcessResult, error) {
		return exitResult(1, "ERROR: Private video")
	}}
	f := NewMetadataFetcher(runner, "yt-dlp", nil, nil)

	_, err := f.Fetch(context.Background(), "https://youtu.be/abc", "")
	assert.ErrorContains(t, err, "Private video")

	runner.handler = func(call fakeCall) (*domain.ProcessResult, error) {
		return okResult("not json")
	}
	_, err = f.Fetch(context.Background(), "https://youtu.be/abc", "")
	assert.ErrorContains(t, err, "failed to parse metadata")
}
