package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tunedrop/internal/domain"
)

func TestNewCloudinaryHost_RequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryHost(&domain.MediaConfig{CloudName: "demo"}, nil)
	assert.Error(t, err)

	host, err := NewCloudinaryHost(&domain.MediaConfig{CloudName: "demo", APIKey: "k", APISecret: "s", Folder: "songs"}, nil)
	require.NoError(t, err)

	params := host.params(domain.UploadOptions{ResourceKind: domain.ResourceRaw})
	assert.Equal(t, "raw", params.ResourceType)
	assert.Equal(t, "songs", params.Folder)
}

func TestSecureURL(t *testing.T) {
	url, err := secureURL(&uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/raw/upload/songs/a.webm"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/songs/a.webm", url)
}

func TestSecureURL_TooLarge(t *testing.T) {
	_, err := secureURL(&uploader.UploadResult{Error: api.ErrorResp{Message: "File size too large. Got 120000000. Maximum is 104857600."}}, nil)

	var hostErr *domain.HostError
	require.True(t, errors.As(err, &hostErr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, hostErr.StatusCode)
}

func TestSecureURL_OtherFailures(t *testing.T) {
	_, err := secureURL(nil, errors.New("dial tcp: connection refused"))
	var hostErr *domain.HostError
	require.True(t, errors.As(err, &hostErr))
	assert.Zero(t, hostErr.StatusCode)
	assert.Contains(t, hostErr.Message, "connection refused")

	_, err = secureURL(&uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid api_key"}}, nil)
	require.True(t, errors.As(err, &hostErr))
	assert.Zero(t, hostErr.StatusCode)

	_, err = secureURL(&uploader.UploadResult{}, nil)
	assert.ErrorContains(t, err, "secure_url")
}

type uploadRequest struct {
	path         string
	contentRange string
	uploadID     string
}

// newUploadServer records upload requests and answers with a secure_url
func newUploadServer(t *testing.T) (*httptest.Server, func() []uploadRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []uploadRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		requests = append(requests, uploadRequest{
			path:         r.URL.Path,
			contentRange: r.Header.Get("Content-Range"),
			uploadID:     r.Header.Get("X-Unique-Upload-Id"),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"secure_url":"https://res.cloudinary.com/demo/raw/upload/songs/big.webm"}`)
	}))
	t.Cleanup(server.Close)

	return server, func() []uploadRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]uploadRequest(nil), requests...)
	}
}

// sparseFile creates a file of size bytes without writing them
func sparseFile(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "big.webm")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func testCloudinaryHost(t *testing.T, uploadPrefix string) *CloudinaryHost {
	t.Helper()
	host, err := NewCloudinaryHost(&domain.MediaConfig{CloudName: "demo", APIKey: "k", APISecret: "s", Folder: "songs"}, nil)
	require.NoError(t, err)
	host.uploadPrefix = uploadPrefix
	return host
}

// Larger than both the SDK default chunk size and two retry chunks
const bigFileSize = 2*domain.DefaultChunkSize + 1000

func TestCloudinaryHost_UploadIsSingleRequest(t *testing.T) {
	server, requests := newUploadServer(t)
	host := testCloudinaryHost(t, server.URL)

	url, err := host.Upload(context.Background(), sparseFile(t, bigFileSize), domain.UploadOptions{ResourceKind: domain.ResourceRaw})

	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/songs/big.webm", url)
	got := requests()
	require.Len(t, got, 1)
	assert.Empty(t, got[0].contentRange)
	assert.Contains(t, got[0].path, "/demo/")
}

func TestCloudinaryHost_UploadChunkedSplitsAtChunkSize(t *testing.T) {
	server, requests := newUploadServer(t)
	host := testCloudinaryHost(t, server.URL)

	_, err := host.UploadChunked(context.Background(), sparseFile(t, bigFileSize), domain.UploadOptions{ResourceKind: domain.ResourceRaw}, domain.DefaultChunkSize)

	require.NoError(t, err)
	got := requests()
	require.Len(t, got, 3)
	assert.Equal(t, fmt.Sprintf("bytes 0-10485759/%d", bigFileSize), got[0].contentRange)
	assert.Equal(t, fmt.Sprintf("bytes 10485760-20971519/%d", bigFileSize), got[1].contentRange)
	assert.Equal(t, fmt.Sprintf("bytes 20971520-%d/%d", bigFileSize-1, bigFileSize), got[2].contentRange)
	assert.NotEmpty(t, got[0].uploadID)
	assert.Equal(t, got[0].uploadID, got[2].uploadID)
}

func TestCloudinaryHost_ChunkSizeDoesNotLeak(t *testing.T) {
	server, requests := newUploadServer(t)
	host := testCloudinaryHost(t, server.URL)
	path := sparseFile(t, bigFileSize)

	_, err := host.UploadChunked(context.Background(), path, domain.UploadOptions{}, domain.DefaultChunkSize)
	require.NoError(t, err)
	_, err = host.Upload(context.Background(), path, domain.UploadOptions{})
	require.NoError(t, err)

	assert.Len(t, requests(), 4)
}
