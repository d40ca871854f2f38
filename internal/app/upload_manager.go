package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
)

// UploadManager sends local files to the media host, falling back to a
// chunked upload once when the host rejects a file as too large
type UploadManager struct {
	host   domain.MediaHost
	config *domain.MediaConfig
	logger *zap.Logger
}

// NewUploadManager creates a new upload manager
func NewUploadManager(host domain.MediaHost, config *domain.MediaConfig, logger *zap.Logger) *UploadManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadManager{host: host, config: config, logger: logger}
}

// Upload uploads localPath. localPath and every path in cleanup are removed
// before Upload returns, whatever the outcome.
func (um *UploadManager) Upload(ctx context.Context, localPath string, cleanup ...string) (*domain.UploadResult, error) {
	defer removeFiles(append([]string{localPath}, cleanup...)...)

	opts := domain.UploadOptions{
		ResourceKind: domain.ClassifyResource(localPath),
		Folder:       um.config.Folder,
	}
	result := &domain.UploadResult{ResourceKind: opts.ResourceKind}
	if info, err := os.Stat(localPath); err == nil {
		result.Bytes = info.Size()
	}

	um.logger.Info("Uploading file",
		zap.String("file", localPath),
		zap.String("size", humanize.Bytes(uint64(result.Bytes))),
		zap.String("resource_kind", string(opts.ResourceKind)))

	url, err := um.host.Upload(ctx, localPath, opts)
	if err != nil && um.IsTooLarge(err) {
		chunkSize := um.chunkSize()
		um.logger.Warn("Upload rejected as too large, retrying in chunks",
			zap.String("file", localPath),
			zap.String("chunk_size", humanize.IBytes(uint64(chunkSize))),
			zap.Error(err))
		result.Chunked = true
		url, err = um.host.UploadChunked(ctx, localPath, opts, chunkSize)
	}
	if err != nil {
		return nil, err
	}

	result.RemoteURL = url
	um.logger.Info("Upload completed",
		zap.String("url", url),
		zap.Bool("chunked", result.Chunked))
	return result, nil
}

// IsTooLarge reports whether err is a size-limit rejection. A structured
// status decides when present; otherwise the error text is matched.
func (um *UploadManager) IsTooLarge(err error) bool {
	var hostErr *domain.HostError
	if errors.As(err, &hostErr) && hostErr.StatusCode != 0 {
		return hostErr.StatusCode == http.StatusRequestEntityTooLarge
	}

	text := strings.ToLower(err.Error())
	for _, sig := range um.config.TooLargeSignatures {
		if sig != "" && strings.Contains(text, strings.ToLower(sig)) {
			return true
		}
	}
	return false
}

func (um *UploadManager) chunkSize() int64 {
	if um.config.ChunkSize > 0 {
		return um.config.ChunkSize
	}
	return domain.DefaultChunkSize
}

func removeFiles(paths ...string) {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		_ = os.Remove(p)
	}
}
