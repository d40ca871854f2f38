package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
)

// MetadataFetcher reads track metadata from yt-dlp without downloading media
type MetadataFetcher struct {
	runner       domain.ProcessRunner
	binary       string
	capabilities CapabilitySource
	logger       *zap.Logger
}

// NewMetadataFetcher creates a metadata fetcher. capabilities may be nil.
func NewMetadataFetcher(runner domain.ProcessRunner, binary string, capabilities CapabilitySource, logger *zap.Logger) *MetadataFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataFetcher{runner: runner, binary: binary, capabilities: capabilities, logger: logger}
}

// Fetch returns the source metadata for url
func (f *MetadataFetcher) Fetch(ctx context.Context, sourceURL, cookiesPath string) (*domain.SourceMetadata, error) {
	args := []string{"--dump-single-json", "--skip-download", "--no-warnings"}
	if f.capabilities != nil && f.capabilities.Snapshot(ctx).Supports("no-playlist") {
		args = append(args, "--no-playlist")
	}
	if cookiesPath != "" {
		args = append(args, "--cookies", cookiesPath)
	}
	args = append(args, sourceURL)

	res, err := f.runner.Run(ctx, f.binary, args...)
	if err != nil {
		return nil, err
	}
	if !res.ExitedZero() {
		return nil, fmt.Errorf("metadata lookup exited with status %d: %s", res.ExitCode, tail(res.Stderr, 5))
	}

	var meta domain.SourceMetadata
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}
