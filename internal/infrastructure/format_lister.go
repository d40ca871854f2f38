package infrastructure

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
)

// audioOnlyLine matches a listing row like "251  webm  audio only  opus @160k"
var audioOnlyLine = regexp.MustCompile(`^\s*(\d+)\s.*audio only`)

// FormatLister discovers concrete audio-only format ids for a URL
type FormatLister struct {
	runner domain.ProcessRunner
	binary string
	logger *zap.Logger
}

// NewFormatLister creates a format lister
func NewFormatLister(runner domain.ProcessRunner, binary string, logger *zap.Logger) *FormatLister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormatLister{runner: runner, binary: binary, logger: logger}
}

// ListAudioFormats returns the audio-only format ids in listing order.
// It never fails: an unusable tool or listing yields an empty slice.
func (l *FormatLister) ListAudioFormats(ctx context.Context, sourceURL, cookiesPath string) []string {
	args := []string{"--list-formats", "--no-warnings"}
	if cookiesPath != "" {
		args = append(args, "--cookies", cookiesPath)
	}
	args = append(args, sourceURL)

	result, err := l.runner.Run(ctx, l.binary, args...)
	if err != nil {
		l.logger.Warn("Format listing failed", zap.String("url", sourceURL), zap.Error(err))
		return []string{}
	}

	// The listing is usable even when the tool exits non-zero.
	ids := ParseAudioFormats(result.Combined())
	l.logger.Debug("Audio formats discovered",
		zap.String("url", sourceURL),
		zap.Int("exit_code", result.ExitCode),
		zap.Strings("formats", ids))
	return ids
}

// ParseAudioFormats extracts the numeric ids of "audio only" rows, deduplicated
func ParseAudioFormats(listing string) []string {
	ids := []string{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(listing))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := audioOnlyLine.FindStringSubmatch(scanner.Text())
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	}
	return ids
}
