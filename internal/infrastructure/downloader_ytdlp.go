package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
)

// CapabilitySource provides the downloader capability snapshot
type CapabilitySource interface {
	Snapshot(ctx context.Context) *domain.CapabilitySnapshot
}

// AudioFormatLister discovers concrete audio format ids
type AudioFormatLister interface {
	ListAudioFormats(ctx context.Context, sourceURL, cookiesPath string) []string
}

// staticLadder is tried in order after any discovered format id
var staticLadder = []domain.DownloadStrategy{
	{FormatSelector: "bestaudio"},
	{FormatSelector: "bestaudio[ext=webm]/bestaudio/best"},
	{FormatSelector: "bestaudio/best"},
}

// partialSuffixes are the side files yt-dlp leaves next to an unfinished output
var partialSuffixes = []string{"", ".part", ".ytdl", ".temp"}

// YTDLPDownloader implements domain.Downloader by walking a ladder of format
// selectors against yt-dlp until one produces the output file
type YTDLPDownloader struct {
	config       *domain.DownloaderConfig
	runner       domain.ProcessRunner
	capabilities CapabilitySource
	formats      AudioFormatLister
	logger       *zap.Logger
}

// NewYTDLPDownloader creates a new yt-dlp downloader. formats may be nil to skip discovery.
func NewYTDLPDownloader(config *domain.DownloaderConfig, runner domain.ProcessRunner, capabilities CapabilitySource, formats AudioFormatLister, logger *zap.Logger) *YTDLPDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPDownloader{
		config:       config,
		runner:       runner,
		capabilities: capabilities,
		formats:      formats,
		logger:       logger,
	}
}

// BuildLadder returns the strategies in the order they are attempted.
// The last discovered id is preferred since yt-dlp lists formats worst to best.
func BuildLadder(formatIDs []string) []domain.DownloadStrategy {
	ladder := make([]domain.DownloadStrategy, 0, len(staticLadder)+1)
	if len(formatIDs) > 0 {
		ladder = append(ladder, domain.DownloadStrategy{FormatSelector: formatIDs[len(formatIDs)-1]})
	}
	return append(ladder, staticLadder...)
}

// BuildArgs builds the argument list for one attempt
func (d *YTDLPDownloader) BuildArgs(req domain.DownloadRequest, strategy domain.DownloadStrategy, snap *domain.CapabilitySnapshot) []string {
	args := []string{
		"--output", req.OutputPath,
		"--format", strategy.FormatSelector,
	}
	if req.CookiesPath != "" {
		args = append(args, "--cookies", req.CookiesPath)
	}
	args = append(args, "--no-warnings")

	// Optional flags are only passed once the probe confirmed the exact name.
	for _, flag := range d.config.OptionalFlags {
		if snap.Supports(domain.FlagName(flag)) {
			args = append(args, "--"+strings.TrimLeft(flag, "-"))
		}
	}

	args = append(args, strategy.ExtraArgs...)
	return append(args, req.SourceURL)
}

// Download walks the ladder until one strategy leaves the output file on disk
func (d *YTDLPDownloader) Download(ctx context.Context, req domain.DownloadRequest) (*domain.DownloadResult, error) {
	if req.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	snap := domain.UnknownCapabilities()
	if d.capabilities != nil {
		snap = d.capabilities.Snapshot(ctx)
	}

	var formatIDs []string
	if d.formats != nil && d.config.ListFormats {
		formatIDs = d.formats.ListAudioFormats(ctx, req.SourceURL, req.CookiesPath)
	}
	ladder := BuildLadder(formatIDs)

	result := &domain.DownloadResult{}
	removePartialOutput(req.OutputPath)

	var lastErr error
	for i, strategy := range ladder {
		if err := ctx.Err(); err != nil {
			removePartialOutput(req.OutputPath)
			return nil, fmt.Errorf("download cancelled: %w", err)
		}

		d.logger.Info("Trying download strategy",
			zap.String("url", req.SourceURL),
			zap.Int("rung", i+1),
			zap.Int("rungs", len(ladder)),
			zap.String("format", strategy.FormatSelector))

		err := d.attempt(ctx, req, strategy, snap)
		if err != nil && d.isSegmentFailure(err) && len(d.config.SegmentRetryArgs) > 0 {
			result.Attempts = append(result.Attempts, failedAttempt(strategy, err, false))
			removePartialOutput(req.OutputPath)
			result.Cleanups++

			strategy = withExtraArgs(strategy, d.config.SegmentRetryArgs)
			d.logger.Info("Segment failure, retrying strategy with alternate muxing",
				zap.String("format", strategy.FormatSelector),
				zap.Strings("extra_args", strategy.ExtraArgs))
			err = d.attempt(ctx, req, strategy, snap)
			if err != nil {
				result.Attempts = append(result.Attempts, failedAttempt(strategy, err, true))
			}
		} else if err != nil {
			result.Attempts = append(result.Attempts, failedAttempt(strategy, err, false))
		}

		if err == nil {
			result.FilePath = req.OutputPath
			result.Strategy = strategy
			result.Attempts = append(result.Attempts, domain.DownloadAttemptResult{
				Strategy: strategy,
				Outcome:  domain.AttemptSucceeded,
				FilePath: req.OutputPath,
				Retried:  len(strategy.ExtraArgs) > 0,
			})
			d.logger.Info("Download strategy succeeded",
				zap.String("url", req.SourceURL),
				zap.String("format", strategy.FormatSelector),
				zap.String("file", req.OutputPath))
			return result, nil
		}

		lastErr = err
		d.logger.Warn("Download strategy failed",
			zap.String("url", req.SourceURL),
			zap.String("format", strategy.FormatSelector),
			zap.Error(err))
		removePartialOutput(req.OutputPath)
		result.Cleanups++
	}

	return result, &domain.StrategyExhaustedError{Attempts: result.Attempts, Last: lastErr}
}

// attempt runs yt-dlp once. The output file on disk decides success, not the exit code.
func (d *YTDLPDownloader) attempt(ctx context.Context, req domain.DownloadRequest, strategy domain.DownloadStrategy, snap *domain.CapabilitySnapshot) error {
	res, err := d.runner.Run(ctx, d.config.Binary, d.BuildArgs(req, strategy, snap)...)
	if err != nil {
		return err
	}

	if fileExists(req.OutputPath) {
		return nil
	}
	if res.ExitedZero() {
		return fmt.Errorf("yt-dlp exited 0 but %s was not written", filepath.Base(req.OutputPath))
	}
	return &toolError{exitCode: res.ExitCode, output: res.Combined()}
}

// isSegmentFailure matches configured signatures against the full tool output
func (d *YTDLPDownloader) isSegmentFailure(err error) bool {
	text := err.Error()
	var te *toolError
	if errors.As(err, &te) {
		text = te.output
	}
	return containsAnyFold(text, d.config.SegmentRetrySignatures)
}

// toolError carries yt-dlp's captured output; Error shows only the tail
type toolError struct {
	exitCode int
	output   string
}

func (e *toolError) Error() string {
	msg := tail(e.output, 20)
	if msg == "" {
		return fmt.Sprintf("yt-dlp exited with status %d", e.exitCode)
	}
	return fmt.Sprintf("yt-dlp exited with status %d: %s", e.exitCode, msg)
}

func failedAttempt(strategy domain.DownloadStrategy, err error, retried bool) domain.DownloadAttemptResult {
	return domain.DownloadAttemptResult{
		Strategy:       strategy,
		Outcome:        domain.AttemptFailed,
		ErrorSignature: err.Error(),
		Retried:        retried,
	}
}

func withExtraArgs(strategy domain.DownloadStrategy, extra []string) domain.DownloadStrategy {
	args := make([]string, 0, len(strategy.ExtraArgs)+len(extra))
	args = append(args, strategy.ExtraArgs...)
	args = append(args, extra...)
	return domain.DownloadStrategy{FormatSelector: strategy.FormatSelector, ExtraArgs: args}
}

// removePartialOutput deletes the output file and yt-dlp's side files
func removePartialOutput(outputPath string) {
	for _, suffix := range partialSuffixes {
		_ = os.Remove(outputPath + suffix)
	}
}

// fileExists checks if a regular file exists
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func containsAnyFold(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// tail returns the last n non-empty lines of s
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
