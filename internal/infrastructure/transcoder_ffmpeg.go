package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
)

// FFmpegTranscoder normalizes downloaded audio with ffmpeg. It never fails a
// request: every problem is reported as a skipped step.
type FFmpegTranscoder struct {
	config *domain.TranscoderConfig
	runner domain.ProcessRunner
	logger *zap.Logger
}

// NewFFmpegTranscoder creates a new ffmpeg transcoder
func NewFFmpegTranscoder(config *domain.TranscoderConfig, runner domain.ProcessRunner, logger *zap.Logger) *FFmpegTranscoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegTranscoder{config: config, runner: runner, logger: logger}
}

// OutputPath returns the transcoded file path for an input file
func (t *FFmpegTranscoder) OutputPath(inputPath string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + "." + t.format()
}

// BuildArgs builds the ffmpeg argument list
func (t *FFmpegTranscoder) BuildArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-ab", t.config.Bitrate,
		"-ar", strconv.Itoa(t.config.SampleRate),
		"-f", t.format(),
		outputPath,
	}
}

// Available reports whether ffmpeg answers -version
func (t *FFmpegTranscoder) Available(ctx context.Context) bool {
	res, err := t.runner.Run(ctx, t.config.Binary, "-version")
	return err == nil && res.ExitedZero()
}

// TryTranscode converts inputPath to the configured format
func (t *FFmpegTranscoder) TryTranscode(ctx context.Context, inputPath string) domain.TranscodeResult {
	if !t.config.Enabled {
		return skipped("disabled")
	}
	if !t.Available(ctx) {
		t.logger.Info("ffmpeg not available, uploading original file")
		return skipped(domain.SkipToolNotFound)
	}

	outputPath := t.OutputPath(inputPath)
	if outputPath == inputPath {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".transcoded." + t.format()
	}

	res, err := t.runner.Run(ctx, t.config.Binary, t.BuildArgs(inputPath, outputPath)...)
	if err == nil && !res.ExitedZero() {
		err = fmt.Errorf("ffmpeg exited with status %d: %s", res.ExitCode, tail(res.Stderr, 5))
	}
	if err == nil && !fileExists(outputPath) {
		err = errors.New("ffmpeg did not write an output file")
	}
	if err != nil {
		_ = os.Remove(outputPath)
		t.logger.Warn("Transcode failed, uploading original file",
			zap.String("input", inputPath),
			zap.Error(err))
		return skipped(err.Error())
	}

	fields := []zap.Field{zap.String("output", outputPath)}
	if info, statErr := os.Stat(outputPath); statErr == nil {
		fields = append(fields, zap.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	t.logger.Info("Transcode completed", fields...)
	return domain.TranscodeResult{OutputPath: outputPath}
}

func (t *FFmpegTranscoder) format() string {
	if t.config.Format == "" {
		return "mp3"
	}
	return t.config.Format
}

func skipped(reason string) domain.TranscodeResult {
	return domain.TranscodeResult{Skipped: true, Reason: reason}
}
