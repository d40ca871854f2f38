package infrastructure

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
)

// knownFlags are looked up in the downloader's help text
var knownFlags = []domain.FlagName{
	"no-playlist",
	"allow-unplayable-formats",
	"hls-prefer-ffmpeg",
	"hls-use-mpegts",
	"no-warnings",
	"list-formats",
	"dump-single-json",
	"skip-download",
	"cookies",
	"extract-audio",
	"concurrent-fragments",
}

// CapabilityProbe queries the downloader binary for its version and flags.
// The snapshot is replaced as a whole; when an eager probe and a late
// blocking probe race, the last one to finish wins.
type CapabilityProbe struct {
	runner   domain.ProcessRunner
	binary   string
	timeout  time.Duration
	flags    []domain.FlagName
	logger   *zap.Logger
	snapshot atomic.Pointer[domain.CapabilitySnapshot]
}

// NewCapabilityProbe creates a probe. extraFlags are scanned in addition to the built-in list.
func NewCapabilityProbe(runner domain.ProcessRunner, binary string, timeout time.Duration, extraFlags []string, logger *zap.Logger) *CapabilityProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	flags := append([]domain.FlagName{}, knownFlags...)
	for _, f := range extraFlags {
		flags = append(flags, domain.FlagName(strings.TrimLeft(f, "-")))
	}
	return &CapabilityProbe{
		runner:  runner,
		binary:  binary,
		timeout: timeout,
		flags:   flags,
		logger:  logger,
	}
}

// Start probes in the background
func (p *CapabilityProbe) Start(ctx context.Context) {
	go p.Probe(ctx)
}

// Current returns the stored snapshot, or nil if no probe has finished yet
func (p *CapabilityProbe) Current() *domain.CapabilitySnapshot {
	return p.snapshot.Load()
}

// Snapshot returns the stored snapshot, probing synchronously if none exists yet
func (p *CapabilityProbe) Snapshot(ctx context.Context) *domain.CapabilitySnapshot {
	if snap := p.snapshot.Load(); snap != nil {
		return snap
	}
	p.logger.Info("Capability snapshot not ready, probing synchronously")
	return p.Probe(ctx)
}

// Probe runs --version and --help and stores the result. It never fails;
// any error yields an unknown snapshot.
func (p *CapabilityProbe) Probe(ctx context.Context) *domain.CapabilitySnapshot {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	snap := p.probe(ctx)
	p.snapshot.Store(snap)
	return snap
}

func (p *CapabilityProbe) probe(ctx context.Context) *domain.CapabilitySnapshot {
	versionRes, err := p.runner.Run(ctx, p.binary, "--version")
	if err != nil || !versionRes.ExitedZero() {
		p.logger.Warn("Downloader version probe failed, continuing with minimal flags",
			zap.String("binary", p.binary), zap.Error(err))
		return domain.UnknownCapabilities()
	}

	helpRes, err := p.runner.Run(ctx, p.binary, "--help")
	if err != nil || !helpRes.ExitedZero() {
		p.logger.Warn("Downloader help probe failed, continuing with minimal flags",
			zap.String("binary", p.binary), zap.Error(err))
		return domain.UnknownCapabilities()
	}

	version := firstLine(versionRes.Stdout)
	snap := &domain.CapabilitySnapshot{
		Version:        &version,
		HelpText:       helpRes.Stdout,
		SupportedFlags: ParseSupportedFlags(helpRes.Stdout, p.flags),
		ProbedAt:       time.Now(),
	}

	p.logger.Info("Downloader capabilities probed",
		zap.String("version", version),
		zap.Strings("flags", snap.Flags()))
	return snap
}

// ParseSupportedFlags scans help text for each flag in its hyphen and underscore spelling
func ParseSupportedFlags(helpText string, flags []domain.FlagName) map[domain.FlagName]bool {
	help := strings.ToLower(helpText)
	supported := make(map[domain.FlagName]bool)
	for _, flag := range flags {
		hyphen := strings.ToLower(string(flag))
		underscore := strings.ReplaceAll(hyphen, "-", "_")
		if strings.Contains(help, hyphen) || strings.Contains(help, underscore) {
			supported[flag] = true
		}
	}
	return supported
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
