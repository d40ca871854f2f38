package domain

import (
	"context"
	"sort"
	"strings"
	"time"
)

// ProcessResult is the captured outcome of one external tool invocation.
// ExitCode is advisory; callers decide success from observable artifacts.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined returns stdout followed by stderr
func (r *ProcessResult) Combined() string {
	if r == nil {
		return ""
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// ExitedZero reports whether the process exited with status 0
func (r *ProcessResult) ExitedZero() bool {
	return r != nil && r.ExitCode == 0
}

// ProcessRunner runs external tools.
//
// Run returns an error only when the process could not be started or was
// killed by the context; a non-zero exit is reported through ExitCode.
type ProcessRunner interface {
	Run(ctx context.Context, name string, args ...string) (*ProcessResult, error)
}

// FlagName is a downloader command-line flag without leading dashes, e.g. "no-playlist"
type FlagName string

// CapabilitySnapshot describes what the installed downloader binary supports.
// It is immutable once built; a new probe replaces the whole value.
type CapabilitySnapshot struct {
	Version        *string           `json:"version"`
	HelpText       string            `json:"-"`
	SupportedFlags map[FlagName]bool `json:"-"`
	ProbedAt       time.Time         `json:"probedAt"`
}

// UnknownCapabilities is the snapshot used when probing failed
func UnknownCapabilities() *CapabilitySnapshot {
	return &CapabilitySnapshot{
		SupportedFlags: map[FlagName]bool{},
		ProbedAt:       time.Now(),
	}
}

// Known reports whether probing produced any data
func (s *CapabilitySnapshot) Known() bool {
	return s != nil && s.Version != nil
}

// Supports reports whether the flag was confirmed by the probe
func (s *CapabilitySnapshot) Supports(flag FlagName) bool {
	if s == nil {
		return false
	}
	return s.SupportedFlags[FlagName(strings.TrimLeft(string(flag), "-"))]
}

// Flags returns the supported flags in sorted order
func (s *CapabilitySnapshot) Flags() []string {
	if s == nil {
		return []string{}
	}
	flags := make([]string, 0, len(s.SupportedFlags))
	for f, ok := range s.SupportedFlags {
		if ok {
			flags = append(flags, string(f))
		}
	}
	sort.Strings(flags)
	return flags
}

// DownloadStrategy is one rung of the fallback ladder
type DownloadStrategy struct {
	FormatSelector string   `json:"formatSelector"`
	ExtraArgs      []string `json:"extraArgs,omitempty"`
}

// AttemptOutcome is the result kind of a single attempt
type AttemptOutcome string

const (
	AttemptSucceeded AttemptOutcome = "success"
	AttemptFailed    AttemptOutcome = "failure"
)

// DownloadAttemptResult records one strategy attempt. Not persisted.
type DownloadAttemptResult struct {
	Strategy       DownloadStrategy `json:"strategy"`
	Outcome        AttemptOutcome   `json:"outcome"`
	FilePath       string           `json:"filePath,omitempty"`
	ErrorSignature string           `json:"error,omitempty"`
	Retried        bool             `json:"retried,omitempty"`
}

// DownloadRequest describes a single download
type DownloadRequest struct {
	SourceURL   string
	OutputPath  string
	CookiesPath string // optional
}

// DownloadResult represents the result of a download operation
type DownloadResult struct {
	FilePath string
	Strategy DownloadStrategy
	Attempts []DownloadAttemptResult
	Cleanups int // partial outputs removed after failed attempts
}

// Downloader fetches audio for a source URL to a local file
type Downloader interface {
	Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error)
}

// TranscodeResult is either an output path or a skip reason
type TranscodeResult struct {
	OutputPath string
	Skipped    bool
	Reason     string
}

const SkipToolNotFound = "tool-not-found"

// Transcoder normalizes a downloaded file. Failures are reported as skips.
type Transcoder interface {
	TryTranscode(ctx context.Context, inputPath string) TranscodeResult
}

// SourceMetadata is optional information about the source track
type SourceMetadata struct {
	Title     string  `json:"title"`
	Uploader  string  `json:"uploader"`
	Thumbnail string  `json:"thumbnail"`
	Duration  float64 `json:"duration"`
}
