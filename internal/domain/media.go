package domain

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// ResourceKind is the remote host's classification of an uploaded file
type ResourceKind string

const (
	// ResourceRaw stores the file as-is; the host never transcodes it.
	ResourceRaw ResourceKind = "raw"
	// ResourceMedia lets the host treat the file as transcodable media.
	ResourceMedia ResourceKind = "video"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".webm": true,
	".opus": true,
	".ogg":  true,
	".oga":  true,
	".wav":  true,
	".flac": true,
}

// ClassifyResource picks the resource kind from the file extension
func ClassifyResource(path string) ResourceKind {
	if audioExtensions[strings.ToLower(filepath.Ext(path))] {
		return ResourceRaw
	}
	return ResourceMedia
}

// UploadOptions are passed to the media host
type UploadOptions struct {
	ResourceKind ResourceKind
	Folder       string
}

// UploadResult is produced once per successful upload
type UploadResult struct {
	RemoteURL    string       `json:"remoteUrl"`
	ResourceKind ResourceKind `json:"resourceKind"`
	Chunked      bool         `json:"chunked"`
	Bytes        int64        `json:"bytes"`
}

// MediaHost uploads local files and returns a durable URL
type MediaHost interface {
	Upload(ctx context.Context, path string, opts UploadOptions) (string, error)
	UploadChunked(ctx context.Context, path string, opts UploadOptions, chunkSize int64) (string, error)
}

// CookieRecord is one row of a Netscape cookie export
type CookieRecord struct {
	Domain             string
	IncludeSubdomains  bool
	Path               string
	Secure             bool
	ExpiryEpochSeconds int64
	Name               string
	Value              string
}

// CookieExpiry is the result of inspecting a cookie file
type CookieExpiry struct {
	ExpiresAt *time.Time `json:"expiresAt"`
	Entries   int        `json:"entries"`
}

// Expired reports whether the latest expiry is in the past relative to now
func (c *CookieExpiry) Expired(now time.Time) bool {
	return c != nil && c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}
