package infrastructure

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
)

// CloudinaryHost implements domain.MediaHost on Cloudinary
type CloudinaryHost struct {
	config       *domain.MediaConfig
	logger       *zap.Logger
	uploadPrefix string // overrides the API endpoint when set
}

// NewCloudinaryHost creates a Cloudinary media host
func NewCloudinaryHost(config *domain.MediaConfig, logger *zap.Logger) (*CloudinaryHost, error) {
	if config.CloudName == "" || config.APIKey == "" || config.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudinaryHost{config: config, logger: logger}, nil
}

// Upload sends the file in a single request. The SDK chunks any file larger
// than its ChunkSize, so the limit is lifted for this call.
func (h *CloudinaryHost) Upload(ctx context.Context, path string, opts domain.UploadOptions) (string, error) {
	return h.upload(ctx, path, opts, math.MaxInt64)
}

// UploadChunked sends the file in chunkSize pieces
func (h *CloudinaryHost) UploadChunked(ctx context.Context, path string, opts domain.UploadOptions, chunkSize int64) (string, error) {
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	return h.upload(ctx, path, opts, chunkSize)
}

func (h *CloudinaryHost) upload(ctx context.Context, path string, opts domain.UploadOptions, chunkSize int64) (string, error) {
	cld, err := h.client()
	if err != nil {
		return "", err
	}
	cld.Upload.Config.API.ChunkSize = chunkSize

	res, err := cld.Upload.Upload(ctx, path, h.params(opts))
	return secureURL(res, err)
}

// client returns a new instance per call; ChunkSize is set per instance
func (h *CloudinaryHost) client() (*cloudinary.Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(h.config.CloudName, h.config.APIKey, h.config.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	if h.uploadPrefix != "" {
		cld.Upload.Config.API.UploadPrefix = h.uploadPrefix
	}
	return cld, nil
}

func (h *CloudinaryHost) params(opts domain.UploadOptions) uploader.UploadParams {
	folder := opts.Folder
	if folder == "" {
		folder = h.config.Folder
	}
	return uploader.UploadParams{
		ResourceType: string(opts.ResourceKind),
		Folder:       folder,
	}
}

// secureURL turns an upload response into a URL or a HostError
func secureURL(res *uploader.UploadResult, err error) (string, error) {
	if err != nil {
		return "", &domain.HostError{StatusCode: statusFromMessage(err.Error()), Message: err.Error()}
	}
	if res == nil {
		return "", &domain.HostError{Message: "empty upload response"}
	}
	if res.Error.Message != "" {
		return "", &domain.HostError{StatusCode: statusFromMessage(res.Error.Message), Message: res.Error.Message}
	}
	if res.SecureURL == "" {
		return "", &domain.HostError{Message: "upload response has no secure_url"}
	}
	return res.SecureURL, nil
}

// statusFromMessage recovers the size-limit status when the SDK only reports text
func statusFromMessage(msg string) int {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "file size too large") || strings.Contains(lower, strings.ToLower(http.StatusText(http.StatusRequestEntityTooLarge))) {
		return http.StatusRequestEntityTooLarge
	}
	return 0
}
