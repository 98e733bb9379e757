package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"influencer-hub-backend/internal/models"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// Buckets names the storage bucket for each kind of asset.
type Buckets struct {
	OrderImages   string
	Submissions   string
	ProfileImages string
}

// AssetService namespaces uploads by owner and order and pushes them to
// object storage.
type AssetService struct {
	store    ObjectStore
	buckets  Buckets
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

func NewAssetService(store ObjectStore, buckets Buckets, maxBytes int64, logger *zap.Logger) *AssetService {
	return &AssetService{
		store:    store,
		buckets:  buckets,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AssetService) WithClock(now func() time.Time) *AssetService {
	s.now = now
	return s
}

// SanitizeFilename replaces everything but ASCII letters, digits and dots
// with underscores and lowercases the result.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(unsafeFilenameChars.ReplaceAllString(name, "_"))
	if name == "" || strings.Trim(name, ".") == "" {
		return "file"
	}
	return name
}

// UploadOrderImage stores an order's reference image under orders/<order id>/.
func (s *AssetService) UploadOrderImage(ctx context.Context, orderID uuid.UUID, file models.FileUpload) (string, error) {
	path := fmt.Sprintf("orders/%s/%s", orderID, s.objectName(file.Filename))
	url, _, err := s.upload(ctx, s.buckets.OrderImages, path, file)
	return url, err
}

// UploadSubmission stores a deliverable under <order id>/ in the submissions
// bucket and returns both its public URL and storage path.
func (s *AssetService) UploadSubmission(ctx context.Context, orderID uuid.UUID, file models.FileUpload) (string, string, error) {
	path := fmt.Sprintf("%s/%s", orderID, s.objectName(file.Filename))
	return s.upload(ctx, s.buckets.Submissions, path, file)
}

func (s *AssetService) UploadProfileImage(ctx context.Context, userID string, file models.FileUpload) (string, error) {
	path := fmt.Sprintf("%s/%s", SanitizeFilename(userID), s.objectName(file.Filename))
	url, _, err := s.upload(ctx, s.buckets.ProfileImages, path, file)
	return url, err
}

// objectName prefixes the sanitized filename with the upload time, so
// repeated uploads of the same file never collide.
func (s *AssetService) objectName(filename string) string {
	return fmt.Sprintf("%d_%s", s.now().UnixMilli(), SanitizeFilename(filename))
}

func (s *AssetService) upload(ctx context.Context, bucket, path string, file models.FileUpload) (string, string, error) {
	if len(file.Data) == 0 {
		return "", "", fmt.Errorf("%w: empty file", models.ErrInvalidInput)
	}
	if s.maxBytes > 0 && int64(len(file.Data)) > s.maxBytes {
		return "", "", fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidInput, s.maxBytes)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}

	url, err := s.store.Upload(ctx, bucket, path, file.Data, contentType)
	if err != nil {
		s.logger.Error("upload failed",
			zap.String("bucket", bucket), zap.String("path", path), zap.Error(err))
		return "", "", err
	}

	s.logger.Debug("uploaded asset", zap.String("bucket", bucket), zap.String("path", path))
	return url, path, nil
}
