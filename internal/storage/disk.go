package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/repair-report-service/internal/config"
	apperrors "github.com/spec-kit/repair-report-service/pkg/util"
)

// BlobStore persists report attachments and returns the server-relative
// path recorded on the report. Binary content never lands in the database.
type BlobStore interface {
	Save(ctx context.Context, originalName string, size int64, content io.Reader) (string, error)
}

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// DiskStore writes uploads under a static-served directory, keyed by
// upload timestamp plus the original file extension.
type DiskStore struct {
	dir     string
	baseURL string
	maxSize int64
	logger  *zap.Logger
}

// NewDiskStore prepares the upload directory.
func NewDiskStore(cfg config.UploadConfig, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{
		dir:     cfg.Dir,
		baseURL: cfg.PublicBaseURL,
		maxSize: cfg.MaxSizeBytes,
		logger:  logger,
	}, nil
}

// Save stores the attachment and returns its public path.
func (s *DiskStore) Save(_ context.Context, originalName string, size int64, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", apperrors.NewValidationError("unsupported image type", map[string]any{"extension": ext})
	}
	if s.maxSize > 0 && size > s.maxSize {
		return "", apperrors.NewValidationError("image too large", map[string]any{"maxBytes": s.maxSize})
	}

	name := fmt.Sprintf("%d%s", time.Now().UnixMilli(), ext)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	public := path.Join(s.baseURL, name)
	s.logger.Debug("stored attachment", zap.String("path", public))
	return public, nil
}
