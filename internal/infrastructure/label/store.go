// Package label converts raw carrier label assets into printable files
// and persists them in a retrievable store.
package label

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// Store persists label files and serves their URLs.
type Store interface {
	// Store saves a label file and returns its path and URL. Files are
	// written once under a generated name and never overwritten.
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
	// Get retrieves a stored label by its path.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes a stored label.
	Delete(ctx context.Context, path string) error
	// CleanupOlderThan removes labels older than the given age.
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
	// GetURL returns the accessible URL for a stored label.
	GetURL(path string) string
}

// StoreRequest contains the parameters for storing a label file.
type StoreRequest struct {
	// Extension is the file extension without the dot (png, pdf, zpl).
	Extension string
	// ContentType is the MIME type recorded with the file.
	ContentType string
	// Data is the raw file content.
	Data []byte
}

// StoreResult contains the result of storing a label file.
type StoreResult struct {
	// Path is the storage path relative to the store's base.
	Path string
	// URL is the accessible URL for the label.
	URL string
	// Size is the file size in bytes.
	Size int64
}

// FileSystemStoreConfig contains configuration for file system storage.
type FileSystemStoreConfig struct {
	// BasePath is the root directory for label storage.
	BasePath string
	// BaseURL is the URL prefix labels are served under.
	BaseURL string
	// Logger for operations.
	Logger *zap.Logger
}

// FileSystemStore stores label files on the local file system.
type FileSystemStore struct {
	config *FileSystemStoreConfig
	logger *zap.Logger
}

// NewFileSystemStore creates a file system based label store.
func NewFileSystemStore(config *FileSystemStoreConfig) (*FileSystemStore, error) {
	if config == nil {
		config = &FileSystemStoreConfig{}
	}
	if config.BasePath == "" {
		config.BasePath = "/data/labels"
	}
	if config.BaseURL == "" {
		config.BaseURL = "/api/v1/labels"
	}

	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("label store: failed to create storage directory %s: %w", config.BasePath, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemStore{config: config, logger: logger}, nil
}

// Store saves a label file under {base}/{year}/{month}/{uuid}.{ext}.
func (s *FileSystemStore) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if req == nil {
		return nil, fmt.Errorf("label store: store request is nil")
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("label store: %w: label data is empty", shipping.ErrLabelUnavailable)
	}
	ext := strings.TrimPrefix(req.Extension, ".")
	if ext == "" {
		ext = "bin"
	}

	now := time.Now()
	relDir := filepath.Join(
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
	)
	if err := os.MkdirAll(filepath.Join(s.config.BasePath, relDir), 0755); err != nil {
		return nil, fmt.Errorf("label store: failed to create directory: %w", err)
	}

	fileName := uuid.NewString() + "." + ext
	relPath := filepath.Join(relDir, fileName)
	fullPath := filepath.Join(s.config.BasePath, relPath)

	if err := os.WriteFile(fullPath, req.Data, 0644); err != nil {
		return nil, fmt.Errorf("label store: failed to write label file: %w", err)
	}

	url := s.GetURL(relPath)
	s.logger.Info("label stored",
		zap.String("path", fullPath),
		zap.Int("size", len(req.Data)),
		zap.String("url", url))

	return &StoreResult{
		Path: relPath,
		URL:  url,
		Size: int64(len(req.Data)),
	}, nil
}

// Get retrieves a stored label by its relative path.
func (s *FileSystemStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shipping.ErrLabelUnavailable
		}
		return nil, fmt.Errorf("label store: failed to open label file: %w", err)
	}
	return file, nil
}

// Delete removes a stored label. Missing files are not an error.
func (s *FileSystemStore) Delete(ctx context.Context, path string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("label store: failed to delete label file: %w", err)
	}
	s.logger.Info("label deleted", zap.String("path", path))
	return nil
}

// CleanupOlderThan removes label files older than the given age.
func (s *FileSystemStore) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	deleted := 0

	err := filepath.Walk(s.config.BasePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
				s.logger.Debug("deleted old label", zap.String("path", path))
			}
		}
		return nil
	})
	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return deleted, fmt.Errorf("label store: cleanup walk failed: %w", err)
	}

	s.logger.Info("label cleanup completed",
		zap.Int("deleted", deleted),
		zap.Duration("age", age))
	return deleted, nil
}

// GetURL returns the accessible URL for a stored label.
func (s *FileSystemStore) GetURL(path string) string {
	cleanPath := filepath.ToSlash(filepath.Clean(path))
	return fmt.Sprintf("%s/%s", s.config.BaseURL, cleanPath)
}

// resolve sanitizes a relative path and verifies it stays under BasePath.
func (s *FileSystemStore) resolve(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if filepath.IsAbs(cleanPath) || containsDotDot(path) {
		s.logger.Warn("blocked potentially malicious path", zap.String("path", path))
		return "", fmt.Errorf("label store: invalid path")
	}

	fullPath := filepath.Join(s.config.BasePath, cleanPath)
	absBase, err := filepath.Abs(s.config.BasePath)
	if err != nil {
		return "", fmt.Errorf("label store: failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("label store: failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		s.logger.Warn("path escape attempt blocked",
			zap.String("path", path),
			zap.String("absPath", absPath))
		return "", fmt.Errorf("label store: invalid path")
	}
	return fullPath, nil
}

// containsDotDot checks the raw path for ".." components before any
// normalization.
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}

var _ Store = (*FileSystemStore)(nil)
