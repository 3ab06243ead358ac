// Package storage provides the blob store for signed XML files and tenant
// certificates.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/ports/external"
)

// FilesystemStore keeps blobs under a base directory. Paths are
// tenant-prefixed by the callers; traversal outside the base is rejected.
type FilesystemStore struct {
	baseDir string
}

// NewFilesystemStore creates a store rooted at baseDir.
func NewFilesystemStore(baseDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", baseDir, err)
	}
	return &FilesystemStore{baseDir: baseDir}, nil
}

var _ external.BlobStore = (*FilesystemStore)(nil)

func (s *FilesystemStore) resolve(path string) (string, error) {
	full := filepath.Join(s.baseDir, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: invalid blob path %q", apperrors.ErrValidation, path)
	}
	return full, nil
}

// Upload writes data and returns the stored path.
func (s *FilesystemStore) Upload(ctx context.Context, path string, data []byte) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("failed to create blob dir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	return path, nil
}

// Download reads a blob back.
func (s *FilesystemStore) Download(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: blob %s", apperrors.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}
