package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FSImageStore keeps images in a local directory that the server exposes
// under baseURL.
type FSImageStore struct { // implements ImageStore
	dir     string
	baseURL string
}

var _ ImageStore = (*FSImageStore)(nil)

func NewFSImageStore(dir, baseURL string) *FSImageStore {
	return &FSImageStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *FSImageStore) Dir() string {
	return s.dir
}

func (s *FSImageStore) path(objectName string) (string, error) {
	if objectName == "" || objectName != filepath.Base(objectName) || strings.HasPrefix(objectName, ".") {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	return filepath.Join(s.dir, objectName), nil
}

// UploadImage refuses to overwrite an existing object.
func (s *FSImageStore) UploadImage(ctx context.Context, objectName string, data []byte) error {
	p, err := s.path(objectName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return f.Close()
}

func (s *FSImageStore) PublicURL(objectName string) string {
	return s.baseURL + "/" + url.PathEscape(objectName)
}

// DeleteImage treats a missing object as already deleted.
func (s *FSImageStore) DeleteImage(ctx context.Context, objectName string) error {
	p, err := s.path(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}
