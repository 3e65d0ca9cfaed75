package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores images on disk. The router serves Dir under /uploads.
type Local struct {
	dir  string
	base string
}

var _ BlobStore = (*Local)(nil)

// NewLocal stores files under dir and builds URLs as <publicBaseURL>/uploads/<key>.
func NewLocal(dir, publicBaseURL string) *Local {
	return &Local{
		dir:  dir,
		base: strings.TrimRight(publicBaseURL, "/") + "/uploads",
	}
}

// Dir returns the root directory of stored files.
func (s *Local) Dir() string { return s.dir }

func (s *Local) Upload(_ context.Context, folder, name, _ string, r io.Reader) (Object, error) {
	key := objectKey(folder, name)
	destPath, err := s.path(key)
	if err != nil {
		return Object{}, err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(destPath)
	if err != nil {
		return Object{}, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(destPath)
		return Object{}, fmt.Errorf("write file: %w", err)
	}

	return Object{URL: s.base + "/" + escapeKey(key), ID: key}, nil
}

func (s *Local) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *Local) Hosts(rawURL string) bool {
	return strings.HasPrefix(rawURL, s.base+"/")
}

func (s *Local) IDFromURL(rawURL string) (string, bool) {
	return keyFromURL(s.base, rawURL)
}

// path resolves key inside dir, refusing keys that escape it.
func (s *Local) path(key string) (string, error) {
	p := filepath.Join(s.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.dir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}
