// Package storage hosts uploaded images. Objects are addressed by an opaque
// identifier (the object key) and served from a stable public URL.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/model"
)

// ErrInvalidImageType is returned when an upload declares an unknown type.
var ErrInvalidImageType = errors.New("invalid image type")

// Object is a hosted blob.
type Object struct {
	URL string `json:"url"`
	ID  string `json:"public_id"`
}

// BlobStore is the image host used by the question workflow.
type BlobStore interface {
	// Upload streams r into folder under name.
	Upload(ctx context.Context, folder, name, contentType string, r io.Reader) (Object, error)
	// Delete removes the object with the given identifier.
	Delete(ctx context.Context, id string) error
	// Hosts reports whether rawURL points at this store.
	Hosts(rawURL string) bool
	// IDFromURL recovers the identifier of a hosted URL.
	IDFromURL(rawURL string) (string, bool)
}

// Folders maps (approval tier, image type) to a destination folder.
type Folders struct {
	approved   map[model.ImageType]string
	unapproved map[model.ImageType]string
}

// NewFolders builds the folder table from configuration.
func NewFolders(f config.BlobFolders) Folders {
	return Folders{
		approved: map[model.ImageType]string{
			model.ImageQuestion: f.ApprovedQuestion,
			model.ImageSolution: f.ApprovedSolution,
			model.ImageDetailed: f.ApprovedDetailed,
		},
		unapproved: map[model.ImageType]string{
			model.ImageQuestion: f.UnapprovedQuestion,
			model.ImageSolution: f.UnapprovedSolution,
			model.ImageDetailed: f.UnapprovedDetailed,
		},
	}
}

// For selects the folder for an upload. Admin and teacher uploads go to the
// approved tier, everyone else to the unapproved tier.
func (f Folders) For(role model.Role, t model.ImageType) (string, error) {
	if !t.Valid() {
		return "", ErrInvalidImageType
	}
	if role.IsApprovalTier() {
		return f.approved[t], nil
	}
	return f.unapproved[t], nil
}

// objectKey joins folder and name into a slash-separated key.
func objectKey(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// escapeKey escapes every segment of key for use in a URL path.
func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// keyFromURL strips base from rawURL and returns the decoded object key.
func keyFromURL(base, rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, base+"/") {
		return "", false
	}
	rest := strings.TrimPrefix(rawURL, base+"/")
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	key = strings.Trim(key, "/")
	if key == "" || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return "", false
	}
	return key, true
}
