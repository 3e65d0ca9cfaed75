package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/storage"
	"github.com/rs/zerolog"
)

// Allowed image MIME types.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaService routes image uploads to the blob store folder matching the
// uploader's approval tier and the declared image type.
type MediaService struct {
	cfg     *config.Config
	blobs   storage.BlobStore
	folders storage.Folders
	log     zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, blobs storage.BlobStore, log zerolog.Logger) *MediaService {
	return &MediaService{
		cfg:     cfg,
		blobs:   blobs,
		folders: storage.NewFolders(cfg.BlobFolders),
		log:     log.With().Str("component", "media_service").Logger(),
	}
}

// Upload checks the file and streams it to the blob store. A failed upload
// is reported once; there is no retry.
func (s *MediaService) Upload(ctx context.Context, role model.Role, imageType model.ImageType, file multipart.File, header *multipart.FileHeader) (storage.Object, error) {
	folder, err := s.folders.For(role, imageType)
	if err != nil {
		return storage.Object{}, err
	}

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return storage.Object{}, fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return storage.Object{}, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	name := uuid.New().String() + ext
	obj, err := s.blobs.Upload(ctx, folder, name, contentType, file)
	if err != nil {
		s.log.Error().Err(err).Str("folder", folder).Msg("Image upload failed")
		return storage.Object{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	s.log.Info().
		Str("folder", folder).
		Str("image_id", obj.ID).
		Str("role", string(role)).
		Msg("Image uploaded")
	return obj, nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
