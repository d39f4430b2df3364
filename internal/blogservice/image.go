package blogservice

import (
	"context"
	"errors"

	"github.com/sushihentaime/blogsphere/internal/common"
)

const (
	MinImageSize = 1 << 10
	MaxImageSize = 2 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

func validateUpload(v *common.Validator, field string, up *Upload) {
	v.Check(allowedImageTypes[up.ContentType], field, "must be a jpeg, png or webp image")
	v.Check(len(up.Data) >= MinImageSize, field, "must be at least 1KB")
	v.Check(len(up.Data) <= MaxImageSize, field, "must not be larger than 2MB")
}

// ValidateUpload checks an image before it is stored.
func ValidateUpload(field string, up *Upload) error {
	v := common.NewValidator()
	validateUpload(v, field, up)
	if !v.Valid() {
		return v.ValidationError()
	}
	return nil
}

// SaveImage stores up, reusing an identical stored image when there is one. created reports
// whether a new row was inserted; only a created image may be released on failure.
func (s *BlogService) SaveImage(ctx context.Context, up *Upload) (img *Image, created bool, err error) {
	if err := ValidateUpload("image", up); err != nil {
		return nil, false, err
	}

	return saveImage(ctx, s.store, up)
}

func saveImage(ctx context.Context, store ImageStore, up *Upload) (*Image, bool, error) {
	size := int64(len(up.Data))

	img, err := store.FindImage(ctx, up.Data, size, up.ContentType)
	switch {
	case err == nil:
		return img, false, nil
	case !errors.Is(err, common.ErrRecordNotFound):
		return nil, false, common.WrapStorage("find image", err)
	}

	img = &Image{
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Size:        size,
		Data:        up.Data,
	}
	if err := store.InsertImage(ctx, img); err != nil {
		return nil, false, common.WrapStorage("insert image", err)
	}

	return img, true, nil
}

// ReleaseImage deletes the image unless a blog banner or a profile photo still uses it.
// It runs to completion even if ctx is cancelled.
func (s *BlogService) ReleaseImage(ctx context.Context, id int64) {
	deleted, err := s.store.DeleteImageIfOrphan(context.WithoutCancel(ctx), id)
	if err != nil {
		s.logger.Warn("could not release image", "image_id", id, "error", err)
		return
	}

	if deleted {
		s.logger.Debug("released orphaned image", "image_id", id)
	}
}

func (s *BlogService) GetImage(ctx context.Context, id int64) (*Image, error) {
	v := common.NewValidator()
	validateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.store.GetImage(ctx, id)
}
