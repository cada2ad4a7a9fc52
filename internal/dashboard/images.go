package dashboard

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/catalog"
	"github.com/moz-herbarium/medplants/internal/imagestore"
	"github.com/moz-herbarium/medplants/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ImageUpload describes one image attached to a plant. Body may be nil when
// only metadata is recorded. Size is the declared size, or -1 when unknown.
type ImageUpload struct {
	Filename string
	Size     int64
	Caption  string
	Order    int
	Body     io.Reader
}

// AttachImage validates the upload, stores its bytes and records the PlantImage row.
func (s *Service) AttachImage(ctx context.Context, actor audit.Actor, plantID uint64, upload ImageUpload) (catalog.ImageView, error) {
	original := strings.TrimSpace(upload.Filename)
	if original == "" {
		return catalog.ImageView{}, apperr.Validation("image file is required")
	}
	if !imagestore.AllowedExtension(original) {
		return catalog.ImageView{}, apperr.Validation("unsupported image type").
			WithDetails(map[string]any{"allowed": []string{"png", "jpg", "jpeg", "gif", "webp"}})
	}
	if upload.Size > imagestore.MaxImageBytes {
		return catalog.ImageView{}, ImageTooLarge()
	}
	if errPlant := s.requirePlant(ctx, plantID); errPlant != nil {
		return catalog.ImageView{}, errPlant
	}

	filename := imagestore.UniqueFilename(original)
	stored := false
	if s.blobs != nil && upload.Body != nil {
		if _, errSave := s.blobs.Save(filename, upload.Body); errSave != nil {
			if errors.Is(errSave, imagestore.ErrTooLarge) {
				return catalog.ImageView{}, ImageTooLarge()
			}
			return catalog.ImageView{}, apperr.Internal("store image failed", errSave)
		}
		stored = true
	}

	image := models.PlantImage{
		PlantID:    plantID,
		Filename:   filename,
		Order:      upload.Order,
		Caption:    strings.TrimSpace(upload.Caption),
		UploadedAt: s.now().UTC(),
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&image).Error; errCreate != nil {
			return apperr.FromStore(errCreate, "image filename already exists", "plant not found")
		}
		entry := actor.Entry(audit.ActionUploadImage, "uploaded image "+filename, image.TableName(), image.ID)
		entry.NewData = catalog.ImageViewOf(image)
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		if stored {
			s.removeBlob(filename)
		}
		return catalog.ImageView{}, errTx
	}
	return catalog.ImageViewOf(image), nil
}

// ListImages returns a plant's images ordered by display order.
func (s *Service) ListImages(ctx context.Context, plantID uint64) ([]catalog.ImageView, error) {
	if errPlant := s.requirePlant(ctx, plantID); errPlant != nil {
		return nil, errPlant
	}
	var rows []models.PlantImage
	if errFind := s.db.WithContext(ctx).
		Where("plant_id = ?", plantID).
		Order("display_order ASC, id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, apperr.Internal("list images failed", errFind)
	}
	out := make([]catalog.ImageView, 0, len(rows))
	for _, row := range rows {
		out = append(out, catalog.ImageViewOf(row))
	}
	return out, nil
}

// DeleteImage removes an image row and then its bytes.
func (s *Service) DeleteImage(ctx context.Context, actor audit.Actor, imageID uint64) error {
	var image models.PlantImage
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		errFind := tx.Where("id = ?", imageID).First(&image).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return apperr.NotFound("image not found")
		}
		if errFind != nil {
			return apperr.Internal("load image failed", errFind)
		}
		if errDelete := tx.Delete(&models.PlantImage{}, image.ID).Error; errDelete != nil {
			return apperr.Internal("delete image failed", errDelete)
		}
		entry := actor.Entry(audit.ActionDeleteImage, "deleted image "+image.Filename, image.TableName(), image.ID)
		entry.OldData = catalog.ImageViewOf(image)
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		return errTx
	}
	s.removeBlob(image.Filename)
	return nil
}

func (s *Service) requirePlant(ctx context.Context, plantID uint64) error {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.Plant{}).Where("id = ?", plantID).Count(&count).Error; errCount != nil {
		return apperr.Internal("load plant failed", errCount)
	}
	if count == 0 {
		return apperr.NotFound("plant not found")
	}
	return nil
}

func (s *Service) removeBlob(filename string) {
	if s.blobs == nil {
		return
	}
	if errRemove := s.blobs.Remove(filename); errRemove != nil {
		log.WithError(errRemove).WithField("filename", filename).Warn("dashboard: remove image blob failed")
	}
}

// ImageTooLarge is the error returned for uploads over imagestore.MaxImageBytes.
func ImageTooLarge() *apperr.Error {
	return apperr.Validation("image too large").WithDetails(map[string]any{"max_bytes": imagestore.MaxImageBytes})
}
