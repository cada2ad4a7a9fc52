// Package catalog implements the botanical catalog: families, plants, their
// satellite lookups and the associations between them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"gorm.io/gorm"
)

// BlobRemover deletes stored image bytes by filename.
type BlobRemover interface {
	Remove(filename string) error
}

// Service holds catalog operations over the shared store.
type Service struct {
	db    *gorm.DB
	audit *audit.Writer
	blobs BlobRemover
	now   func() time.Time
}

// NewService constructs a catalog service.
func NewService(db *gorm.DB, auditWriter *audit.Writer) *Service {
	return &Service{db: db, audit: auditWriter, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithBlobs sets the store used to remove image bytes after plant deletion.
func (s *Service) WithBlobs(blobs BlobRemover) *Service {
	s.blobs = blobs
	return s
}

func (s *Service) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// exists reports whether table has a row with the given id.
func exists(tx *gorm.DB, table string, id uint64) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if errCount := tx.Table(table).Where("id = ?", id).Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("check %s %d: %w", table, id, errCount)
	}
	return count > 0, nil
}

// notFound converts gorm.ErrRecordNotFound into a tagged 404.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(message)
	}
	return err
}

// uniqueIDs drops zeros and duplicates while keeping order.
func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
