// Package dashboard serves back-office aggregates, plant image metadata and
// the audit trail listing.
package dashboard

import (
	"context"
	"io"
	"time"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm"
)

// Report sizes used when the caller does not ask for one.
const (
	DefaultRecentPlants = 10
	DefaultTopFamilies  = 8
	DefaultTopSearches  = 10
	maxReportSize       = 100
)

// BlobStore persists image bytes.
type BlobStore interface {
	Save(name string, r io.Reader) (int64, error)
	Remove(name string) error
}

// Service holds dashboard operations.
type Service struct {
	db    *gorm.DB
	audit *audit.Writer
	blobs BlobStore
	now   func() time.Time
}

// NewService constructs a dashboard service. blobs may be nil, in which case
// only image metadata is recorded.
func NewService(db *gorm.DB, auditWriter *audit.Writer, blobs BlobStore) *Service {
	return &Service{db: db, audit: auditWriter, blobs: blobs, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Stats are the back-office counters.
type Stats struct {
	TotalPlants     int64 `json:"total_plants"`
	TotalFamilies   int64 `json:"total_families"`
	TotalAuthors    int64 `json:"total_authors"`
	TotalProvinces  int64 `json:"total_provinces"`
	TotalReferences int64 `json:"total_references"`
	ActiveUsers     int64 `json:"active_users"`
	LockedUsers     int64 `json:"locked_users"`
	ActiveSessions  int64 `json:"active_sessions"`
}

// RecentPlant is one row of the recent plants report.
type RecentPlant struct {
	ID             uint64    `json:"id"`
	ScientificName string    `json:"nome_cientifico"`
	FamilyID       uint64    `json:"id_familia"`
	FamilyName     string    `json:"nome_familia"`
	DateAdded      time.Time `json:"data_adicao"`
}

// FamilyCount is one row of the top families report.
type FamilyCount struct {
	ID          uint64 `json:"id"`
	Name        string `json:"nome_familia"`
	TotalPlants int64  `json:"total_plantas"`
}

// Stats returns the dashboard counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	conn := s.db.WithContext(ctx)
	now := s.now().UTC()

	var out Stats
	counters := []struct {
		name  string
		query *gorm.DB
		dest  *int64
	}{
		{"plants", conn.Model(&models.Plant{}), &out.TotalPlants},
		{"families", conn.Model(&models.Family{}), &out.TotalFamilies},
		{"authors", conn.Model(&models.Author{}), &out.TotalAuthors},
		{"provinces", conn.Model(&models.Province{}), &out.TotalProvinces},
		{"references", conn.Model(&models.Reference{}), &out.TotalReferences},
		{"active users", conn.Model(&models.User{}).Where("active = ?", true), &out.ActiveUsers},
		{"locked users", conn.Model(&models.User{}).Where("locked_until IS NOT NULL AND locked_until > ?", now), &out.LockedUsers},
		{"active sessions", conn.Model(&models.Session{}).Where("active = ? AND expires_at > ?", true, now), &out.ActiveSessions},
	}
	for _, counter := range counters {
		if errCount := counter.query.Count(counter.dest).Error; errCount != nil {
			return Stats{}, apperr.Internal("count "+counter.name+" failed", errCount)
		}
	}
	return out, nil
}

// RecentPlants returns the most recently added plants, newest first.
func (s *Service) RecentPlants(ctx context.Context, limit int) ([]RecentPlant, error) {
	limit = reportSize(limit, DefaultRecentPlants)
	var rows []RecentPlant
	errFind := s.db.WithContext(ctx).
		Table("plants").
		Select("plants.id, plants.scientific_name, plants.family_id, families.name AS family_name, plants.date_added").
		Joins("JOIN families ON families.id = plants.family_id").
		Order("plants.date_added DESC, plants.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if errFind != nil {
		return nil, apperr.Internal("list recent plants failed", errFind)
	}
	if rows == nil {
		rows = []RecentPlant{}
	}
	return rows, nil
}

// TopFamilies returns the families with the most plants.
func (s *Service) TopFamilies(ctx context.Context, limit int) ([]FamilyCount, error) {
	limit = reportSize(limit, DefaultTopFamilies)
	var rows []FamilyCount
	errFind := s.db.WithContext(ctx).
		Table("families").
		Select("families.id, families.name, COUNT(plants.id) AS total_plants").
		Joins("LEFT JOIN plants ON plants.family_id = families.id").
		Group("families.id, families.name").
		Order("total_plants DESC, families.name ASC").
		Limit(limit).
		Scan(&rows).Error
	if errFind != nil {
		return nil, apperr.Internal("list top families failed", errFind)
	}
	if rows == nil {
		rows = []FamilyCount{}
	}
	return rows, nil
}

func reportSize(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxReportSize {
		return maxReportSize
	}
	return limit
}
