package catalog

import (
	"context"
	"strings"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm"
)

// familyRow is the query result row for family listings.
type familyRow struct {
	ID          uint64 `gorm:"column:id"`
	Name        string `gorm:"column:name"`
	TotalPlants int64  `gorm:"column:total_plants"`
}

func (r familyRow) view() FamilyView {
	total := r.TotalPlants
	return FamilyView{ID: r.ID, Name: r.Name, TotalPlants: &total}
}

func familyQuery(tx *gorm.DB) *gorm.DB {
	return tx.Table("families").
		Select("families.id, families.name, COUNT(plants.id) AS total_plants").
		Joins("LEFT JOIN plants ON plants.family_id = families.id").
		Group("families.id, families.name")
}

// ListFamilies returns all families ordered by id with their plant counts.
func (s *Service) ListFamilies(ctx context.Context) ([]FamilyView, error) {
	var rows []familyRow
	if errFind := familyQuery(s.db.WithContext(ctx)).Order("families.id ASC").Scan(&rows).Error; errFind != nil {
		return nil, apperr.Internal("list families failed", errFind)
	}
	out := make([]FamilyView, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.view())
	}
	return out, nil
}

// GetFamily returns one family.
func (s *Service) GetFamily(ctx context.Context, id uint64) (FamilyView, error) {
	var rows []familyRow
	if errFind := familyQuery(s.db.WithContext(ctx)).Where("families.id = ?", id).Scan(&rows).Error; errFind != nil {
		return FamilyView{}, apperr.Internal("load family failed", errFind)
	}
	if len(rows) == 0 {
		return FamilyView{}, apperr.NotFound("family not found")
	}
	return rows[0].view(), nil
}

// CreateFamily inserts a family. Names are unique.
func (s *Service) CreateFamily(ctx context.Context, actor audit.Actor, name string) (FamilyView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return FamilyView{}, apperr.Validation("nome_familia is required")
	}

	family := models.Family{Name: name, CreatedAt: s.now().UTC()}
	errTx := s.transaction(ctx, func(tx *gorm.DB) error {
		if errCreate := tx.Create(&family).Error; errCreate != nil {
			return apperr.FromStore(errCreate, "family already exists", "invalid family")
		}
		entry := actor.Entry(audit.ActionCreateFamily, "created family "+family.Name, family.TableName(), family.ID)
		entry.NewData = familyView(family)
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		return FamilyView{}, errTx
	}
	return familyView(family), nil
}
