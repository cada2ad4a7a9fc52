package catalog

import (
	"context"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"gorm.io/gorm"
)

// Stats returns the public catalog counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	conn := s.db.WithContext(ctx)
	var out Stats
	counters := []struct {
		table string
		dest  *int64
	}{
		{"plants", &out.TotalPlants},
		{"families", &out.TotalFamilies},
		{"authors", &out.TotalAuthors},
		{"provinces", &out.TotalProvinces},
		{"bibliographic_references", &out.TotalReferences},
		{"common_names", &out.TotalCommonNames},
		{"plant_uses", &out.TotalUses},
		{"pharmacological_properties", &out.TotalProperties},
		{"chemical_compounds", &out.TotalCompounds},
		{"plant_images", &out.TotalImages},
	}
	for _, counter := range counters {
		if err := countTable(conn, counter.table, counter.dest); err != nil {
			return Stats{}, err
		}
	}
	return out, nil
}

func countTable(conn *gorm.DB, table string, dest *int64) error {
	if errCount := conn.Table(table).Count(dest).Error; errCount != nil {
		return apperr.Internal("count "+table+" failed", errCount)
	}
	return nil
}
