package catalog

import (
	"context"
	"strings"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm"
)

// UseInput is the payload for recording that a part of a plant is used.
type UseInput struct {
	PlantID             uint64   `json:"id_planta"`
	PartID              uint64   `json:"id_parte"`
	Notes               string   `json:"observacoes"`
	IndicationIDs       []uint64 `json:"indicacoes_ids"`
	ExtractionMethodIDs []uint64 `json:"metodos_extracao_ids"`
	PreparationIDs      []uint64 `json:"preparacoes_ids"`
}

// useRow is the query result row for plant uses.
type useRow struct {
	ID        uint64 `gorm:"column:id"`
	PlantID   uint64 `gorm:"column:plant_id"`
	PlantName string `gorm:"column:scientific_name"`
	PartID    uint64 `gorm:"column:part_id"`
	PartName  string `gorm:"column:part_name"`
	Notes     string `gorm:"column:notes"`
}

// useLinkRow is a lookup row tagged with the use it belongs to.
type useLinkRow struct {
	UseID       uint64 `gorm:"column:use_id"`
	ID          uint64 `gorm:"column:id"`
	Description string `gorm:"column:description"`
}

// ListUses returns every plant use with its linked lookups.
func (s *Service) ListUses(ctx context.Context) ([]UseView, error) {
	return loadUses(s.db.WithContext(ctx), nil)
}

// CreateUse records a plant use with its indication, method and preparation links.
func (s *Service) CreateUse(ctx context.Context, actor audit.Actor, in UseInput) (UseView, error) {
	if in.PlantID == 0 {
		return UseView{}, apperr.Validation("id_planta is required")
	}
	if in.PartID == 0 {
		return UseView{}, apperr.Validation("id_parte is required")
	}

	var view UseView
	errTx := s.transaction(ctx, func(tx *gorm.DB) error {
		plantOK, errPlant := exists(tx, "plants", in.PlantID)
		if errPlant != nil {
			return errPlant
		}
		if !plantOK {
			return apperr.NotFound("plant not found")
		}
		use, errCreate := createUse(tx, in)
		if errCreate != nil {
			return errCreate
		}
		views, errLoad := loadUses(tx, func(q *gorm.DB) *gorm.DB {
			return q.Where("plant_uses.id = ?", use.ID)
		})
		if errLoad != nil {
			return errLoad
		}
		if len(views) == 0 {
			return apperr.Internal("reload plant use failed", nil)
		}
		view = views[0]

		entry := actor.Entry(audit.ActionCreateLookup, "created plant use", use.TableName(), use.ID)
		entry.NewData = view
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		return UseView{}, errTx
	}
	return view, nil
}

// createUse inserts the use row and its links inside tx.
func createUse(tx *gorm.DB, in UseInput) (models.PlantUse, error) {
	partOK, errPart := exists(tx, "plant_parts", in.PartID)
	if errPart != nil {
		return models.PlantUse{}, errPart
	}
	if !partOK {
		return models.PlantUse{}, apperr.Integrity("unknown plant part")
	}

	use := models.PlantUse{PlantID: in.PlantID, PartID: in.PartID, Notes: strings.TrimSpace(in.Notes)}
	if errCreate := tx.Create(&use).Error; errCreate != nil {
		return models.PlantUse{}, apperr.FromStore(errCreate, "duplicate plant use", "unknown plant or part")
	}

	var rows []any
	for _, id := range uniqueIDs(in.IndicationIDs) {
		rows = append(rows, &models.UseIndication{UseID: use.ID, IndicationID: id})
	}
	for _, id := range uniqueIDs(in.ExtractionMethodIDs) {
		rows = append(rows, &models.UseExtractionMethod{UseID: use.ID, MethodID: id})
	}
	for _, id := range uniqueIDs(in.PreparationIDs) {
		rows = append(rows, &models.UsePreparation{UseID: use.ID, PreparationID: id})
	}
	for _, row := range rows {
		if errCreate := tx.Create(row).Error; errCreate != nil {
			return models.PlantUse{}, apperr.FromStore(errCreate, "duplicate association", "unknown indication, extraction method or preparation")
		}
	}
	return use, nil
}

// loadUses loads plant uses matching scope and attaches their lookups in three batch queries.
func loadUses(conn *gorm.DB, scope func(*gorm.DB) *gorm.DB) ([]UseView, error) {
	query := conn.Table("plant_uses").
		Select("plant_uses.id, plant_uses.plant_id, plants.scientific_name, plant_uses.part_id, plant_parts.part_name, plant_uses.notes").
		Joins("JOIN plants ON plants.id = plant_uses.plant_id").
		Joins("JOIN plant_parts ON plant_parts.id = plant_uses.part_id")
	if scope != nil {
		query = scope(query)
	}
	var rows []useRow
	if errFind := query.Order("plant_uses.id ASC").Scan(&rows).Error; errFind != nil {
		return nil, apperr.Internal("load plant uses failed", errFind)
	}

	out := make([]UseView, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	useIDs := make([]uint64, 0, len(rows))
	for _, row := range rows {
		useIDs = append(useIDs, row.ID)
	}

	indications, errInd := loadUseLinks(conn, "indications", "use_indications", "indication_id", useIDs)
	if errInd != nil {
		return nil, errInd
	}
	methods, errMethods := loadUseLinks(conn, "extraction_methods", "use_extraction_methods", "method_id", useIDs)
	if errMethods != nil {
		return nil, errMethods
	}
	preparations, errPrep := loadUseLinks(conn, "traditional_preparations", "use_preparations", "preparation_id", useIDs)
	if errPrep != nil {
		return nil, errPrep
	}

	for _, row := range rows {
		out = append(out, UseView{
			ID:                row.ID,
			PlantID:           row.PlantID,
			PlantName:         row.PlantName,
			PartID:            row.PartID,
			PartName:          row.PartName,
			Notes:             row.Notes,
			Indications:       nonNil(indications[row.ID]),
			ExtractionMethods: nonNil(methods[row.ID]),
			Preparations:      nonNil(preparations[row.ID]),
		})
	}
	return out, nil
}

func loadUseLinks(conn *gorm.DB, table, joinTable, fkColumn string, useIDs []uint64) (map[uint64][]TextView, error) {
	var rows []useLinkRow
	if errFind := conn.Table(table).
		Select(joinTable+".use_id, "+table+".id, "+table+".description").
		Joins("JOIN "+joinTable+" ON "+joinTable+"."+fkColumn+" = "+table+".id").
		Where(joinTable+".use_id IN ?", useIDs).
		Order(table + ".id ASC").
		Scan(&rows).Error; errFind != nil {
		return nil, apperr.Internal("load "+table+" failed", errFind)
	}
	out := make(map[uint64][]TextView, len(useIDs))
	for _, row := range rows {
		out[row.UseID] = append(out[row.UseID], TextView{ID: row.ID, Description: row.Description})
	}
	return out, nil
}

func nonNil(list []TextView) []TextView {
	if list == nil {
		return []TextView{}
	}
	return list
}
