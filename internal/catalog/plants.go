package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/botany"
	"github.com/moz-herbarium/medplants/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PlantInput is the payload for creating a plant.
type PlantInput struct {
	ScientificName  string     `json:"nome_cientifico"`
	FamilyID        uint64     `json:"id_familia"`
	ExsiccataNumber string     `json:"numero_exsicata"`
	CommonNames     []string   `json:"nomes_comuns"`
	AuthorIDs       []uint64   `json:"autores_ids"`
	ProvinceIDs     []uint64   `json:"locais_ids"`
	ReferenceIDs    []uint64   `json:"referencias_ids"`
	PropertyIDs     []uint64   `json:"propriedades_ids"`
	CompoundIDs     []uint64   `json:"compostos_ids"`
	Uses            []UseInput `json:"usos"`
}

// PlantPatch is the payload for updating a plant. Nil fields are left unchanged.
type PlantPatch struct {
	ScientificName  *string   `json:"nome_cientifico"`
	FamilyID        *uint64   `json:"id_familia"`
	ExsiccataNumber *string   `json:"numero_exsicata"`
	CommonNames     *[]string `json:"nomes_comuns"`
}

func (p PlantPatch) empty() bool {
	return p.ScientificName == nil && p.FamilyID == nil && p.ExsiccataNumber == nil && p.CommonNames == nil
}

// GetPlant returns a plant with its family name and all relations.
func (s *Service) GetPlant(ctx context.Context, id uint64) (PlantDetail, error) {
	return s.loadPlantDetail(s.db.WithContext(ctx), id)
}

// CreatePlant inserts a plant with its common names, links and uses.
func (s *Service) CreatePlant(ctx context.Context, actor audit.Actor, in PlantInput) (PlantDetail, error) {
	name := strings.TrimSpace(in.ScientificName)
	if name == "" {
		return PlantDetail{}, apperr.Validation("nome_cientifico is required")
	}
	if in.FamilyID == 0 {
		return PlantDetail{}, apperr.Validation("id_familia is required")
	}
	for i, use := range in.Uses {
		if use.PartID == 0 {
			return PlantDetail{}, apperr.Validation(fmt.Sprintf("usos[%d].id_parte is required", i))
		}
	}

	canonical := botany.Canonicalize(name)
	plant := models.Plant{
		ScientificName:  name,
		CanonicalName:   canonical.Canonical,
		CanonicalID:     canonical.ID,
		ExsiccataNumber: strings.TrimSpace(in.ExsiccataNumber),
		FamilyID:        in.FamilyID,
		DateAdded:       s.now().UTC(),
	}

	var detail PlantDetail
	errTx := s.transaction(ctx, func(tx *gorm.DB) error {
		familyOK, errFamily := exists(tx, "families", in.FamilyID)
		if errFamily != nil {
			return errFamily
		}
		if !familyOK {
			return apperr.Integrity("unknown family")
		}
		if errCreate := tx.Create(&plant).Error; errCreate != nil {
			return apperr.FromStore(errCreate, "plant already exists", "unknown family")
		}
		if errNames := replaceCommonNames(tx, plant.ID, in.CommonNames); errNames != nil {
			return errNames
		}
		if errLinks := createPlantLinks(tx, plant.ID, in); errLinks != nil {
			return errLinks
		}
		for _, use := range in.Uses {
			use.PlantID = plant.ID
			if _, errUse := createUse(tx, use); errUse != nil {
				return errUse
			}
		}

		loaded, errLoad := s.loadPlantDetail(tx, plant.ID)
		if errLoad != nil {
			return errLoad
		}
		detail = loaded

		entry := actor.Entry(audit.ActionCreatePlant, "created plant "+plant.ScientificName, plant.TableName(), plant.ID)
		entry.NewData = detail.PlantSummary
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		return PlantDetail{}, errTx
	}
	return detail, nil
}

// UpdatePlant applies a partial update.
func (s *Service) UpdatePlant(ctx context.Context, actor audit.Actor, id uint64, patch PlantPatch) (PlantDetail, error) {
	if patch.empty() {
		return PlantDetail{}, apperr.Validation("no fields to update")
	}
	updates := make(map[string]any)
	if patch.ScientificName != nil {
		name := strings.TrimSpace(*patch.ScientificName)
		if name == "" {
			return PlantDetail{}, apperr.Validation("nome_cientifico cannot be empty")
		}
		canonical := botany.Canonicalize(name)
		updates["scientific_name"] = name
		updates["canonical_name"] = canonical.Canonical
		updates["canonical_id"] = canonical.ID
	}
	if patch.FamilyID != nil {
		if *patch.FamilyID == 0 {
			return PlantDetail{}, apperr.Validation("id_familia cannot be empty")
		}
		updates["family_id"] = *patch.FamilyID
	}
	if patch.ExsiccataNumber != nil {
		updates["exsiccata_number"] = strings.TrimSpace(*patch.ExsiccataNumber)
	}

	var detail PlantDetail
	errTx := s.transaction(ctx, func(tx *gorm.DB) error {
		before, errLoad := s.loadPlantDetail(tx, id)
		if errLoad != nil {
			return errLoad
		}
		if patch.FamilyID != nil {
			familyOK, errFamily := exists(tx, "families", *patch.FamilyID)
			if errFamily != nil {
				return errFamily
			}
			if !familyOK {
				return apperr.Integrity("unknown family")
			}
		}
		if len(updates) > 0 {
			updates["updated_at"] = s.now().UTC()
			if errUpdate := tx.Model(&models.Plant{}).Where("id = ?", id).Updates(updates).Error; errUpdate != nil {
				return apperr.FromStore(errUpdate, "plant already exists", "unknown family")
			}
		}
		if patch.CommonNames != nil {
			if errNames := replaceCommonNames(tx, id, *patch.CommonNames); errNames != nil {
				return errNames
			}
		}

		after, errReload := s.loadPlantDetail(tx, id)
		if errReload != nil {
			return errReload
		}
		detail = after

		entry := actor.Entry(audit.ActionUpdatePlant, "updated plant "+after.ScientificName, models.Plant{}.TableName(), id)
		entry.OldData = before.PlantSummary
		entry.NewData = after.PlantSummary
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		return PlantDetail{}, errTx
	}
	return detail, nil
}

// DeletePlant removes a plant with its common names, uses, images and join
// rows. Linked authors, provinces and other lookups survive.
func (s *Service) DeletePlant(ctx context.Context, actor audit.Actor, id uint64) error {
	var filenames []string
	errTx := s.transaction(ctx, func(tx *gorm.DB) error {
		before, errLoad := s.loadPlantDetail(tx, id)
		if errLoad != nil {
			return errLoad
		}
		for _, img := range before.Images {
			filenames = append(filenames, img.Filename)
		}

		useIDs := tx.Model(&models.PlantUse{}).Select("id").Where("plant_id = ?", id)
		steps := []struct {
			model any
			query string
			arg   any
		}{
			{&models.UseIndication{}, "use_id IN (?)", useIDs},
			{&models.UseExtractionMethod{}, "use_id IN (?)", useIDs},
			{&models.UsePreparation{}, "use_id IN (?)", useIDs},
			{&models.PlantUse{}, "plant_id = ?", id},
			{&models.CommonName{}, "plant_id = ?", id},
			{&models.PlantImage{}, "plant_id = ?", id},
			{&models.PlantAuthor{}, "plant_id = ?", id},
			{&models.PlantProvince{}, "plant_id = ?", id},
			{&models.PlantReference{}, "plant_id = ?", id},
			{&models.PlantCompound{}, "plant_id = ?", id},
			{&models.PlantProperty{}, "plant_id = ?", id},
		}
		for _, step := range steps {
			if errDelete := tx.Where(step.query, step.arg).Delete(step.model).Error; errDelete != nil {
				return apperr.Internal("delete plant relations failed", errDelete)
			}
		}
		if errDelete := tx.Delete(&models.Plant{}, id).Error; errDelete != nil {
			return apperr.FromStore(errDelete, "plant is referenced", "plant is referenced")
		}

		entry := actor.Entry(audit.ActionDeletePlant, "deleted plant "+before.ScientificName, models.Plant{}.TableName(), id)
		entry.OldData = before
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		return errTx
	}

	s.removeBlobs(filenames)
	return nil
}

func (s *Service) removeBlobs(filenames []string) {
	if s.blobs == nil {
		return
	}
	for _, name := range filenames {
		if errRemove := s.blobs.Remove(name); errRemove != nil {
			log.WithError(errRemove).WithField("filename", name).Warn("catalog: remove image blob failed")
		}
	}
}

// replaceCommonNames swaps the plant's common names for the trimmed, de-duplicated input.
func replaceCommonNames(tx *gorm.DB, plantID uint64, names []string) error {
	if errDelete := tx.Where("plant_id = ?", plantID).Delete(&models.CommonName{}).Error; errDelete != nil {
		return apperr.Internal("replace common names failed", errDelete)
	}
	seen := make(map[string]struct{}, len(names))
	rows := make([]models.CommonName, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, models.CommonName{PlantID: plantID, Name: name})
	}
	if len(rows) == 0 {
		return nil
	}
	if errCreate := tx.Create(&rows).Error; errCreate != nil {
		return apperr.Internal("store common names failed", errCreate)
	}
	return nil
}

// createPlantLinks inserts the join rows requested on plant creation.
func createPlantLinks(tx *gorm.DB, plantID uint64, in PlantInput) error {
	var rows []any
	for _, authorID := range uniqueIDs(in.AuthorIDs) {
		rows = append(rows, &models.PlantAuthor{PlantID: plantID, AuthorID: authorID})
	}
	for _, provinceID := range uniqueIDs(in.ProvinceIDs) {
		rows = append(rows, &models.PlantProvince{PlantID: plantID, ProvinceID: provinceID})
	}
	for _, referenceID := range uniqueIDs(in.ReferenceIDs) {
		rows = append(rows, &models.PlantReference{PlantID: plantID, ReferenceID: referenceID})
	}
	for _, propertyID := range uniqueIDs(in.PropertyIDs) {
		rows = append(rows, &models.PlantProperty{PlantID: plantID, PropertyID: propertyID})
	}
	for _, compoundID := range uniqueIDs(in.CompoundIDs) {
		rows = append(rows, &models.PlantCompound{PlantID: plantID, CompoundID: compoundID})
	}
	for _, row := range rows {
		if errCreate := tx.Create(row).Error; errCreate != nil {
			return apperr.FromStore(errCreate, "duplicate association", "unknown linked record")
		}
	}
	return nil
}
