package catalog

import (
	"context"
	"strings"

	"github.com/moz-herbarium/medplants/internal/apperr"
	dbutil "github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/models"
	"github.com/moz-herbarium/medplants/internal/paging"
	"gorm.io/gorm"
)

// DefaultPlantsPerPage is the plant list page size when none is given.
const DefaultPlantsPerPage = 20

// PlantQuery filters the plant listing.
type PlantQuery struct {
	Page     int
	PerPage  int
	Search   string
	Kind     models.SearchKind
	FamilyID uint64
	Client   SearchClient
}

// ListPlants returns one page of plants ordered by id. A non-empty search
// is recorded in the search log.
func (s *Service) ListPlants(ctx context.Context, q PlantQuery) (PlantPage, error) {
	params := paging.Normalize(q.Page, q.PerPage, DefaultPlantsPerPage)
	term := strings.TrimSpace(q.Search)
	kind := q.Kind
	if kind == "" {
		kind = models.SearchKindScientific
	}

	conn := s.db.WithContext(ctx)
	base := conn.Model(&models.Plant{})
	if q.FamilyID > 0 {
		base = base.Where("plants.family_id = ?", q.FamilyID)
	}
	if term != "" {
		base = applySearch(conn, base, term, kind)
	}

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		return PlantPage{}, apperr.Internal("count plants failed", errCount)
	}

	var plants []models.Plant
	if errFind := base.
		Order("plants.id ASC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&plants).Error; errFind != nil {
		return PlantPage{}, apperr.Internal("list plants failed", errFind)
	}

	items, errSummaries := summarize(conn, plants)
	if errSummaries != nil {
		return PlantPage{}, errSummaries
	}

	if term != "" {
		s.logSearch(ctx, term, kind, q.Client, total)
	}

	return PlantPage{
		Items:       items,
		Total:       total,
		Pages:       paging.Pages(total, params.PerPage),
		CurrentPage: params.Page,
		PerPage:     params.PerPage,
	}, nil
}

// applySearch restricts base to plants matching term for the given kind.
func applySearch(conn, base *gorm.DB, term string, kind models.SearchKind) *gorm.DB {
	pattern := dbutil.ContainsPattern(conn, term)
	byCommonName := conn.Model(&models.CommonName{}).
		Select("plant_id").
		Where(dbutil.CaseInsensitiveLikeExpr(conn, "common_name"), pattern)

	switch kind {
	case models.SearchKindCommonName:
		return base.Where("plants.id IN (?)", byCommonName)
	case models.SearchKindFamily:
		byFamily := conn.Model(&models.Family{}).
			Select("id").
			Where(dbutil.CaseInsensitiveLikeExpr(conn, "name"), pattern)
		return base.Where("plants.family_id IN (?)", byFamily)
	case models.SearchKindIndication:
		byIndication := conn.Table("plant_uses").
			Select("plant_uses.plant_id").
			Joins("JOIN use_indications ON use_indications.use_id = plant_uses.id").
			Joins("JOIN indications ON indications.id = use_indications.indication_id").
			Where(dbutil.CaseInsensitiveLikeExpr(conn, "indications.description"), pattern)
		return base.Where("plants.id IN (?)", byIndication)
	default:
		return base.Where(
			conn.Where(dbutil.CaseInsensitiveLikeExpr(conn, "plants.scientific_name"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(conn, "plants.canonical_name"), pattern).
				Or("plants.id IN (?)", byCommonName),
		)
	}
}

// summarize resolves family names and common names for a batch of plants.
func summarize(conn *gorm.DB, plants []models.Plant) ([]PlantSummary, error) {
	out := make([]PlantSummary, 0, len(plants))
	if len(plants) == 0 {
		return out, nil
	}

	plantIDs := make([]uint64, 0, len(plants))
	familyIDs := make([]uint64, 0, len(plants))
	for _, plant := range plants {
		plantIDs = append(plantIDs, plant.ID)
		familyIDs = append(familyIDs, plant.FamilyID)
	}

	var families []models.Family
	if errFind := conn.Where("id IN ?", uniqueIDs(familyIDs)).Find(&families).Error; errFind != nil {
		return nil, apperr.Internal("load families failed", errFind)
	}
	familyNames := make(map[uint64]string, len(families))
	for _, family := range families {
		familyNames[family.ID] = family.Name
	}

	var names []models.CommonName
	if errFind := conn.Where("plant_id IN ?", plantIDs).Order("id ASC").Find(&names).Error; errFind != nil {
		return nil, apperr.Internal("load common names failed", errFind)
	}
	commonNames := make(map[uint64][]string, len(plants))
	for _, name := range names {
		commonNames[name.PlantID] = append(commonNames[name.PlantID], name.Name)
	}

	for _, plant := range plants {
		list := commonNames[plant.ID]
		if list == nil {
			list = []string{}
		}
		out = append(out, PlantSummary{
			ID:              plant.ID,
			ScientificName:  plant.ScientificName,
			CanonicalName:   plant.CanonicalName,
			CanonicalID:     plant.CanonicalID,
			ExsiccataNumber: plant.ExsiccataNumber,
			DateAdded:       plant.DateAdded,
			FamilyID:        plant.FamilyID,
			FamilyName:      familyNames[plant.FamilyID],
			CommonNames:     list,
		})
	}
	return out, nil
}

// loadPlantDetail loads a plant and each relation with one query per relation.
func (s *Service) loadPlantDetail(conn *gorm.DB, id uint64) (PlantDetail, error) {
	var plant models.Plant
	if errFind := conn.First(&plant, id).Error; errFind != nil {
		return PlantDetail{}, notFound(errFind, "plant not found")
	}
	summaries, errSummary := summarize(conn, []models.Plant{plant})
	if errSummary != nil {
		return PlantDetail{}, errSummary
	}

	detail := PlantDetail{
		PlantSummary: summaries[0],
		Authors:      []AuthorView{},
		Provinces:    []ProvinceView{},
		Properties:   []TextView{},
		Compounds:    []CompoundView{},
		References:   []ReferenceView{},
		Images:       []ImageView{},
		LastUpdated:  plant.UpdatedAt,
	}

	var authors []models.Author
	if errFind := conn.Model(&models.Author{}).
		Joins("JOIN plant_authors ON plant_authors.author_id = authors.id").
		Where("plant_authors.plant_id = ?", id).
		Order("authors.id ASC").
		Find(&authors).Error; errFind != nil {
		return PlantDetail{}, apperr.Internal("load plant authors failed", errFind)
	}
	for _, author := range authors {
		detail.Authors = append(detail.Authors, authorView(author))
	}

	var provinces []models.Province
	if errFind := conn.Model(&models.Province{}).
		Joins("JOIN plant_provinces ON plant_provinces.province_id = provinces.id").
		Where("plant_provinces.plant_id = ?", id).
		Order("provinces.id ASC").
		Find(&provinces).Error; errFind != nil {
		return PlantDetail{}, apperr.Internal("load plant provinces failed", errFind)
	}
	for _, province := range provinces {
		detail.Provinces = append(detail.Provinces, provinceView(province))
	}

	var properties []models.PharmacologicalProperty
	if errFind := conn.Model(&models.PharmacologicalProperty{}).
		Joins("JOIN plant_properties ON plant_properties.property_id = pharmacological_properties.id").
		Where("plant_properties.plant_id = ?", id).
		Order("pharmacological_properties.id ASC").
		Find(&properties).Error; errFind != nil {
		return PlantDetail{}, apperr.Internal("load plant properties failed", errFind)
	}
	for _, property := range properties {
		detail.Properties = append(detail.Properties, TextView{ID: property.ID, Description: property.Description})
	}

	var compounds []models.ChemicalCompound
	if errFind := conn.Model(&models.ChemicalCompound{}).
		Joins("JOIN plant_compounds ON plant_compounds.compound_id = chemical_compounds.id").
		Where("plant_compounds.plant_id = ?", id).
		Order("chemical_compounds.id ASC").
		Find(&compounds).Error; errFind != nil {
		return PlantDetail{}, apperr.Internal("load plant compounds failed", errFind)
	}
	for _, compound := range compounds {
		detail.Compounds = append(detail.Compounds, CompoundView{ID: compound.ID, Name: compound.Name})
	}

	var references []models.Reference
	if errFind := conn.Model(&models.Reference{}).
		Joins("JOIN plant_references ON plant_references.reference_id = bibliographic_references.id").
		Where("plant_references.plant_id = ?", id).
		Order("bibliographic_references.id ASC").
		Find(&references).Error; errFind != nil {
		return PlantDetail{}, apperr.Internal("load plant references failed", errFind)
	}
	for _, reference := range references {
		detail.References = append(detail.References, referenceView(reference))
	}

	uses, errUses := loadUses(conn, func(q *gorm.DB) *gorm.DB {
		return q.Where("plant_uses.plant_id = ?", id)
	})
	if errUses != nil {
		return PlantDetail{}, errUses
	}
	detail.Uses = uses

	var images []models.PlantImage
	if errFind := conn.Where("plant_id = ?", id).Order("display_order ASC, id ASC").Find(&images).Error; errFind != nil {
		return PlantDetail{}, apperr.Internal("load plant images failed", errFind)
	}
	for _, img := range images {
		detail.Images = append(detail.Images, ImageViewOf(img))
	}

	return detail, nil
}
