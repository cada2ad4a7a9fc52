package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// AuthorInput is the payload for creating an author.
type AuthorInput struct {
	Name               string `json:"nome_autor"`
	Affiliation        string `json:"afiliacao"`
	AffiliationAcronym string `json:"sigla_afiliacao"`
}

// ReferenceInput is the payload for creating a bibliographic reference.
type ReferenceInput struct {
	Link  string `json:"link"`
	Kind  string `json:"tipo"`
	Title string `json:"titulo"`
	Year  *int   `json:"ano"`
}

// listAll loads every row of T ordered by id.
func listAll[T any](ctx context.Context, conn *gorm.DB, what string) ([]T, error) {
	var rows []T
	if errFind := conn.WithContext(ctx).Order("id ASC").Find(&rows).Error; errFind != nil {
		return nil, apperr.Internal("list "+what+" failed", errFind)
	}
	return rows, nil
}

// createLookup inserts row and records a CREATE_LOOKUP audit entry with view as payload.
func createLookup[T schema.Tabler](ctx context.Context, s *Service, actor audit.Actor, row *T, id func(*T) uint64, view func(*T) any, conflict string) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		if errCreate := tx.Create(row).Error; errCreate != nil {
			return apperr.FromStore(errCreate, conflict, "invalid "+(*row).TableName()+" record")
		}
		table := (*row).TableName()
		entry := actor.Entry(audit.ActionCreateLookup, "created "+table+" record", table, id(row))
		entry.NewData = view(row)
		s.audit.LogTx(tx, entry)
		return nil
	})
}

func required(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperr.Validation(field + " is required")
	}
	return trimmed, nil
}

// ListAuthors returns all authors.
func (s *Service) ListAuthors(ctx context.Context) ([]AuthorView, error) {
	rows, err := listAll[models.Author](ctx, s.db, "authors")
	if err != nil {
		return nil, err
	}
	out := make([]AuthorView, 0, len(rows))
	for _, row := range rows {
		out = append(out, authorView(row))
	}
	return out, nil
}

// CreateAuthor inserts an author.
func (s *Service) CreateAuthor(ctx context.Context, actor audit.Actor, in AuthorInput) (AuthorView, error) {
	name, errName := required(in.Name, "nome_autor")
	if errName != nil {
		return AuthorView{}, errName
	}
	row := models.Author{
		Name:               name,
		Affiliation:        strings.TrimSpace(in.Affiliation),
		AffiliationAcronym: strings.TrimSpace(in.AffiliationAcronym),
	}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.Author) uint64 { return r.ID },
		func(r *models.Author) any { return authorView(*r) },
		"author already exists"); err != nil {
		return AuthorView{}, err
	}
	return authorView(row), nil
}

// ListProvinces returns all collection provinces.
func (s *Service) ListProvinces(ctx context.Context) ([]ProvinceView, error) {
	rows, err := listAll[models.Province](ctx, s.db, "provinces")
	if err != nil {
		return nil, err
	}
	out := make([]ProvinceView, 0, len(rows))
	for _, row := range rows {
		out = append(out, provinceView(row))
	}
	return out, nil
}

// CreateProvince inserts a province. Names are unique.
func (s *Service) CreateProvince(ctx context.Context, actor audit.Actor, name string) (ProvinceView, error) {
	name, errName := required(name, "nome_provincia")
	if errName != nil {
		return ProvinceView{}, errName
	}
	row := models.Province{Name: name}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.Province) uint64 { return r.ID },
		func(r *models.Province) any { return provinceView(*r) },
		"province already exists"); err != nil {
		return ProvinceView{}, err
	}
	return provinceView(row), nil
}

// ListReferences returns all bibliographic references.
func (s *Service) ListReferences(ctx context.Context) ([]ReferenceView, error) {
	rows, err := listAll[models.Reference](ctx, s.db, "references")
	if err != nil {
		return nil, err
	}
	out := make([]ReferenceView, 0, len(rows))
	for _, row := range rows {
		out = append(out, referenceView(row))
	}
	return out, nil
}

// CreateReference inserts a bibliographic reference.
func (s *Service) CreateReference(ctx context.Context, actor audit.Actor, in ReferenceInput) (ReferenceView, error) {
	kind := models.ReferenceKind(strings.TrimSpace(in.Kind))
	if !kind.Valid() {
		return ReferenceView{}, apperr.Validation("tipo must be one of URL, Article, Book, Thesis")
	}
	link := strings.TrimSpace(in.Link)
	title := strings.TrimSpace(in.Title)
	if link == "" && title == "" {
		return ReferenceView{}, apperr.Validation("link or titulo is required")
	}
	if in.Year != nil && (*in.Year < 1500 || *in.Year > s.now().Year()+1) {
		return ReferenceView{}, apperr.Validation(fmt.Sprintf("ano out of range: %d", *in.Year))
	}
	row := models.Reference{Link: link, Kind: kind, Title: title, Year: in.Year}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.Reference) uint64 { return r.ID },
		func(r *models.Reference) any { return referenceView(*r) },
		"reference already exists"); err != nil {
		return ReferenceView{}, err
	}
	return referenceView(row), nil
}

// ListParts returns all plant parts.
func (s *Service) ListParts(ctx context.Context) ([]PartView, error) {
	rows, err := listAll[models.PlantPart](ctx, s.db, "plant parts")
	if err != nil {
		return nil, err
	}
	out := make([]PartView, 0, len(rows))
	for _, row := range rows {
		out = append(out, PartView{ID: row.ID, Name: row.PartName})
	}
	return out, nil
}

// CreatePart inserts a plant part. Names are unique.
func (s *Service) CreatePart(ctx context.Context, actor audit.Actor, name string) (PartView, error) {
	name, errName := required(name, "nome_parte")
	if errName != nil {
		return PartView{}, errName
	}
	row := models.PlantPart{PartName: name}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.PlantPart) uint64 { return r.ID },
		func(r *models.PlantPart) any { return PartView{ID: r.ID, Name: r.PartName} },
		"plant part already exists"); err != nil {
		return PartView{}, err
	}
	return PartView{ID: row.ID, Name: row.PartName}, nil
}

// ListCompounds returns all chemical compounds.
func (s *Service) ListCompounds(ctx context.Context) ([]CompoundView, error) {
	rows, err := listAll[models.ChemicalCompound](ctx, s.db, "compounds")
	if err != nil {
		return nil, err
	}
	out := make([]CompoundView, 0, len(rows))
	for _, row := range rows {
		out = append(out, CompoundView{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

// CreateCompound inserts a chemical compound.
func (s *Service) CreateCompound(ctx context.Context, actor audit.Actor, name string) (CompoundView, error) {
	name, errName := required(name, "nome_composto")
	if errName != nil {
		return CompoundView{}, errName
	}
	row := models.ChemicalCompound{Name: name}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.ChemicalCompound) uint64 { return r.ID },
		func(r *models.ChemicalCompound) any { return CompoundView{ID: r.ID, Name: r.Name} },
		"compound already exists"); err != nil {
		return CompoundView{}, err
	}
	return CompoundView{ID: row.ID, Name: row.Name}, nil
}

// ListProperties returns all pharmacological properties.
func (s *Service) ListProperties(ctx context.Context) ([]TextView, error) {
	rows, err := listAll[models.PharmacologicalProperty](ctx, s.db, "properties")
	if err != nil {
		return nil, err
	}
	out := make([]TextView, 0, len(rows))
	for _, row := range rows {
		out = append(out, TextView{ID: row.ID, Description: row.Description})
	}
	return out, nil
}

// CreateProperty inserts a pharmacological property.
func (s *Service) CreateProperty(ctx context.Context, actor audit.Actor, description string) (TextView, error) {
	description, errDesc := required(description, "descricao")
	if errDesc != nil {
		return TextView{}, errDesc
	}
	row := models.PharmacologicalProperty{Description: description}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.PharmacologicalProperty) uint64 { return r.ID },
		func(r *models.PharmacologicalProperty) any { return TextView{ID: r.ID, Description: r.Description} },
		"property already exists"); err != nil {
		return TextView{}, err
	}
	return TextView{ID: row.ID, Description: row.Description}, nil
}

// ListIndications returns all therapeutic indications.
func (s *Service) ListIndications(ctx context.Context) ([]TextView, error) {
	rows, err := listAll[models.Indication](ctx, s.db, "indications")
	if err != nil {
		return nil, err
	}
	out := make([]TextView, 0, len(rows))
	for _, row := range rows {
		out = append(out, TextView{ID: row.ID, Description: row.Description})
	}
	return out, nil
}

// CreateIndication inserts a therapeutic indication.
func (s *Service) CreateIndication(ctx context.Context, actor audit.Actor, description string) (TextView, error) {
	description, errDesc := required(description, "descricao")
	if errDesc != nil {
		return TextView{}, errDesc
	}
	row := models.Indication{Description: description}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.Indication) uint64 { return r.ID },
		func(r *models.Indication) any { return TextView{ID: r.ID, Description: r.Description} },
		"indication already exists"); err != nil {
		return TextView{}, err
	}
	return TextView{ID: row.ID, Description: row.Description}, nil
}

// ListExtractionMethods returns all extraction methods.
func (s *Service) ListExtractionMethods(ctx context.Context) ([]TextView, error) {
	rows, err := listAll[models.ExtractionMethod](ctx, s.db, "extraction methods")
	if err != nil {
		return nil, err
	}
	out := make([]TextView, 0, len(rows))
	for _, row := range rows {
		out = append(out, TextView{ID: row.ID, Description: row.Description})
	}
	return out, nil
}

// CreateExtractionMethod inserts an extraction method.
func (s *Service) CreateExtractionMethod(ctx context.Context, actor audit.Actor, description string) (TextView, error) {
	description, errDesc := required(description, "descricao")
	if errDesc != nil {
		return TextView{}, errDesc
	}
	row := models.ExtractionMethod{Description: description}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.ExtractionMethod) uint64 { return r.ID },
		func(r *models.ExtractionMethod) any { return TextView{ID: r.ID, Description: r.Description} },
		"extraction method already exists"); err != nil {
		return TextView{}, err
	}
	return TextView{ID: row.ID, Description: row.Description}, nil
}

// ListPreparations returns all traditional preparations.
func (s *Service) ListPreparations(ctx context.Context) ([]TextView, error) {
	rows, err := listAll[models.TraditionalPreparation](ctx, s.db, "preparations")
	if err != nil {
		return nil, err
	}
	out := make([]TextView, 0, len(rows))
	for _, row := range rows {
		out = append(out, TextView{ID: row.ID, Description: row.Description})
	}
	return out, nil
}

// CreatePreparation inserts a traditional preparation.
func (s *Service) CreatePreparation(ctx context.Context, actor audit.Actor, description string) (TextView, error) {
	description, errDesc := required(description, "descricao")
	if errDesc != nil {
		return TextView{}, errDesc
	}
	row := models.TraditionalPreparation{Description: description}
	if err := createLookup(ctx, s, actor, &row,
		func(r *models.TraditionalPreparation) uint64 { return r.ID },
		func(r *models.TraditionalPreparation) any { return TextView{ID: r.ID, Description: r.Description} },
		"preparation already exists"); err != nil {
		return TextView{}, err
	}
	return TextView{ID: row.ID, Description: row.Description}, nil
}
