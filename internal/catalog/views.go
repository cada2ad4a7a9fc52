package catalog

import (
	"time"

	"github.com/moz-herbarium/medplants/internal/models"
)

// FamilyView is the JSON shape of a family.
type FamilyView struct {
	ID          uint64 `json:"id"`
	Name        string `json:"nome_familia"`
	TotalPlants *int64 `json:"total_plantas,omitempty"`
}

// PlantSummary is a plant row in paged listings.
type PlantSummary struct {
	ID              uint64    `json:"id"`
	ScientificName  string    `json:"nome_cientifico"`
	CanonicalName   string    `json:"nome_canonico"`
	CanonicalID     string    `json:"id_canonico"`
	ExsiccataNumber string    `json:"numero_exsicata"`
	DateAdded       time.Time `json:"data_adicao"`
	FamilyID        uint64    `json:"id_familia"`
	FamilyName      string    `json:"nome_familia"`
	CommonNames     []string  `json:"nomes_comuns"`
}

// PlantDetail is a plant with all of its relations resolved.
type PlantDetail struct {
	PlantSummary
	Authors     []AuthorView    `json:"autores"`
	Provinces   []ProvinceView  `json:"locais"`
	Uses        []UseView       `json:"usos"`
	Properties  []TextView      `json:"propriedades"`
	Compounds   []CompoundView  `json:"compostos"`
	References  []ReferenceView `json:"referencias"`
	Images      []ImageView     `json:"imagens"`
	LastUpdated time.Time       `json:"data_actualizacao"`
}

// AuthorView is the JSON shape of an author.
type AuthorView struct {
	ID                 uint64 `json:"id"`
	Name               string `json:"nome_autor"`
	Affiliation        string `json:"afiliacao"`
	AffiliationAcronym string `json:"sigla_afiliacao"`
}

// ProvinceView is the JSON shape of a collection province.
type ProvinceView struct {
	ID   uint64 `json:"id"`
	Name string `json:"nome_provincia"`
}

// TextView is the JSON shape of description-only lookups.
type TextView struct {
	ID          uint64 `json:"id"`
	Description string `json:"descricao"`
}

// CompoundView is the JSON shape of a chemical compound.
type CompoundView struct {
	ID   uint64 `json:"id"`
	Name string `json:"nome_composto"`
}

// PartView is the JSON shape of a plant part.
type PartView struct {
	ID   uint64 `json:"id"`
	Name string `json:"nome_parte"`
}

// ReferenceView is the JSON shape of a bibliographic reference.
type ReferenceView struct {
	ID    uint64               `json:"id"`
	Link  string               `json:"link"`
	Kind  models.ReferenceKind `json:"tipo"`
	Title string               `json:"titulo"`
	Year  *int                 `json:"ano"`
}

// UseView is a plant use with its linked lookups.
type UseView struct {
	ID                uint64     `json:"id"`
	PlantID           uint64     `json:"id_planta"`
	PlantName         string     `json:"nome_cientifico,omitempty"`
	PartID            uint64     `json:"id_parte"`
	PartName          string     `json:"parte_usada"`
	Notes             string     `json:"observacoes"`
	Indications       []TextView `json:"indicacoes"`
	ExtractionMethods []TextView `json:"metodos_extracao"`
	Preparations      []TextView `json:"preparacoes"`
}

// ImageView is the JSON shape of image metadata.
type ImageView struct {
	ID         uint64    `json:"id"`
	PlantID    uint64    `json:"id_planta"`
	Filename   string    `json:"nome_arquivo"`
	Order      int       `json:"ordem"`
	Caption    string    `json:"legenda"`
	UploadedAt time.Time `json:"data_upload"`
}

// PlantPage is one page of plant summaries.
type PlantPage struct {
	Items       []PlantSummary `json:"items"`
	Total       int64          `json:"total"`
	Pages       int            `json:"pages"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
}

// Stats are the public catalog counters.
type Stats struct {
	TotalPlants      int64 `json:"total_plants"`
	TotalFamilies    int64 `json:"total_families"`
	TotalAuthors     int64 `json:"total_authors"`
	TotalProvinces   int64 `json:"total_provinces"`
	TotalReferences  int64 `json:"total_references"`
	TotalCommonNames int64 `json:"total_common_names"`
	TotalUses        int64 `json:"total_uses"`
	TotalProperties  int64 `json:"total_properties"`
	TotalCompounds   int64 `json:"total_compounds"`
	TotalImages      int64 `json:"total_images"`
}

func familyView(f models.Family) FamilyView {
	return FamilyView{ID: f.ID, Name: f.Name}
}

func authorView(a models.Author) AuthorView {
	return AuthorView{ID: a.ID, Name: a.Name, Affiliation: a.Affiliation, AffiliationAcronym: a.AffiliationAcronym}
}

func provinceView(p models.Province) ProvinceView {
	return ProvinceView{ID: p.ID, Name: p.Name}
}

func referenceView(r models.Reference) ReferenceView {
	return ReferenceView{ID: r.ID, Link: r.Link, Kind: r.Kind, Title: r.Title, Year: r.Year}
}

// ImageViewOf converts an image row.
func ImageViewOf(img models.PlantImage) ImageView {
	return ImageView{
		ID:         img.ID,
		PlantID:    img.PlantID,
		Filename:   img.Filename,
		Order:      img.Order,
		Caption:    img.Caption,
		UploadedAt: img.UploadedAt,
	}
}
