package models

// ReferenceKind enumerates bibliographic reference types.
type ReferenceKind string

// ReferenceKind values accepted by the catalog.
const (
	ReferenceKindURL     ReferenceKind = "URL"
	ReferenceKindArticle ReferenceKind = "Article"
	ReferenceKindBook    ReferenceKind = "Book"
	ReferenceKindThesis  ReferenceKind = "Thesis"
)

// Valid reports whether the kind is one of the known reference types.
func (k ReferenceKind) Valid() bool {
	switch k {
	case ReferenceKindURL, ReferenceKindArticle, ReferenceKindBook, ReferenceKindThesis:
		return true
	default:
		return false
	}
}

// Author is a collector or publication author.
type Author struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name               string `gorm:"type:varchar(255);not null;index"` // Full name.
	Affiliation        string `gorm:"type:varchar(255)"`                // Institution.
	AffiliationAcronym string `gorm:"type:varchar(50)"`                 // Institution acronym.
}

// TableName overrides the default table name.
func (Author) TableName() string {
	return "authors"
}

// Province is a collection site.
type Province struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`               // Primary key.
	Name string `gorm:"type:varchar(255);not null;uniqueIndex"` // Province name.
}

// TableName overrides the default table name.
func (Province) TableName() string {
	return "provinces"
}

// Reference is a bibliographic source.
type Reference struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Link  string        `gorm:"type:text"`                       // URL or citation link.
	Kind  ReferenceKind `gorm:"type:varchar(20);not null;index"` // Reference type.
	Title string        `gorm:"type:text"`                       // Title.
	Year  *int          `gorm:"index"`                           // Publication year.
}

// TableName overrides the default table name.
func (Reference) TableName() string {
	return "bibliographic_references"
}

// Indication is a therapeutic indication.
type Indication struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.
	Description string `gorm:"type:text;not null"`       // Indication text.
}

// TableName overrides the default table name.
func (Indication) TableName() string {
	return "indications"
}

// PlantPart is an anatomical part of a plant.
type PlantPart struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`               // Primary key.
	PartName string `gorm:"type:varchar(100);not null;uniqueIndex"` // Part name.
}

// TableName overrides the default table name.
func (PlantPart) TableName() string {
	return "plant_parts"
}

// PharmacologicalProperty is a reported pharmacological effect.
type PharmacologicalProperty struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.
	Description string `gorm:"type:text;not null"`       // Property text.
}

// TableName overrides the default table name.
func (PharmacologicalProperty) TableName() string {
	return "pharmacological_properties"
}

// ChemicalCompound is a compound identified in a plant.
type ChemicalCompound struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`         // Primary key.
	Name string `gorm:"type:varchar(255);not null;index"` // Compound name.
}

// TableName overrides the default table name.
func (ChemicalCompound) TableName() string {
	return "chemical_compounds"
}

// ExtractionMethod describes how an extract is obtained.
type ExtractionMethod struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.
	Description string `gorm:"type:text;not null"`       // Method text.
}

// TableName overrides the default table name.
func (ExtractionMethod) TableName() string {
	return "extraction_methods"
}

// TraditionalPreparation describes a traditional way of preparing a remedy.
type TraditionalPreparation struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.
	Description string `gorm:"type:text;not null"`       // Preparation text.
}

// TableName overrides the default table name.
func (TraditionalPreparation) TableName() string {
	return "traditional_preparations"
}
