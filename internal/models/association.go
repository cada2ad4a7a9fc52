package models

// PlantAuthor links a plant to an author.
type PlantAuthor struct {
	PlantID  uint64  `gorm:"primaryKey;autoIncrement:false"`                  // Plant ID.
	Plant    *Plant  `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`  // Linked plant.
	AuthorID uint64  `gorm:"primaryKey;autoIncrement:false;index"`            // Author ID.
	Author   *Author `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"` // Linked author.
}

// TableName overrides the default table name.
func (PlantAuthor) TableName() string { return "plant_authors" }

// PlantProvince links a plant to a collection province.
type PlantProvince struct {
	PlantID    uint64    `gorm:"primaryKey;autoIncrement:false"`                    // Plant ID.
	Plant      *Plant    `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`    // Linked plant.
	ProvinceID uint64    `gorm:"primaryKey;autoIncrement:false;index"`              // Province ID.
	Province   *Province `gorm:"foreignKey:ProvinceID;constraint:OnDelete:CASCADE"` // Linked province.
}

// TableName overrides the default table name.
func (PlantProvince) TableName() string { return "plant_provinces" }

// PlantReference links a plant to a bibliographic reference.
type PlantReference struct {
	PlantID     uint64     `gorm:"primaryKey;autoIncrement:false"`                     // Plant ID.
	Plant       *Plant     `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`     // Linked plant.
	ReferenceID uint64     `gorm:"primaryKey;autoIncrement:false;index"`               // Reference ID.
	Reference   *Reference `gorm:"foreignKey:ReferenceID;constraint:OnDelete:CASCADE"` // Linked reference.
}

// TableName overrides the default table name.
func (PlantReference) TableName() string { return "plant_references" }

// PlantCompound links a plant to a chemical compound.
type PlantCompound struct {
	PlantID    uint64            `gorm:"primaryKey;autoIncrement:false"`                    // Plant ID.
	Plant      *Plant            `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`    // Linked plant.
	CompoundID uint64            `gorm:"primaryKey;autoIncrement:false;index"`              // Compound ID.
	Compound   *ChemicalCompound `gorm:"foreignKey:CompoundID;constraint:OnDelete:CASCADE"` // Linked compound.
}

// TableName overrides the default table name.
func (PlantCompound) TableName() string { return "plant_compounds" }

// PlantProperty links a plant to a pharmacological property.
type PlantProperty struct {
	PlantID    uint64                   `gorm:"primaryKey;autoIncrement:false"`                    // Plant ID.
	Plant      *Plant                   `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`    // Linked plant.
	PropertyID uint64                   `gorm:"primaryKey;autoIncrement:false;index"`              // Property ID.
	Property   *PharmacologicalProperty `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"` // Linked property.
}

// TableName overrides the default table name.
func (PlantProperty) TableName() string { return "plant_properties" }

// UseIndication links a plant use to a therapeutic indication.
type UseIndication struct {
	UseID        uint64      `gorm:"primaryKey;autoIncrement:false"`                      // Plant use ID.
	Use          *PlantUse   `gorm:"foreignKey:UseID;constraint:OnDelete:CASCADE"`        // Linked use.
	IndicationID uint64      `gorm:"primaryKey;autoIncrement:false;index"`                // Indication ID.
	Indication   *Indication `gorm:"foreignKey:IndicationID;constraint:OnDelete:CASCADE"` // Linked indication.
}

// TableName overrides the default table name.
func (UseIndication) TableName() string { return "use_indications" }

// UseExtractionMethod links a plant use to an extraction method.
type UseExtractionMethod struct {
	UseID    uint64            `gorm:"primaryKey;autoIncrement:false"`                  // Plant use ID.
	Use      *PlantUse         `gorm:"foreignKey:UseID;constraint:OnDelete:CASCADE"`    // Linked use.
	MethodID uint64            `gorm:"primaryKey;autoIncrement:false;index"`            // Extraction method ID.
	Method   *ExtractionMethod `gorm:"foreignKey:MethodID;constraint:OnDelete:CASCADE"` // Linked method.
}

// TableName overrides the default table name.
func (UseExtractionMethod) TableName() string { return "use_extraction_methods" }

// UsePreparation links a plant use to a traditional preparation.
type UsePreparation struct {
	UseID         uint64                  `gorm:"primaryKey;autoIncrement:false"`                       // Plant use ID.
	Use           *PlantUse               `gorm:"foreignKey:UseID;constraint:OnDelete:CASCADE"`         // Linked use.
	PreparationID uint64                  `gorm:"primaryKey;autoIncrement:false;index"`                 // Traditional preparation ID.
	Preparation   *TraditionalPreparation `gorm:"foreignKey:PreparationID;constraint:OnDelete:CASCADE"` // Linked preparation.
}

// TableName overrides the default table name.
func (UsePreparation) TableName() string { return "use_preparations" }

// AuthorRole is the role an author plays on a reference.
type AuthorRole string

// AuthorRole values.
const (
	AuthorRoleFirst         AuthorRole = "first"
	AuthorRoleCorresponding AuthorRole = "corresponding"
	AuthorRoleCoauthor      AuthorRole = "coauthor"
)

// Valid reports whether the role is known.
func (r AuthorRole) Valid() bool {
	switch r {
	case AuthorRoleFirst, AuthorRoleCorresponding, AuthorRoleCoauthor:
		return true
	default:
		return false
	}
}

// AuthorReference links an author to a reference with ordering and role.
type AuthorReference struct {
	AuthorID    uint64     `gorm:"primaryKey;autoIncrement:false"`                     // Author ID.
	Author      *Author    `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`    // Linked author.
	ReferenceID uint64     `gorm:"primaryKey;autoIncrement:false;index"`               // Reference ID.
	Reference   *Reference `gorm:"foreignKey:ReferenceID;constraint:OnDelete:CASCADE"` // Linked reference.
	Order       int        `gorm:"column:author_order;not null;default:0"`             // Position in the author list.
	Role        AuthorRole `gorm:"type:varchar(20);not null;default:'coauthor'"`       // Author role.
}

// TableName overrides the default table name.
func (AuthorReference) TableName() string { return "author_references" }
