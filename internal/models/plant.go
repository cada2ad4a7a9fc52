package models

import "time"

// Plant is the root catalog record.
type Plant struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ScientificName  string `gorm:"type:varchar(255);not null;index"` // Scientific name as entered.
	CanonicalName   string `gorm:"type:varchar(255);index"`          // Parsed canonical form of the name.
	CanonicalID     string `gorm:"type:varchar(36);index"`           // UUIDv5 of the canonical form.
	ExsiccataNumber string `gorm:"type:varchar(100)"`                // Herbarium specimen identifier.

	FamilyID uint64  `gorm:"not null;index"`                                                    // Owning family ID.
	Family   *Family `gorm:"foreignKey:FamilyID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"` // Owning family.

	DateAdded time.Time `gorm:"not null;index"`          // Catalog insertion time.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Plant) TableName() string {
	return "plants"
}

// CommonName is a vernacular name attached to one plant.
type CommonName struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PlantID uint64 `gorm:"not null;index"`                                      // Owning plant ID.
	Plant   *Plant `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`      // Owning plant.
	Name    string `gorm:"column:common_name;type:varchar(255);not null;index"` // Vernacular name.
}

// TableName overrides the default table name.
func (CommonName) TableName() string {
	return "common_names"
}

// PlantUse records that a part of a plant is used, with free-form notes.
type PlantUse struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PlantID uint64     `gorm:"not null;index"`                                 // Owning plant ID.
	Plant   *Plant     `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"` // Owning plant.
	PartID  uint64     `gorm:"not null;index"`                                 // Used plant part ID.
	Part    *PlantPart `gorm:"foreignKey:PartID"`                              // Used plant part.
	Notes   string     `gorm:"type:text"`                                      // Usage notes.
}

// TableName overrides the default table name.
func (PlantUse) TableName() string {
	return "plant_uses"
}

// PlantImage holds the metadata of an image attached to a plant.
type PlantImage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PlantID  uint64 `gorm:"not null;index"`                                 // Owning plant ID.
	Plant    *Plant `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"` // Owning plant.
	Filename string `gorm:"type:varchar(255);not null;uniqueIndex"`         // Stored unique filename.
	Order    int    `gorm:"column:display_order;not null;default:0"`        // User supplied display rank.
	Caption  string `gorm:"type:text"`                                      // Optional caption.

	UploadedAt time.Time `gorm:"not null;autoCreateTime"` // Upload timestamp.
}

// TableName overrides the default table name.
func (PlantImage) TableName() string {
	return "plant_images"
}
