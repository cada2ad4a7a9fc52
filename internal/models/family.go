package models

import "time"

// Family is a botanical family; every plant belongs to exactly one.
type Family struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:varchar(255);not null;uniqueIndex"` // Family name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// TableName overrides the default table name.
func (Family) TableName() string {
	return "families"
}
