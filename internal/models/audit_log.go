package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a mutating action.
type AuditLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID      *uint64 `gorm:"index"`                               // Acting user, if known.
	Action      string  `gorm:"type:varchar(50);not null;index"`     // Action code, e.g. LOGIN.
	Description string  `gorm:"type:text"`                           // Human readable summary.
	TargetTable string  `gorm:"column:table_name;type:varchar(100)"` // Affected table.
	RecordID    *uint64 // Affected record ID.

	OldData datatypes.JSON // Snapshot before the change.
	NewData datatypes.JSON // Snapshot after the change.

	OriginIP  string `gorm:"type:varchar(64)"` // Client IP.
	UserAgent string `gorm:"type:text"`        // Client user agent.

	CreatedAt time.Time `gorm:"not null;index"` // Event timestamp.
}

// TableName overrides the default table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}
