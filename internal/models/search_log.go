package models

import "time"

// SearchKind classifies a catalog search.
type SearchKind string

// SearchKind values.
const (
	SearchKindCommonName SearchKind = "common_name"
	SearchKindScientific SearchKind = "scientific"
	SearchKindFamily     SearchKind = "family"
	SearchKindIndication SearchKind = "indication"
)

// ParseSearchKind returns the kind for raw, defaulting to scientific.
func ParseSearchKind(raw string) (SearchKind, bool) {
	switch SearchKind(raw) {
	case "":
		return SearchKindScientific, true
	case SearchKindCommonName, SearchKindScientific, SearchKindFamily, SearchKindIndication:
		return SearchKind(raw), true
	default:
		return "", false
	}
}

// SearchLog is an append-only record of a catalog search.
type SearchLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Term        string     `gorm:"type:varchar(255);not null"`      // Search term.
	Kind        SearchKind `gorm:"type:varchar(20);not null;index"` // Search kind.
	UserIP      string     `gorm:"type:varchar(64)"`                // Client IP.
	UserAgent   string     `gorm:"type:text"`                       // Client user agent.
	ResultCount int64      `gorm:"not null;default:0"`              // Number of matches.

	CreatedAt time.Time `gorm:"not null;index"` // Search timestamp.
}

// TableName overrides the default table name.
func (SearchLog) TableName() string {
	return "search_logs"
}
