package models

import "time"

// Session records that an access token was issued; revocable.
type Session struct {
	ID string `gorm:"primaryKey;type:varchar(36)"` // Session UUID.

	UserID    uint64 `gorm:"not null;index"`            // Owning user ID.
	User      *User  `gorm:"foreignKey:UserID"`         // Owning user.
	TokenHash string `gorm:"type:varchar(64);not null"` // SHA-256 of the issued token.

	OriginIP  string `gorm:"type:varchar(64)"` // Client IP at login.
	UserAgent string `gorm:"type:text"`        // Client user agent at login.

	ExpiresAt time.Time `gorm:"not null;index"`          // Server-side expiry.
	Active    bool      `gorm:"not null;default:true"`   // Cleared on logout.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// TableName overrides the default table name.
func (Session) TableName() string {
	return "sessions"
}

// Valid reports whether the session can still authenticate requests.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Active && s.ExpiresAt.After(now)
}
