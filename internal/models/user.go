package models

import "time"

// AdministratorProfile is the privileged profile name.
const AdministratorProfile = "Administrator"

// UserProfile is a named role.
type UserProfile struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"` // Profile name.
	Description string `gorm:"type:text"`                              // Profile description.
	Active      bool   `gorm:"not null;default:true"`                  // Whether the profile can be assigned and used.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// TableName overrides the default table name.
func (UserProfile) TableName() string {
	return "user_profiles"
}

// User is a back-office account.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	FullName     string `gorm:"type:varchar(255);not null"`             // Display name.
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"` // Lowercased email address.
	PasswordHash string `gorm:"type:text;not null"`                     // bcrypt hash.

	ProfileID uint64       `gorm:"not null;index"`       // Assigned profile ID.
	Profile   *UserProfile `gorm:"foreignKey:ProfileID"` // Assigned profile.

	Active         bool       `gorm:"not null;default:true"` // Soft activation flag.
	LastLogin      *time.Time // Last successful login.
	FailedAttempts int        `gorm:"not null;default:0"` // Consecutive failed logins.
	LockedUntil    *time.Time `gorm:"index"`              // Lockout expiry.

	CreatedBy *uint64 // Creating user ID.
	UpdatedBy *uint64 // Last updating user ID.

	RegisteredAt time.Time `gorm:"not null;autoCreateTime"` // Registration timestamp.
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}

// IsLocked reports whether the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u != nil && u.LockedUntil != nil && u.LockedUntil.After(now)
}
