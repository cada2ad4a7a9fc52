package app

import (
	"fmt"

	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm"
)

// HasAdministrator reports whether at least one active user holds the administrator profile.
func HasAdministrator(conn *gorm.DB) (bool, error) {
	if conn == nil {
		return false, fmt.Errorf("nil db")
	}
	if !conn.Migrator().HasTable(&models.User{}) {
		return false, nil
	}
	var count int64
	errCount := conn.Model(&models.User{}).
		Joins("JOIN user_profiles ON user_profiles.id = users.profile_id").
		Where("users.active = ? AND user_profiles.name = ?", true, models.AdministratorProfile).
		Count(&count).Error
	if errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}
