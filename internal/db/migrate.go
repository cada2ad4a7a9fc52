package db

import (
	"fmt"

	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm"
)

// defaultProfiles are seeded on every migration when missing.
var defaultProfiles = []models.UserProfile{
	{Name: models.AdministratorProfile, Description: "Full access including user management", Active: true},
	{Name: "Editor", Description: "Catalog maintenance", Active: true},
}

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite, DialectPostgres, "":
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.Family{},
		&models.Plant{},
		&models.CommonName{},
		&models.Author{},
		&models.Province{},
		&models.Reference{},
		&models.Indication{},
		&models.PlantPart{},
		&models.PlantUse{},
		&models.PharmacologicalProperty{},
		&models.ChemicalCompound{},
		&models.ExtractionMethod{},
		&models.TraditionalPreparation{},
		&models.PlantImage{},
		&models.PlantAuthor{},
		&models.PlantProvince{},
		&models.PlantReference{},
		&models.PlantCompound{},
		&models.PlantProperty{},
		&models.UseIndication{},
		&models.UseExtractionMethod{},
		&models.UsePreparation{},
		&models.AuthorReference{},
		&models.UserProfile{},
		&models.User{},
		&models.Session{},
		&models.AuditLog{},
		&models.SearchLog{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errIdx := conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))
	`).Error; errIdx != nil {
		return fmt.Errorf("db: create email index: %w", errIdx)
	}
	if errIdx := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sessions_user_active ON sessions (user_id, active)
	`).Error; errIdx != nil {
		return fmt.Errorf("db: create session index: %w", errIdx)
	}

	return ensureDefaultProfiles(conn)
}

// ensureDefaultProfiles seeds the built-in profiles without touching existing rows.
func ensureDefaultProfiles(conn *gorm.DB) error {
	for _, profile := range defaultProfiles {
		var existing []models.UserProfile
		res := conn.Where("name = ?", profile.Name).Limit(1).Find(&existing)
		if res.Error != nil {
			return fmt.Errorf("db: query profile %s: %w", profile.Name, res.Error)
		}
		if res.RowsAffected > 0 {
			continue
		}
		row := profile
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("db: create profile %s: %w", profile.Name, errCreate)
		}
	}
	return nil
}
