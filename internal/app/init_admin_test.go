package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/moz-herbarium/medplants/internal/config"
	"github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/models"
)

func TestCreateAdminWithConn_AssignsAdministratorProfile(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "medplants-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close(conn) }()
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	ctx := context.Background()
	created, errCreate := CreateAdminWithConn(ctx, conn, config.DefaultAuthPolicy(), "Root", "Root@X.mz", "secret")
	if errCreate != nil {
		t.Fatalf("CreateAdminWithConn: %v", errCreate)
	}
	if !created {
		t.Fatalf("expected administrator to be created")
	}

	var user models.User
	if errFind := conn.Preload("Profile").First(&user).Error; errFind != nil {
		t.Fatalf("find user: %v", errFind)
	}
	if user.Email != "root@x.mz" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Profile == nil || user.Profile.Name != models.AdministratorProfile {
		t.Fatalf("expected administrator profile, got %+v", user.Profile)
	}

	created, errCreate = CreateAdminWithConn(ctx, conn, config.DefaultAuthPolicy(), "Root", "root@x.mz", "secret")
	if errCreate != nil {
		t.Fatalf("second CreateAdminWithConn: %v", errCreate)
	}
	if created {
		t.Fatalf("expected existing administrator to be kept")
	}
}
