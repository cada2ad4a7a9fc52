package db

import (
	stdlog "log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm/logger"
)

func TestMigrate_SeedsProfilesOnce(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "plants-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() { _ = Close(conn) }()

	for i := 0; i < 2; i++ {
		if errMigrate := Migrate(conn); errMigrate != nil {
			t.Fatalf("migrate run %d: %v", i+1, errMigrate)
		}
	}

	var count int64
	if errCount := conn.Model(&models.UserProfile{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count profiles: %v", errCount)
	}
	if count != int64(len(defaultProfiles)) {
		t.Fatalf("expected %d profiles, got %d", len(defaultProfiles), count)
	}

	var admin models.UserProfile
	if errFind := conn.Where("name = ?", models.AdministratorProfile).First(&admin).Error; errFind != nil {
		t.Fatalf("find administrator profile: %v", errFind)
	}
	if !admin.Active {
		t.Fatalf("expected administrator profile to be active")
	}
}

func TestMigrate_EmailUniqueIgnoresCase(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "plants-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() { _ = Close(conn) }()
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	var profile models.UserProfile
	if errFind := conn.First(&profile).Error; errFind != nil {
		t.Fatalf("find profile: %v", errFind)
	}
	first := models.User{FullName: "A", Email: "a@x.mz", PasswordHash: "h", ProfileID: profile.ID, Active: true}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create first user: %v", errCreate)
	}
	second := models.User{FullName: "B", Email: "A@X.MZ", PasswordHash: "h", ProfileID: profile.ID, Active: true}
	if errCreate := conn.Create(&second).Error; errCreate == nil {
		t.Fatalf("expected unique violation for mixed-case duplicate email")
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	got := buildSQLiteDSN("plants.db")
	want := "file:plants.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	custom := "file:plants.db?_pragma=foreign_keys(0)"
	if got := buildSQLiteDSN(custom); got != custom+"&_txlock=immediate" {
		t.Fatalf("expected explicit pragmas to be kept, got %q", got)
	}
	explicit := "file:plants.db?_pragma=foreign_keys(0)&_txlock=deferred"
	if buildSQLiteDSN(explicit) != explicit {
		t.Fatalf("expected DSN with explicit pragmas and lock mode to be kept")
	}
}

func TestMigrate_DoesNotLogMissingProfiles(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "plants-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() { _ = Close(conn) }()

	var out strings.Builder
	conn.Logger = logger.New(stdlog.New(&out, "", 0), logger.Config{LogLevel: logger.Warn})
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	if strings.Contains(out.String(), "record not found") {
		t.Fatalf("unexpected gorm log output: %s", out.String())
	}
}
