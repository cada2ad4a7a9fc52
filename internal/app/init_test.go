package app

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moz-herbarium/medplants/internal/config"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := BuildDSN(InitRequest{
		DatabaseType:     "postgres",
		DatabaseHost:     "db",
		DatabasePort:     5432,
		DatabaseUser:     "plants",
		DatabasePassword: "p@ss",
		DatabaseName:     "catalog",
	})
	if err != nil {
		t.Fatalf("BuildDSN: %v", err)
	}
	if dsn != "postgres://plants:p%40ss@db:5432/catalog?sslmode=disable" {
		t.Fatalf("unexpected postgres dsn %q", dsn)
	}

	dsn, err = BuildDSN(InitRequest{DatabaseType: "sqlite"})
	if err != nil {
		t.Fatalf("BuildDSN sqlite: %v", err)
	}
	if dsn != "file:"+defaultSQLitePath {
		t.Fatalf("unexpected sqlite dsn %q", dsn)
	}

	if _, err = BuildDSN(InitRequest{DatabaseType: "oracle"}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}

func TestValidateInitRequest(t *testing.T) {
	req := InitRequest{}
	if err := validateInitRequest(&req); err != nil {
		t.Fatalf("validateInitRequest: %v", err)
	}
	if req.DatabaseType != "sqlite" || req.DatabasePath != defaultSQLitePath {
		t.Fatalf("expected sqlite defaults, got %+v", req)
	}

	req = InitRequest{DatabaseType: "Postgres", DatabaseUser: "u", DatabaseName: "n"}
	if err := validateInitRequest(&req); err == nil || !strings.Contains(err.Error(), "host") {
		t.Fatalf("expected host error, got %v", err)
	}
}

func TestInitConfig_WritesReadableConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	t.Setenv(config.EnvDBConnection, "")
	t.Setenv(config.EnvJWTSecret, "")
	t.Setenv(config.EnvTokenTTLHours, "")

	req := InitRequest{
		DatabaseType: "sqlite",
		DatabasePath: filepath.Join(dir, "plants.db"),
		Port:         8080,
		UploadDir:    filepath.Join(dir, "uploads"),
		CORSOrigins:  []string{"https://herbario.example"},
	}
	if err := InitConfig(configPath, req); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}

	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	if dsn != "file:"+req.DatabasePath {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	jwtCfg, err := config.LoadJWTConfig(configPath)
	if err != nil {
		t.Fatalf("LoadJWTConfig: %v", err)
	}
	if len(jwtCfg.Secret) < 32 {
		t.Fatalf("expected generated secret, got %q", jwtCfg.Secret)
	}

	if err = InitConfig(configPath, req); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
}
