package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/moz-herbarium/medplants/internal/config"
	"github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/security"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// InitRequest contains parameters for writing a first config file.
type InitRequest struct {
	DatabaseType     string
	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabasePath     string
	DatabaseSSLMode  string
	Port             int
	UploadDir        string
	CORSOrigins      []string
}

// ErrConfigExists is returned when init would overwrite a config file.
var ErrConfigExists = errors.New("config file already exists")

// ConfigExists reports whether the config file exists at the path.
func ConfigExists(configPath string) bool {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false
	}
	return true
}

// defaultSQLitePath is the default SQLite database file name.
const defaultSQLitePath = "medplants.db"

// BuildDSN builds a database DSN from the init request.
func BuildDSN(req InitRequest) (string, error) {
	switch strings.ToLower(strings.TrimSpace(req.DatabaseType)) {
	case "", "postgres":
		sslMode := req.DatabaseSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(req.DatabaseUser, req.DatabasePassword),
			Host:     fmt.Sprintf("%s:%d", req.DatabaseHost, req.DatabasePort),
			Path:     "/" + req.DatabaseName,
			RawQuery: "sslmode=" + url.QueryEscape(sslMode),
		}
		return u.String(), nil
	case "sqlite":
		path := strings.TrimSpace(req.DatabasePath)
		if path == "" {
			path = defaultSQLitePath
		}
		return "file:" + path, nil
	default:
		return "", fmt.Errorf("unsupported database type")
	}
}

// PingDatabase validates that the DSN can connect and ping.
func PingDatabase(dsn string) error {
	conn, err := db.Open(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	defer func() {
		if errClose := sqlDB.Close(); errClose != nil {
			log.Errorf("sql db close error: %v", errClose)
		}
	}()
	return sqlDB.Ping()
}

// validateInitRequest normalizes and validates init input data.
func validateInitRequest(req *InitRequest) error {
	dbType := strings.ToLower(strings.TrimSpace(req.DatabaseType))
	if dbType == "" {
		dbType = "sqlite"
	}
	req.DatabaseType = dbType

	switch dbType {
	case "postgres":
		if strings.TrimSpace(req.DatabaseHost) == "" {
			return fmt.Errorf("database host is required")
		}
		if req.DatabasePort <= 0 {
			req.DatabasePort = 5432
		}
		if strings.TrimSpace(req.DatabaseUser) == "" {
			return fmt.Errorf("database user is required")
		}
		if strings.TrimSpace(req.DatabaseName) == "" {
			return fmt.Errorf("database name is required")
		}
	case "sqlite":
		if strings.TrimSpace(req.DatabasePath) == "" {
			req.DatabasePath = defaultSQLitePath
		}
	default:
		return fmt.Errorf("unsupported database type %q", req.DatabaseType)
	}
	if req.Port < 0 || req.Port > 65535 {
		return fmt.Errorf("invalid port: %d", req.Port)
	}
	return nil
}

// configFile maps YAML fields for the generated config file. Keys match the
// ones read by the config package.
type configFile struct {
	Port        int        `yaml:"port,omitempty"`
	DatabaseDSN string     `yaml:"database-dsn"`
	JWT         jwtCfg     `yaml:"jwt"`
	Auth        authCfg    `yaml:"auth"`
	CORS        corsCfg    `yaml:"cors,omitempty"`
	Uploads     uploadsCfg `yaml:"uploads,omitempty"`
}

// jwtCfg holds JWT settings for the generated config file.
type jwtCfg struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl-hours"`
}

// authCfg holds the lockout and password policy for the generated config file.
type authCfg struct {
	LockoutThreshold  int `yaml:"lockout-threshold"`
	LockoutMinutes    int `yaml:"lockout-minutes"`
	PasswordMinLength int `yaml:"password-min-length"`
}

type corsCfg struct {
	AllowedOrigins []string `yaml:"allowed-origins,omitempty"`
}

type uploadsCfg struct {
	Dir string `yaml:"dir,omitempty"`
}

// generateJWTSecret creates a random JWT secret string.
func generateJWTSecret() (string, error) {
	secret, err := security.GenerateRandomString(32)
	if err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return secret, nil
}

// WriteConfigFile writes a new config file with a fresh signing key.
// An existing file is never overwritten.
func WriteConfigFile(configPath string, dsn string, req InitRequest) error {
	if ConfigExists(configPath) {
		return fmt.Errorf("%w: %s", ErrConfigExists, configPath)
	}
	secret, err := generateJWTSecret()
	if err != nil {
		return err
	}
	cfg := configFile{
		Port:        req.Port,
		DatabaseDSN: dsn,
		JWT:         jwtCfg{Secret: secret, TTLHours: 24},
		Auth: authCfg{
			LockoutThreshold:  config.DefaultLockoutThreshold,
			LockoutMinutes:    config.DefaultLockoutMinutes,
			PasswordMinLength: config.DefaultPasswordMinLength,
		},
		CORS:    corsCfg{AllowedOrigins: req.CORSOrigins},
		Uploads: uploadsCfg{Dir: strings.TrimSpace(req.UploadDir)},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if errMkdir := os.MkdirAll(dir, 0755); errMkdir != nil {
		return fmt.Errorf("create config dir: %w", errMkdir)
	}

	if errWrite := os.WriteFile(configPath, data, 0600); errWrite != nil {
		return fmt.Errorf("write config file: %w", errWrite)
	}

	return nil
}

// InitConfig validates req, checks the database is reachable and writes the
// config file at configPath.
func InitConfig(configPath string, req InitRequest) error {
	configPath = config.ResolveConfigPath(configPath)
	if ConfigExists(configPath) {
		return fmt.Errorf("%w: %s", ErrConfigExists, configPath)
	}
	if errValidate := validateInitRequest(&req); errValidate != nil {
		return errValidate
	}
	dsn, err := BuildDSN(req)
	if err != nil {
		return err
	}
	if errPing := PingDatabase(dsn); errPing != nil {
		return fmt.Errorf("database connection failed: %w", errPing)
	}
	if errWrite := WriteConfigFile(configPath, dsn, req); errWrite != nil {
		return errWrite
	}
	log.WithFields(describeDSN(dsn).fields()).WithField("config", configPath).Info("config file written")
	return nil
}
