package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath        = "CONFIG_PATH"
	EnvDBConnection      = "DATABASE_URL"
	EnvJWTSecret         = "JWT_SECRET"
	EnvTokenTTLHours     = "TOKEN_TTL_HOURS"
	EnvLockoutThreshold  = "LOCKOUT_THRESHOLD"
	EnvLockoutMinutes    = "LOCKOUT_MINUTES"
	EnvPasswordMinLength = "PASSWORD_MIN_LENGTH"
	EnvCORSOrigins       = "CORS_ORIGINS"
	EnvUploadDir         = "UPLOAD_DIR"
	EnvPort              = "PORT"
	EnvCatalogWriteAuth  = "CATALOG_WRITES_REQUIRE_AUTH"
	EnvLoginRateLimit    = "LOGIN_RATE_LIMIT"
	EnvRedisAddr         = "REDIS_ADDR"
	EnvRedisPassword     = "REDIS_PASSWORD"
	EnvAdminEmail        = "ADMIN_EMAIL"
	EnvAdminPassword     = "ADMIN_PASSWORD"
	EnvAdminName         = "ADMIN_NAME"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file or env.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn`, `database.dsn` or DATABASE_URL)")

// ErrMissingJWTSecret indicates no signing key was configured.
var ErrMissingJWTSecret = errors.New("missing jwt secret (set `jwt.secret` or JWT_SECRET)")

// readFile unmarshals the YAML config into out. A missing file is not an error.
func readFile(configPath string, out any) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if errUnmarshal := yaml.Unmarshal(data, out); errUnmarshal != nil {
		return fmt.Errorf("parse config file: %w", errUnmarshal)
	}
	return nil
}

// LoadDatabaseDSN reads the database DSN from the environment or the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	var cfg fileConfig
	if errRead := readFile(configPath, &cfg); errRead != nil {
		return "", errRead
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// JWTConfig holds the signing key and token lifetime.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"-"`
}

// defaultTokenTTLHours is used when the config omits or invalidates the token TTL.
const defaultTokenTTLHours = 24

// LoadJWTConfig loads JWT settings. The secret is mandatory.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT struct {
			Secret   string `yaml:"secret"`
			TTLHours int    `yaml:"ttl-hours"`
		} `yaml:"jwt"`
	}

	var cfg fileConfig
	if errRead := readFile(configPath, &cfg); errRead != nil {
		return JWTConfig{}, errRead
	}

	result := JWTConfig{Secret: strings.TrimSpace(cfg.JWT.Secret)}
	ttlHours := cfg.JWT.TTLHours
	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if hours, ok := envInt(EnvTokenTTLHours); ok {
		ttlHours = hours
	}
	if ttlHours <= 0 {
		ttlHours = defaultTokenTTLHours
	}
	result.Expiry = time.Duration(ttlHours) * time.Hour

	if result.Secret == "" {
		return result, ErrMissingJWTSecret
	}
	return result, nil
}

// AuthPolicy holds lockout and password rules.
type AuthPolicy struct {
	LockoutThreshold  int
	LockoutDuration   time.Duration
	PasswordMinLength int
}

// Auth policy defaults.
const (
	DefaultLockoutThreshold  = 5
	DefaultLockoutMinutes    = 30
	DefaultPasswordMinLength = 3
)

// DefaultAuthPolicy returns the built-in auth policy.
func DefaultAuthPolicy() AuthPolicy {
	return AuthPolicy{
		LockoutThreshold:  DefaultLockoutThreshold,
		LockoutDuration:   DefaultLockoutMinutes * time.Minute,
		PasswordMinLength: DefaultPasswordMinLength,
	}
}

// LoadAuthPolicy loads lockout and password settings.
func LoadAuthPolicy(configPath string) (AuthPolicy, error) {
	// fileConfig maps the YAML fields needed for the auth policy.
	type fileConfig struct {
		Auth struct {
			LockoutThreshold  int `yaml:"lockout-threshold"`
			LockoutMinutes    int `yaml:"lockout-minutes"`
			PasswordMinLength int `yaml:"password-min-length"`
		} `yaml:"auth"`
	}

	var cfg fileConfig
	if errRead := readFile(configPath, &cfg); errRead != nil {
		return DefaultAuthPolicy(), errRead
	}

	threshold := cfg.Auth.LockoutThreshold
	minutes := cfg.Auth.LockoutMinutes
	minLength := cfg.Auth.PasswordMinLength
	if v, ok := envInt(EnvLockoutThreshold); ok {
		threshold = v
	}
	if v, ok := envInt(EnvLockoutMinutes); ok {
		minutes = v
	}
	if v, ok := envInt(EnvPasswordMinLength); ok {
		minLength = v
	}

	result := DefaultAuthPolicy()
	if threshold > 0 {
		result.LockoutThreshold = threshold
	}
	if minutes > 0 {
		result.LockoutDuration = time.Duration(minutes) * time.Minute
	}
	if minLength > 0 {
		result.PasswordMinLength = minLength
	}
	return result, nil
}

// ServerConfig holds HTTP listener and surface settings.
type ServerConfig struct {
	Port                     int
	CORSOrigins              []string
	UploadDir                string
	CatalogWritesRequireAuth bool
}

// defaultPort is the listening port when neither file nor env set one.
const defaultPort = 5000

// LoadServerConfig loads HTTP listener settings.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	// fileConfig maps the YAML fields needed for the server.
	type fileConfig struct {
		Port int `yaml:"port"`
		CORS struct {
			AllowedOrigins []string `yaml:"allowed-origins"`
		} `yaml:"cors"`
		Uploads struct {
			Dir string `yaml:"dir"`
		} `yaml:"uploads"`
		Catalog struct {
			RequireAuthForWrites bool `yaml:"require-auth-for-writes"`
		} `yaml:"catalog"`
	}

	var cfg fileConfig
	if errRead := readFile(configPath, &cfg); errRead != nil {
		return ServerConfig{}, errRead
	}

	result := ServerConfig{
		Port:                     cfg.Port,
		CORSOrigins:              normalizeOrigins(cfg.CORS.AllowedOrigins),
		UploadDir:                strings.TrimSpace(cfg.Uploads.Dir),
		CatalogWritesRequireAuth: cfg.Catalog.RequireAuthForWrites,
	}
	if port, ok := envInt(EnvPort); ok {
		result.Port = port
	}
	if raw := strings.TrimSpace(os.Getenv(EnvCORSOrigins)); raw != "" {
		result.CORSOrigins = normalizeOrigins(strings.Split(raw, ","))
	}
	if dir := strings.TrimSpace(os.Getenv(EnvUploadDir)); dir != "" {
		result.UploadDir = dir
	}
	if raw := strings.TrimSpace(os.Getenv(EnvCatalogWriteAuth)); raw != "" {
		if enabled, errParse := strconv.ParseBool(raw); errParse == nil {
			result.CatalogWritesRequireAuth = enabled
		}
	}

	if result.Port <= 0 {
		result.Port = defaultPort
	}
	if result.UploadDir == "" {
		result.UploadDir = "./uploads"
	}
	return result, nil
}

// RateLimitConfig holds the login throttle settings.
type RateLimitConfig struct {
	Limit         int           `yaml:"limit"`
	Window        time.Duration `yaml:"window"`
	RedisEnabled  bool          `yaml:"redis-enabled"`
	RedisAddr     string        `yaml:"redis-addr"`
	RedisPassword string        `yaml:"redis-password"`
	RedisDB       int           `yaml:"redis-db"`
	RedisPrefix   string        `yaml:"redis-prefix"`
}

// Login throttle defaults.
const (
	DefaultLoginRateLimit  = 20
	DefaultLoginRateWindow = time.Minute
	DefaultRateLimitPrefix = "medplants:rl"
)

// LoadRateLimitConfig loads the login throttle settings.
func LoadRateLimitConfig(configPath string) (RateLimitConfig, error) {
	// fileConfig maps the YAML fields needed for the login throttle.
	type fileConfig struct {
		RateLimit *RateLimitConfig `yaml:"login-rate-limit"`
	}

	result := RateLimitConfig{Limit: DefaultLoginRateLimit, Window: DefaultLoginRateWindow}
	var cfg fileConfig
	if errRead := readFile(configPath, &cfg); errRead != nil {
		return result, errRead
	}
	if cfg.RateLimit != nil {
		result = *cfg.RateLimit
	}

	if limit, ok := envInt(EnvLoginRateLimit); ok {
		result.Limit = limit
	}
	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		result.RedisAddr = addr
		result.RedisEnabled = true
	}
	if password := os.Getenv(EnvRedisPassword); password != "" {
		result.RedisPassword = password
	}

	if result.Limit < 0 {
		result.Limit = 0
	}
	if result.Window <= 0 {
		result.Window = DefaultLoginRateWindow
	}
	if strings.TrimSpace(result.RedisPrefix) == "" {
		result.RedisPrefix = DefaultRateLimitPrefix
	}
	if result.RedisDB < 0 {
		result.RedisDB = 0
	}
	return result, nil
}

// BootstrapAdmin describes an optional administrator created on first start.
type BootstrapAdmin struct {
	Email    string
	Password string
	FullName string
}

// LoadBootstrapAdmin reads the bootstrap administrator from env. ok is false when unset.
func LoadBootstrapAdmin() (BootstrapAdmin, bool) {
	admin := BootstrapAdmin{
		Email:    strings.TrimSpace(os.Getenv(EnvAdminEmail)),
		Password: os.Getenv(EnvAdminPassword),
		FullName: strings.TrimSpace(os.Getenv(EnvAdminName)),
	}
	if admin.Email == "" || admin.Password == "" {
		return BootstrapAdmin{}, false
	}
	if admin.FullName == "" {
		admin.FullName = "Administrator"
	}
	return admin, true
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func envInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
