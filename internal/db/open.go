package db

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePragmas are appended to SQLite DSNs that do not set them.
var sqlitePragmas = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
}

// sqliteTxLock makes SQLite transactions take the write lock at BEGIN so
// read-then-write transactions queue on busy_timeout instead of failing.
const sqliteTxLock = "_txlock=immediate"

// sqliteFoldFunc lowercases text with full Unicode folding; SQLite's LOWER
// only folds ASCII.
const sqliteFoldFunc = "unicode_lower"

func init() {
	gosqlite.MustRegisterDeterministicScalarFunction(sqliteFoldFunc, 1, foldValue)
}

func foldValue(_ *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Open connects to PostgreSQL or SQLite depending on the DSN.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	if isPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(buildSQLiteDSN(dsn))
	}

	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB, errDB := conn.DB()
	if errDB != nil {
		return nil, fmt.Errorf("db: sql handle: %w", errDB)
	}
	if IsSQLite(conn) {
		sqlDB.SetMaxOpenConns(4)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return conn, nil
}

// Close releases the underlying connection pool.
func Close(conn *gorm.DB) error {
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isPostgresDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") ||
		strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=")
}

// buildSQLiteDSN adds the default pragmas and transaction lock mode to a SQLite DSN.
func buildSQLiteDSN(path string) string {
	dsn := strings.TrimSpace(path)
	if !strings.HasPrefix(strings.ToLower(dsn), "file:") && dsn != ":memory:" {
		dsn = "file:" + dsn
	}
	var params []string
	if !strings.Contains(dsn, "_pragma=") {
		params = append(params, sqlitePragmas...)
	}
	if !strings.Contains(dsn, "_txlock=") {
		params = append(params, sqliteTxLock)
	}
	if len(params) == 0 {
		return dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join(params, "&")
}
