package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Dialect identifiers supported by the database layer.
const (
	// DialectPostgres is the PostgreSQL dialect name.
	DialectPostgres = "postgres"
	// DialectSQLite is the SQLite dialect name.
	DialectSQLite = "sqlite"
)

// DialectName returns the active database dialect name.
func DialectName(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}

// IsSQLite reports whether the connection uses SQLite.
func IsSQLite(conn *gorm.DB) bool {
	return DialectName(conn) == DialectSQLite
}

// LowerExpr returns a SQL expression lowercasing column with Unicode folding.
func LowerExpr(conn *gorm.DB, column string) string {
	if IsSQLite(conn) {
		return fmt.Sprintf("%s(%s)", sqliteFoldFunc, column)
	}
	return fmt.Sprintf("LOWER(%s)", column)
}

// CaseInsensitiveLikeExpr returns a SQL expression for case-insensitive LIKE
// against a pattern built by ContainsPattern.
func CaseInsensitiveLikeExpr(conn *gorm.DB, column string) string {
	if IsSQLite(conn) {
		return LowerExpr(conn, column) + ` LIKE ? ESCAPE '\'`
	}
	return column + ` ILIKE ? ESCAPE '\'`
}

// NormalizeLikePattern normalizes a LIKE pattern for the current dialect.
func NormalizeLikePattern(conn *gorm.DB, pattern string) string {
	if IsSQLite(conn) {
		return strings.ToLower(pattern)
	}
	return pattern
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in term so it matches literally.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// ContainsPattern builds a dialect-normalized substring LIKE pattern for term.
func ContainsPattern(conn *gorm.DB, term string) string {
	return NormalizeLikePattern(conn, "%"+EscapeLike(strings.TrimSpace(term))+"%")
}
