package imagestore

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxImageBytes is the largest accepted image upload.
const MaxImageBytes int64 = 5 << 20

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// AllowedExtension reports whether name carries an accepted image extension.
func AllowedExtension(name string) bool {
	_, ok := allowedExtensions[Extension(name)]
	return ok
}

// SanitizeFilename strips directories and keeps letters, digits, dot, dash and
// underscore. An accepted extension survives sanitizing.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	ext := Extension(name)
	if _, ok := allowedExtensions[ext]; !ok || Extension(out) == ext {
		if out == "" {
			return "image"
		}
		return out
	}
	if out == "" || strings.EqualFold(out, ext) {
		return "image." + ext
	}
	return strings.TrimRight(out, ".") + "." + ext
}

// UniqueFilename sanitizes name and prefixes it with a random UUID.
func UniqueFilename(name string) string {
	return uuid.NewString() + "_" + SanitizeFilename(name)
}
