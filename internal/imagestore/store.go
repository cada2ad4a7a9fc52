// Package imagestore keeps uploaded plant image bytes on local disk.
package imagestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("image too large")
	// ErrInvalidName is returned for names that are not plain file names.
	ErrInvalidName = errors.New("invalid image filename")
)

// Store writes image blobs under one directory. Names are confined to that directory.
type Store struct {
	dir      string
	root     *os.Root
	maxBytes int64
}

// Open creates dir if needed and returns a store rooted there.
func Open(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("imagestore: empty directory")
	}
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return nil, fmt.Errorf("imagestore: create %s: %w", dir, errMkdir)
	}
	root, errRoot := os.OpenRoot(dir)
	if errRoot != nil {
		return nil, fmt.Errorf("imagestore: open %s: %w", dir, errRoot)
	}
	return &Store{dir: dir, root: root, maxBytes: MaxImageBytes}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Close releases the directory handle.
func (s *Store) Close() error {
	if s == nil || s.root == nil {
		return nil
	}
	return s.root.Close()
}

// Save streams r into name. Partial writes are removed on failure.
func (s *Store) Save(name string, r io.Reader) (int64, error) {
	if errName := validName(name); errName != nil {
		return 0, errName
	}
	tmpName := "." + name + ".part"
	file, errOpen := s.root.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errOpen != nil {
		return 0, fmt.Errorf("imagestore: create %s: %w", name, errOpen)
	}

	written, errCopy := io.Copy(file, io.LimitReader(r, s.maxBytes+1))
	errClose := file.Close()
	switch {
	case errCopy != nil:
		s.discard(tmpName)
		return 0, fmt.Errorf("imagestore: write %s: %w", name, errCopy)
	case written > s.maxBytes:
		s.discard(tmpName)
		return 0, ErrTooLarge
	case errClose != nil:
		s.discard(tmpName)
		return 0, fmt.Errorf("imagestore: close %s: %w", name, errClose)
	}

	if errRename := s.root.Rename(tmpName, name); errRename != nil {
		s.discard(tmpName)
		return 0, fmt.Errorf("imagestore: commit %s: %w", name, errRename)
	}
	return written, nil
}

// Open returns a reader for name.
func (s *Store) Open(name string) (*os.File, error) {
	if errName := validName(name); errName != nil {
		return nil, errName
	}
	return s.root.Open(name)
}

// Remove deletes name. Missing files are not an error.
func (s *Store) Remove(name string) error {
	if errName := validName(name); errName != nil {
		return errName
	}
	if errRemove := s.root.Remove(name); errRemove != nil && !errors.Is(errRemove, fs.ErrNotExist) {
		return fmt.Errorf("imagestore: remove %s: %w", name, errRemove)
	}
	return nil
}

func (s *Store) discard(name string) {
	if errRemove := s.root.Remove(name); errRemove != nil && !errors.Is(errRemove, fs.ErrNotExist) {
		log.WithError(errRemove).WithField("file", name).Warn("imagestore: remove partial upload failed")
	}
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	return nil
}
