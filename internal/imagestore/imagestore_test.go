package imagestore

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"folha.png", "folha.png"},
		{"../../etc/passwd.png", "passwd.png"},
		{`C:\fotos\raiz seca.JPG`, "raiz_seca.JPG"},
		{"...hidden.gif", "hidden.gif"},
		{"flôr.webp", "flr.webp"},
		{"", "image"},
		{"/", "image"},
		{"..png", "image.png"},
		{"...JPG", "image.jpg"},
		{"nota..txt", "nota..txt"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAllowedExtension(t *testing.T) {
	for _, name := range []string{"a.png", "a.JPG", "a.jpeg", "a.gif", "a.webp"} {
		if !AllowedExtension(name) {
			t.Fatalf("expected %q to be allowed", name)
		}
	}
	for _, name := range []string{"a.svg", "a", "a.png.exe", "png"} {
		if AllowedExtension(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestUniqueFilename(t *testing.T) {
	a := UniqueFilename("../folha.png")
	b := UniqueFilename("../folha.png")
	if a == b {
		t.Fatalf("expected distinct names, got %q twice", a)
	}
	if !strings.HasSuffix(a, "_folha.png") || strings.Contains(a, "/") {
		t.Fatalf("unexpected unique name %q", a)
	}
}

func TestStore_SaveOpenRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = store.Close() }()

	n, err := store.Save("leaf.png", bytes.NewReader([]byte("png-bytes")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != int64(len("png-bytes")) {
		t.Fatalf("expected %d bytes written, got %d", len("png-bytes"), n)
	}

	file, err := store.Open("leaf.png")
	if err != nil {
		t.Fatalf("Open blob: %v", err)
	}
	data, err := io.ReadAll(file)
	_ = file.Close()
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("unexpected content %q err=%v", data, err)
	}

	if err := store.Remove("leaf.png"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove("leaf.png"); err != nil {
		t.Fatalf("second Remove should be a no-op: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "leaf.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected blob to be gone, stat err=%v", err)
	}
}

func TestStore_RejectsOversizeAndTraversal(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = store.Close() }()
	store.maxBytes = 4

	if _, err := store.Save("big.png", strings.NewReader("12345")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftovers, found %d entries", len(entries))
	}

	for _, name := range []string{"../x.png", "a/b.png", ".hidden.png", ""} {
		if _, err := store.Save(name, strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("Save(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}
