// Package artifact stores synthesized audio files until they are fetched.
//
// Each Save writes one file named by a random UUID into a shared directory.
// Take removes the file from the store so it is served at most once; Sweep
// deletes files that were never fetched.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown, already served or malformed IDs.
var ErrNotFound = errors.New("artifact not found")

// Store is a directory of single-use audio files.
type Store struct {
	dir string
	mu  sync.Mutex // serializes Take so one ID is handed out once
	now func() time.Time
}

// Artifact is a file removed from the store and owned by the caller.
type Artifact struct {
	ID   string
	Ext  string
	Data []byte
}

// Open creates the directory if needed. An empty dir uses a fresh
// directory under os.TempDir().
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "bhashavaani-artifacts")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Save writes data and returns the artifact reference "<uuid>.<ext>".
func (s *Store) Save(data []byte, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	if !validExt(ext) {
		return "", fmt.Errorf("invalid artifact extension %q", ext)
	}
	id := uuid.NewString() + "." + ext

	// Write under a temporary name so Sweep and Take never see a partial file.
	tmp, err := os.CreateTemp(s.dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("creating artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, id)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("publishing artifact: %w", err)
	}
	return id, nil
}

// Take reads and deletes an artifact.
func (s *Store) Take(id string) (*Artifact, error) {
	ext, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	path := filepath.Join(s.dir, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove served artifact", "id", id, "error", err)
	}
	return &Artifact{ID: id, Ext: ext, Data: data}, nil
}

// Sweep deletes artifacts older than ttl and returns how many were removed.
func (s *Store) Sweep(ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("listing artifacts: %w", err)
	}
	cutoff := s.now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			removed++
		}
	}
	if removed > 0 {
		slog.Info("swept stale artifacts", "removed", removed, "ttl", ttl)
	}
	return removed, nil
}

// parseID accepts only "<uuid>.<ext>" and returns the extension.
func parseID(id string) (string, bool) {
	base, ext, ok := strings.Cut(id, ".")
	if !ok || !validExt(ext) {
		return "", false
	}
	if _, err := uuid.Parse(base); err != nil || len(base) != 36 {
		return "", false
	}
	return ext, true
}

func validExt(ext string) bool {
	if ext == "" || len(ext) > 8 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
