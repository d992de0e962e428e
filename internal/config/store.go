package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotoslider/choom-bridge/internal/bridgeerr"
)

// Store owns the single JSON configuration document on disk. Reads
// always load fresh from disk (small file, hot page cache); writes are
// the scheduler's and the command interpreter's responsibility and are
// serialized by mu (spec.md §5 "Shared resources").
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store bound to path, without touching the disk.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the document from disk, deep-merging it over Defaults().
// If the file is missing it writes the defaults and returns them.
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*Document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		doc := Defaults()
		if writeErr := s.saveLocked(doc); writeErr != nil {
			return doc, bridgeerr.Wrap(bridgeerr.FatalConfig, writeErr)
		}
		return doc, nil
	}
	if err != nil {
		return Defaults(), bridgeerr.Wrap(bridgeerr.FatalConfig, err)
	}
	doc, err := mergeOverDefaults(Defaults(), raw)
	if err != nil {
		return Defaults(), bridgeerr.Wrap(bridgeerr.FatalConfig, err)
	}
	return doc, nil
}

// Save atomically overwrites the document: write to a temp file in the
// same directory, then rename over the target (spec.md §4.7).
func (s *Store) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(doc)
}

func (s *Store) saveLocked(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json.tmp")
	if err != nil {
		return fmt.Errorf("config: tempfile: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: close: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: rename: %w", err)
	}
	return nil
}

// Update loads the document, applies fn, and saves the result, holding
// the store's mutex across the whole read-modify-write so concurrent
// scheduler jobs don't race on a load/save pair.
func (s *Store) Update(fn func(*Document)) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil && bridgeerr.KindOf(err) != bridgeerr.FatalConfig {
		return nil, err
	}
	fn(doc)
	if err := s.saveLocked(doc); err != nil {
		return doc, err
	}
	return doc, nil
}
