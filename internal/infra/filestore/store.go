// Package filestore keeps the notified-class set in an append-only text
// file, one class ID per line. The file is loaded once at open; every Add
// appends a line and fsyncs before returning.
package filestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"enrollment_notifier/internal/domain/enrollment"
)

// ErrInvalidID is returned for IDs that cannot be stored on a single line.
var ErrInvalidID = errors.New("invalid class id")

// Store is a durable, append-only set of class IDs.
type Store struct {
	mu   sync.Mutex
	path string
	file *os.File
	ids  map[string]struct{}
}

var _ enrollment.NotifiedRepository = (*Store)(nil)

// Open loads path (creating it and its directory if missing) and keeps it open for appends.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open notified store: %w", err)
	}

	ids, err := load(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("load notified store %s: %w", path, err)
	}
	return &Store{path: path, file: f, ids: ids}, nil
}

func load(f *os.File) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, sc.Err()
}

// Contains reports whether id is recorded.
func (s *Store) Contains(_ context.Context, classID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[strings.TrimSpace(classID)]
	return ok, nil
}

// Add appends id unless it is already present.
func (s *Store) Add(_ context.Context, classID string) error {
	id := strings.TrimSpace(classID)
	if id == "" || strings.ContainsAny(id, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidID, classID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return errors.New("notified store is closed")
	}
	if _, ok := s.ids[id]; ok {
		return nil
	}
	if _, err := s.file.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("append %s: %w", id, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	s.ids[id] = struct{}{}
	return nil
}

// Len returns the number of recorded IDs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Close releases the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
