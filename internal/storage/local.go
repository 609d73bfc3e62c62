package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on the local filesystem under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// resolve maps a store path onto the filesystem, refusing paths that would
// escape the root.
func (s *LocalStore) resolve(filePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(filePath))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage path %q", filePath)
	}
	return filepath.Join(s.root, cleaned), nil
}

func (s *LocalStore) Save(filePath string, r io.Reader) (int64, error) {
	full, err := s.resolve(filePath)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("create tenant directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create blob: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return 0, fmt.Errorf("write blob: %w", err)
	}
	return n, nil
}

func (s *LocalStore) Open(filePath string) (io.ReadCloser, error) {
	full, err := s.resolve(filePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Remove(filePath string) error {
	full, err := s.resolve(filePath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

var store Store

// Init sets the process-wide blob store.
func Init(s Store) {
	store = s
}

// Default returns the process-wide blob store.
func Default() Store {
	return store
}
