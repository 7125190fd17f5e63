package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage keeps generated files on the local filesystem, all paths
// relative to a single base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates the base directory if needed and returns a handle
// rooted at it.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data under the given relative path, creating parent directories
// as needed, and returns the path back.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	target, err := s.prepare(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// SaveStream copies the reader's contents into the given relative path.
func (s *LocalStorage) SaveStream(name string, r io.Reader) (string, error) {
	target, err := s.prepare(name)
	if err != nil {
		return "", err
	}
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close() //nolint:errcheck
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// Open returns a read handle for a previously stored file.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	f, err := os.Open(s.resolve(name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// CleanupOlderThan removes every stored file whose modification time is older
// than the retention window and reports the relative paths it deleted.
func (s *LocalStorage) CleanupOlderThan(retention time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-retention)
	var removed []string
	walk := func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		if rel, relErr := filepath.Rel(s.baseDir, path); relErr == nil {
			removed = append(removed, rel)
		} else {
			removed = append(removed, path)
		}
		return nil
	}
	if err := filepath.WalkDir(s.baseDir, walk); err != nil {
		return nil, fmt.Errorf("cleanup storage: %w", err)
	}
	return removed, nil
}

func (s *LocalStorage) prepare(name string) (string, error) {
	target := s.resolve(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare directory for %s: %w", name, err)
	}
	return target, nil
}

func (s *LocalStorage) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.baseDir, name)
}
