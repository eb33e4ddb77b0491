package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileKV implements KV with one file per key under a base directory. It is a
// dependency-free fallback for environments where SQLite is unavailable.
type FileKV struct {
	baseDir string
}

func NewFileKV(baseDir string) *FileKV {
	return &FileKV{baseDir: baseDir}
}

// keyPath validates and cleans the key to prevent directory traversal.
func (f *FileKV) keyPath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}

	cleaned := filepath.Clean(key)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid key: contains parent directory reference")
	}
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid key: absolute paths not allowed")
	}

	fullPath := filepath.Join(f.baseDir, cleaned)
	if !strings.HasPrefix(fullPath, f.baseDir+string(filepath.Separator)) && fullPath != f.baseDir {
		return "", fmt.Errorf("invalid key: outside base directory")
	}

	return fullPath, nil
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	fullPath, err := f.keyPath(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}

	return string(data), true, nil
}

func (f *FileKV) Set(ctx context.Context, key, value string) error {
	fullPath, err := f.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	if err := os.WriteFile(fullPath, []byte(value), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}

	return nil
}

func (f *FileKV) Delete(ctx context.Context, key string) error {
	fullPath, err := f.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}

	return nil
}

func (f *FileKV) Close() error {
	return nil
}
