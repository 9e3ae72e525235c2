package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore 本地目录存储，ref 即文件路径
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, documentName(name))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Fetch(ctx context.Context, ref string) (string, func(), error) {
	if !s.owns(ref) {
		return "", nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, ref)
	}
	if _, err := os.Stat(ref); err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, ref)
	}
	return ref, func() {}, nil
}

// Delete 文件已不存在时不报错
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if ref == "" || !s.owns(ref) {
		return nil
	}
	if err := os.Remove(ref); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", ref, err)
	}
	return nil
}

func (s *LocalStore) ListOlderThan(ctx context.Context, age time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dir %s: %w", s.dir, err)
	}

	var refs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "financial_document_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > age {
			refs = append(refs, filepath.Join(s.dir, entry.Name()))
		}
	}
	return refs, nil
}

// owns 只处理存储目录内的文件
func (s *LocalStore) owns(ref string) bool {
	rel, err := filepath.Rel(s.dir, ref)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}
