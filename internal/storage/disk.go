package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

type diskService struct {
	dir string
}

// NewDisk stores files flat under dir, creating it if needed
func NewDisk(dir string) (Service, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &diskService{dir: dir}, nil
}

// path maps a key to a file inside dir. Only the base name is used so a key
// can never escape the directory.
func (s *diskService) path(key string) (string, error) {
	name := filepath.Base(filepath.FromSlash(key))
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file key %q", key)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *diskService) Put(ctx context.Context, key, _ string, r io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store file %s: %w", key, err)
	}
	return nil
}

func (s *diskService) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, ErrNotFound
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file %s: %w", key, err)
	}

	return &Object{
		Body:        f,
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        info.Size(),
	}, nil
}

func (s *diskService) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

func (s *diskService) Health(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage health check failed: %s is not a directory", s.dir)
	}
	return nil
}
