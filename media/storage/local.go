package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "github.com/leeforge/mediakit/errors"
)

// LocalProvider stores objects on the local filesystem.
type LocalProvider struct {
	basePath string
	baseURL  string
}

// NewLocalProvider creates basePath if needed.
func NewLocalProvider(basePath, baseURL string) (*LocalProvider, error) {
	if basePath == "" {
		return nil, apperrors.InvalidArgument("storage.local.base_path", basePath, "required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, storageError(err, "create base directory", basePath)
	}
	return &LocalProvider{basePath: basePath, baseURL: baseURL}, nil
}

func (p *LocalProvider) path(key string) (string, string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return k, filepath.Join(p.basePath, filepath.FromSlash(k)), nil
}

// Put writes through a temporary file and renames it into place so readers
// never see a partial object.
func (p *LocalProvider) Put(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	k, full, err := p.path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", storageError(err, "create directory", k)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", storageError(err, "create file", k)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", storageError(err, "write file", k)
	}
	if err := tmp.Close(); err != nil {
		return "", storageError(err, "close file", k)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", storageError(err, "rename file", k)
	}
	return joinURL(p.baseURL, k), nil
}

func (p *LocalProvider) Delete(_ context.Context, key string) error {
	k, full, err := p.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageError(err, "delete file", k)
	}
	return nil
}

func (p *LocalProvider) Exists(_ context.Context, key string) (bool, error) {
	k, full, err := p.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, storageError(err, "stat file", k)
}

func (p *LocalProvider) Name() string {
	return "local"
}
