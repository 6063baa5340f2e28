package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultDir is where the file backend keeps its documents.
const DefaultDir = "data/upstream"

// FileBackend stores each key as <dir>/<key>.json. Writes go to a temporary
// file in the same directory and are renamed into place, so readers never
// observe a half-written document.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileBackend{dir: dir}
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (b *FileBackend) Write(key string, data []byte) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, b.path(key)); err != nil {
		cleanup()
		return err
	}
	return nil
}

func (b *FileBackend) Delete(key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
