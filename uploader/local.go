package uploader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultDirPermissions is used for every directory created on disk.
const DefaultDirPermissions = 0755

// LocalStorage writes files below a root directory.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// Path returns the filesystem path for a key.
func (l *LocalStorage) Path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *LocalStorage) Prepare(ctx context.Context, dir string) error {
	path := l.Path(dir)
	if err := os.MkdirAll(path, DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "creating directory %s", path)
	}
	return nil
}

func (l *LocalStorage) Save(ctx context.Context, key string, data []byte) error {
	path := l.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
