package templatestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirStore reads <name>.txt files from a local directory.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (d *DirStore) Load(_ context.Context, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, name+".txt"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", err
	}
	return string(data), nil
}

func (d *DirStore) Check(context.Context) error {
	info, err := os.Stat(d.dir)
	if err != nil {
		return fmt.Errorf("template directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("template directory %s is not a directory", d.dir)
	}
	return nil
}

func (d *DirStore) String() string { return d.dir }
