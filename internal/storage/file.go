package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a Storage kept in a single JSON object on disk. Every SetItem
// rewrites the file through a temporary file and a rename.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a file-backed store at path. The file is created lazily.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return "", false, err
	}
	value, ok := items[key]
	return value, ok, nil
}

func (f *File) SetItem(key, value string) error {
	return f.SetItems(map[string]string{key: value})
}

// SetItems writes all items with a single rewrite of the file.
//
// When the existing file cannot be decoded it is renamed to Path()+".corrupt"
// and the items are written to a fresh file. The write then still returns an
// error wrapping ErrCorrupt so the loss of the other items is reported.
func (f *File) SetItems(items map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	var recovered error
	if errors.Is(err, ErrCorrupt) {
		aside := f.path + ".corrupt"
		if rerr := os.Rename(f.path, aside); rerr != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, rerr)
		}
		current = make(map[string]string)
		recovered = fmt.Errorf("%w: moved unreadable %s to %s", ErrCorrupt, f.path, aside)
	} else if err != nil {
		return err
	}

	for key, value := range items {
		current[key] = value
	}
	if err := f.write(current); err != nil {
		return err
	}
	return recovered
}

func (f *File) read() (map[string]string, error) {
	items := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %w: failed to decode %s: %v", ErrUnavailable, ErrCorrupt, f.path, err)
	}
	return items, nil
}

func (f *File) write(items map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".esheets-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
