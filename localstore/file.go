package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/sports-festival/festival-registration/registration"
)

var _ registration.LocalStore = &File{}

// File keeps every key in a single JSON object on disk. The whole file is
// rewritten on each change.
type File struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	data map[string]string
}

// OpenFile loads path if it exists. A missing file starts empty.
func OpenFile(path string, logger *slog.Logger) (*File, error) {
	f := &File{
		path:   path,
		logger: logger,
		data:   map[string]string{},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read local store %q: %w", path, err)
	}
	if len(raw) == 0 {
		return f, nil
	}

	err = json.Unmarshal(raw, &f.data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse local store %q: %w", path, err)
	}

	return f, nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[key]
	return v, ok
}

func (f *File) Set(key string, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[key] = value
	f.flushLocked()
}

func (f *File) Remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[key]; !ok {
		return
	}
	delete(f.data, key)
	f.flushLocked()
}

// flushLocked writes to a temp file and renames it over the old one so a
// crash never leaves half a file behind.
func (f *File) flushLocked() {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		f.logger.Error("failed to encode local store", slog.String("path", f.path), slog.String("error", err.Error()))
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		f.logger.Error("failed to write local store", slog.String("path", f.path), slog.String("error", err.Error()))
		return
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(raw)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), f.path)
	}
	if err != nil {
		f.logger.Error("failed to write local store", slog.String("path", f.path), slog.String("error", err.Error()))
	}
}
