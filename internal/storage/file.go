package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jwebster45206/adventure-engine/pkg/storage"
)

const unitExt = ".json"

// FileStorage keeps one indented JSON document per unit in a directory.
type FileStorage struct {
	dir    string
	logger *slog.Logger
}

// Ensure FileStorage implements Storage interface
var _ storage.Storage = (*FileStorage)(nil)

// NewFileStorage creates a file storage rooted at dir.
func NewFileStorage(dir string, logger *slog.Logger) *FileStorage {
	if dir == "" {
		dir = ".saves"
	}
	return &FileStorage{dir: dir, logger: logger}
}

// Dir returns the save directory.
func (f *FileStorage) Dir() string {
	return f.dir
}

// Ping ensures the save directory exists and is a directory.
func (f *FileStorage) Ping(ctx context.Context) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("failed to stat save directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("save path %s is not a directory", f.dir)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) path(name string) string {
	return filepath.Join(f.dir, name+unitExt)
}

func (f *FileStorage) SaveUnit(ctx context.Context, unit *storage.Unit, at time.Time) (string, error) {
	if unit == nil {
		return "", errors.New("unit cannot be nil")
	}
	data, err := storage.EncodeUnit(unit)
	if err != nil {
		return "", err
	}
	if err := f.Ping(ctx); err != nil {
		return "", err
	}

	base := storage.UnitName(unit.Character.Name, at)
	for n := 1; ; n++ {
		name := storage.CandidateName(base, n)
		file, err := os.OpenFile(f.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			f.logger.Error("Failed to create unit file", "name", name, "error", err)
			return "", fmt.Errorf("failed to create unit file: %w", err)
		}

		if _, err := file.Write(data); err != nil {
			_ = file.Close()
			_ = os.Remove(f.path(name))
			return "", fmt.Errorf("failed to write unit file: %w", err)
		}
		if err := file.Close(); err != nil {
			_ = os.Remove(f.path(name))
			return "", fmt.Errorf("failed to close unit file: %w", err)
		}
		f.logger.Debug("Unit saved", "name", name, "path", f.path(name))
		return name, nil
	}
}

func (f *FileStorage) LoadUnit(ctx context.Context, name string) (*storage.Unit, error) {
	if !storage.ValidName(name) {
		return nil, fmt.Errorf("%w: invalid unit name %q", storage.ErrNotFound, name)
	}
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("Unit not found", "name", name)
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: failed to read unit file: %w", storage.ErrLoad, err)
	}
	return storage.DecodeUnit(data)
}

func (f *FileStorage) ListUnits(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != unitExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), unitExt))
	}
	sort.Strings(names)
	return names, nil
}

func (f *FileStorage) LatestUnit(ctx context.Context, characterName string) (string, error) {
	names, err := f.ListUnits(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrLoad, err)
	}
	latest, ok := storage.LatestOf(names, characterName)
	if !ok {
		return "", fmt.Errorf("%w: no saves for %q", storage.ErrNotFound, characterName)
	}
	return latest, nil
}
