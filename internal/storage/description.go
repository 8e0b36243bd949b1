package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrDescription is returned when a scenario or player description cannot be used.
var ErrDescription = errors.New("invalid description")

// Description is free text describing a scenario or a player character.
type Description struct {
	Title string `yaml:"title" json:"title"`
	Text  string `yaml:"description" json:"description"`
}

// LoadDescription reads a description file. Plain text and markdown files are
// used verbatim; YAML and JSON documents carry title and description fields.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrDescription, path)
		}
		return nil, fmt.Errorf("failed to read description file: %w", err)
	}

	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	d := &Description{Title: strings.TrimSuffix(base, filepath.Ext(base))}

	switch ext {
	case ".yaml", ".yml", ".json":
		// JSON is a subset of YAML
		var doc Description
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrDescription, base, err)
		}
		if doc.Title != "" {
			d.Title = doc.Title
		}
		d.Text = doc.Text
	default:
		d.Text = string(data)
	}

	d.Text = strings.TrimSpace(d.Text)
	if d.Text == "" {
		return nil, fmt.Errorf("%w: %s has no description text", ErrDescription, base)
	}
	return d, nil
}

// ListDescriptions walks dir and returns every loadable description keyed by
// file name. Unreadable files are skipped.
func ListDescriptions(dir string) (map[string]*Description, error) {
	out := make(map[string]*Description)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md", ".yaml", ".yml", ".json":
		default:
			return nil
		}
		desc, err := LoadDescription(path)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		out[rel] = desc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list descriptions: %w", err)
	}
	return out, nil
}

// SortedKeys returns the keys of a description listing in order.
func SortedKeys(m map[string]*Description) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
