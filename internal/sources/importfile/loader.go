package importfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/shelf/internal/store"
)

// ErrNoItems is returned when the document has no items list.
var ErrNoItems = errors.New("items list not found")

// Loader reads an item list file from disk.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the file.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read import file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON or YAML item list.
func Parse(data []byte) (File, error) {
	var raw struct {
		Items      *[]Entry `yaml:"items"`
		ExportDate string   `yaml:"exportDate"`
		Version    string   `yaml:"version"`
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, ErrNoItems
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return File{}, fmt.Errorf("failed to parse import file: %w", err)
	}
	if raw.Items == nil {
		return File{}, ErrNoItems
	}
	return File{Items: *raw.Items, ExportDate: raw.ExportDate, Version: raw.Version}, nil
}

// Entries maps the file to store import entries. Entries without an id or a
// name are passed through so the store counts them as invalid.
func (f File) Entries() []store.ImportEntry {
	out := make([]store.ImportEntry, 0, len(f.Items))
	for _, it := range f.Items {
		out = append(out, store.ImportEntry{ID: string(it.ID), Name: string(it.Name)})
	}
	return out
}
