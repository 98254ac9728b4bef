package warn

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultCatalogYAML []byte

// Definition describes one warning kind.
type Definition struct {
	Message string `yaml:"message" json:"message"`
	// Tex, when set, replaces fields for LaTeX-sourced documents.
	Tex *struct {
		Message string `yaml:"message" json:"message"`
	} `yaml:"tex,omitempty" json:"tex,omitempty"`
}

// MessageFor returns the message to show, honoring the LaTeX override.
func (d Definition) MessageFor(tex bool) string {
	if tex && d.Tex != nil && d.Tex.Message != "" {
		return d.Tex.Message
	}
	return d.Message
}

// Catalog maps warning names to their definitions.
type Catalog map[string]Definition

// Names returns the warning names in sorted order.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() Catalog {
	var c Catalog
	if err := yaml.Unmarshal(defaultCatalogYAML, &c); err != nil {
		panic(fmt.Sprintf("warn: embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from YAML, or from JSON in either the flat form or
// the messages file layout {"warnings": {...}}. Entries override the defaults.
func LoadCatalog(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	loaded := Catalog{}
	switch filepath.Ext(path) {
	case ".json":
		var wrapped struct {
			Warnings Catalog `json:"warnings"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return nil, fmt.Errorf("parse catalog json: %w", err)
		}
		loaded = wrapped.Warnings
		if len(loaded) == 0 {
			if err := json.Unmarshal(b, &loaded); err != nil {
				return nil, fmt.Errorf("parse catalog json: %w", err)
			}
		}
	default:
		if err := yaml.Unmarshal(b, &loaded); err != nil {
			return nil, fmt.Errorf("parse catalog yaml: %w", err)
		}
	}
	merged := DefaultCatalog()
	for k, v := range loaded {
		merged[k] = v
	}
	return merged, nil
}
