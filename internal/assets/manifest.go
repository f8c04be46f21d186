// Package assets describes the prebuilt charts, tables and images that each
// report page expects and checks that they are present on disk.
package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_manifest.yaml
var defaultManifest []byte

// Kind is the type of a page asset.
type Kind string

// Asset kinds.
const (
	KindChart Kind = "chart"
	KindTable Kind = "table"
	KindImage Kind = "image"
)

// Valid reports whether k is a known asset kind.
func (k Kind) Valid() bool {
	switch k {
	case KindChart, KindTable, KindImage:
		return true
	}
	return false
}

// Asset is one file a page displays. Dir overrides the page directory when
// set.
type Asset struct {
	File string `yaml:"file"`
	Kind Kind   `yaml:"kind"`
	Dir  string `yaml:"dir,omitempty"`
}

// Page groups the assets shown together.
type Page struct {
	Name   string  `yaml:"name"`
	Dir    string  `yaml:"dir"`
	Assets []Asset `yaml:"assets"`
}

// Manifest lists every page and its assets.
type Manifest struct {
	Pages []Page `yaml:"pages"`
}

var (
	// ErrInvalidManifest is returned when a manifest fails validation.
	ErrInvalidManifest = errors.New("invalid asset manifest")
	// ErrAssetsMissing marks a check that found missing pages or files.
	ErrAssetsMissing = errors.New("dashboard assets missing")
)

// DefaultManifest returns the built-in manifest.
func DefaultManifest() (*Manifest, error) {
	return ParseManifest(defaultManifest)
}

// LoadManifest reads a manifest from path. An empty path returns the
// built-in manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return DefaultManifest()
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read asset manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every page is named and every asset has a file and a
// known kind.
func (m *Manifest) Validate() error {
	if len(m.Pages) == 0 {
		return fmt.Errorf("%w: no pages", ErrInvalidManifest)
	}
	for i, p := range m.Pages {
		if p.Name == "" {
			return fmt.Errorf("%w: page %d has no name", ErrInvalidManifest, i)
		}
		if p.Dir == "" {
			return fmt.Errorf("%w: page %q has no dir", ErrInvalidManifest, p.Name)
		}
		for _, a := range p.Assets {
			if a.File == "" {
				return fmt.Errorf("%w: page %q has an asset with no file", ErrInvalidManifest, p.Name)
			}
			if !a.Kind.Valid() {
				return fmt.Errorf("%w: asset %q has unknown kind %q", ErrInvalidManifest, a.File, a.Kind)
			}
		}
	}
	return nil
}

// Count returns the number of assets across all pages.
func (m *Manifest) Count() int {
	n := 0
	for _, p := range m.Pages {
		n += len(p.Assets)
	}
	return n
}
