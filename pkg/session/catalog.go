package session

import (
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Model describes one selectable model.
type Model struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

func (m Model) String() string {
	return m.Name + " " + m.Version
}

// Catalog is the fixed, ordered list of models. The first entry is the default.
type Catalog []Model

//go:embed catalog.yaml
var catalogYAML []byte

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() Catalog {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

func ParseCatalog(b []byte) (Catalog, error) {
	var doc struct {
		Models []Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "could not parse model catalog")
	}
	if len(doc.Models) == 0 {
		return nil, errors.New("model catalog is empty")
	}
	seen := map[string]bool{}
	for _, m := range doc.Models {
		if m.ID == "" {
			return nil, errors.New("model catalog entry without id")
		}
		if seen[m.ID] {
			return nil, errors.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
	}
	return doc.Models, nil
}

func (c Catalog) Default() Model {
	return c[0]
}

func (c Catalog) Lookup(id string) (Model, bool) {
	for _, m := range c {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Resolve returns the catalog entry for id, or the default model.
func (c Catalog) Resolve(id string) Model {
	if m, ok := c.Lookup(id); ok {
		return m
	}
	return c.Default()
}
