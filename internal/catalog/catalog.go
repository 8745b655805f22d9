// Package catalog lists the services an elder can book.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed services.yaml
var defaultCatalog []byte

// DefaultLanguage is used when a requested language has no translation.
const DefaultLanguage = "en"

// Localized maps a language code ("en", "hi") to text.
type Localized map[string]string

// In returns the text for lang, falling back to English.
func (l Localized) In(lang string) string {
	if s, ok := l[lang]; ok && s != "" {
		return s
	}
	return l[DefaultLanguage]
}

type Service struct {
	ID           string    `yaml:"id"`
	Name         Localized `yaml:"name"`
	Price        Localized `yaml:"price"`
	Availability Localized `yaml:"availability"`
}

// Entry is a Service rendered in one language.
type Entry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
}

type Catalog struct {
	services []Service
	byID     map[string]Service
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path returns the built-in one.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Services []Service `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Services) == 0 {
		return nil, fmt.Errorf("parse catalog: no services defined")
	}

	c := &Catalog{byID: make(map[string]Service, len(doc.Services))}
	for _, s := range doc.Services {
		if s.ID == "" {
			return nil, fmt.Errorf("parse catalog: service without id")
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate service id %q", s.ID)
		}
		if s.Name.In(DefaultLanguage) == "" {
			return nil, fmt.Errorf("parse catalog: service %q has no %s name", s.ID, DefaultLanguage)
		}
		c.byID[s.ID] = s
		c.services = append(c.services, s)
	}
	return c, nil
}

// Lookup reports whether id names a bookable service.
func (c *Catalog) Lookup(id string) (Service, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// List renders every service in lang, in file order.
func (c *Catalog) List(lang string) []Entry {
	out := make([]Entry, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, Entry{
			ID:           s.ID,
			Name:         s.Name.In(lang),
			Price:        s.Price.In(lang),
			Availability: s.Availability.In(lang),
		})
	}
	return out
}
