package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/pulse-news/internal/domain"
	"gopkg.in/yaml.v3"
)

// Package providers contains the news API fetcher and the category registry
// (YAML/JSON) that drives the listing sections.

type categoryFile struct {
	Categories []domain.Category `json:"categories" yaml:"categories"`
}

// CategoryRegistry is the ordered set of listing sections.
type CategoryRegistry struct {
	categories []domain.Category
	idx        map[string]domain.Category
}

// DefaultCategories are the front page sections used when no categories file is set.
func DefaultCategories() []domain.Category {
	return []domain.Category{
		{ID: "latest", Title: "Latest", Param: "general"},
		{ID: "sports", Title: "Sports", Param: "sports"},
		{ID: "business", Title: "Business", Param: "business"},
		{ID: "tech", Title: "Tech", Param: "technology"},
		{ID: "wars", Title: "Wars & Politics", Param: "politics"},
	}
}

// DefaultRegistry returns a registry holding DefaultCategories.
func DefaultRegistry() *CategoryRegistry {
	reg, err := NewCategoryRegistry(DefaultCategories())
	if err != nil {
		panic(err) // built-in defaults are valid
	}
	return reg
}

// NewCategoryRegistry validates and indexes cats.
func NewCategoryRegistry(cats []domain.Category) (*CategoryRegistry, error) {
	if len(cats) == 0 {
		return nil, errors.New("no categories configured")
	}

	reg := &CategoryRegistry{
		categories: make([]domain.Category, len(cats)),
		idx:        make(map[string]domain.Category, len(cats)),
	}
	for i := range cats {
		c := sanitizeCategory(cats[i])
		if err := validateCategory(c); err != nil {
			return nil, fmt.Errorf("categories[%d]: %w", i, err)
		}
		if _, exists := reg.idx[c.ID]; exists {
			return nil, fmt.Errorf("duplicate category id %q", c.ID)
		}
		reg.categories[i] = c
		reg.idx[c.ID] = c
	}
	return reg, nil
}

// LoadCategories reads the registry from path, or returns the defaults when path is empty.
func LoadCategories(path string) (*CategoryRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRegistry(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open categories file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}

	parsed, err := parseCategoryFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Categories) == 0 {
		return nil, errors.New("categories file contains no categories entries")
	}
	return NewCategoryRegistry(parsed.Categories)
}

// All returns a copy of the configured categories in order.
func (r *CategoryRegistry) All() []domain.Category {
	if r == nil {
		return nil
	}
	out := make([]domain.Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// ByID returns the category with the given id.
func (r *CategoryRegistry) ByID(id string) (domain.Category, bool) {
	if r == nil {
		return domain.Category{}, false
	}
	c, ok := r.idx[strings.TrimSpace(id)]
	return c, ok
}

type unmarshalFn func([]byte, any) error

func parseCategoryFile(data []byte, ext string) (categoryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out categoryFile
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}

	return categoryFile{}, errors.New("categories file format not recognized (expected YAML or JSON)")
}

func sanitizeCategory(c domain.Category) domain.Category {
	c.ID = strings.TrimSpace(c.ID)
	c.Title = strings.TrimSpace(c.Title)
	c.Param = strings.ToLower(strings.TrimSpace(c.Param))
	if c.Title == "" {
		c.Title = c.ID
	}
	return c
}

func validateCategory(c domain.Category) error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if c.Param == "" {
		return fmt.Errorf("param is required for category %q", c.ID)
	}
	return nil
}
