package providers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCategoriesYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "categories.yaml")
	content := `
categories:
  - id: tech
    title: Tech
    param: Technology
  - id: health
    param: health
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write categories file: %v", err)
	}

	reg, err := LoadCategories(file)
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(all))
	}
	if all[0].Param != "technology" {
		t.Errorf("param not normalized: %q", all[0].Param)
	}
	health, ok := reg.ByID("health")
	if !ok || health.Title != "health" {
		t.Errorf("expected title fallback to id, got %+v ok=%v", health, ok)
	}
}

func TestLoadCategoriesJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "categories.json")
	if err := os.WriteFile(file, []byte(`{"categories":[{"id":"sports","title":"Sports","param":"sports"}]}`), 0o644); err != nil {
		t.Fatalf("write categories file: %v", err)
	}
	reg, err := LoadCategories(file)
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	if _, ok := reg.ByID("sports"); !ok {
		t.Fatalf("expected sports category")
	}
}

func TestLoadCategoriesDuplicateID(t *testing.T) {
	file := filepath.Join(t.TempDir(), "categories.yaml")
	content := `
categories:
  - id: dup
    param: general
  - id: dup
    param: sports
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write categories file: %v", err)
	}
	if _, err := LoadCategories(file); err == nil {
		t.Fatalf("expected duplicate category error, got nil")
	}
}

func TestLoadCategoriesDefaults(t *testing.T) {
	reg, err := LoadCategories("")
	if err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	all := reg.All()
	if len(all) != 5 || all[0].ID != "latest" || all[3].Param != "technology" {
		t.Fatalf("unexpected defaults %+v", all)
	}
}
