package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"classboard/internal/domain"
)

//go:embed categories.yaml
var defaultCategoriesYAML []byte

// CategoryPool is the set of rating categories sessions pick from.
type CategoryPool struct {
	Defaults   int               `yaml:"defaults"`
	Categories []domain.Category `yaml:"categories"`
}

// LoadCategoryPool reads the pool from path, or the embedded pool when path
// is empty.
func LoadCategoryPool(path string) (*CategoryPool, error) {
	raw := defaultCategoriesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read categories file: %w", err)
		}
		raw = b
	}
	return ParseCategoryPool(raw)
}

// ParseCategoryPool decodes and normalises a YAML category pool.
func ParseCategoryPool(raw []byte) (*CategoryPool, error) {
	var pool CategoryPool
	if err := yaml.Unmarshal(raw, &pool); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	if len(pool.Categories) == 0 {
		return nil, fmt.Errorf("category pool is empty")
	}

	seen := make(map[string]struct{}, len(pool.Categories))
	for i := range pool.Categories {
		c := &pool.Categories[i]
		if c.ID == "" {
			return nil, fmt.Errorf("category %d has no id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.Label == "" {
			c.Label = c.ID
		}
		if c.Weight == 0 {
			c.Weight = 1.0
		}
	}

	if pool.Defaults <= 0 || pool.Defaults > len(pool.Categories) {
		pool.Defaults = min(5, len(pool.Categories))
	}
	return &pool, nil
}

// DefaultSet returns a copy of the preselected categories.
func (p *CategoryPool) DefaultSet() []domain.Category {
	out := make([]domain.Category, p.Defaults)
	copy(out, p.Categories[:p.Defaults])
	return out
}

// Pick resolves ids against the pool, keeping the caller's order.
func (p *CategoryPool) Pick(ids []string) ([]domain.Category, error) {
	byID := make(map[string]domain.Category, len(p.Categories))
	for _, c := range p.Categories {
		byID[c.ID] = c
	}
	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown category %q", id)
		}
		out = append(out, c)
	}
	return out, nil
}
