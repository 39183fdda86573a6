package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"grana/internal/core"
)

// Rules holds the two tunable classification tables: the name fragments
// that mark an expense as fixed, and the category to benefit-type mapping
// used for deductions. Empty sections fall back to the built-in defaults.
type Rules struct {
	FixedKeywords    []string          `yaml:"fixed_keywords"`
	CategoryBenefits map[string]string `yaml:"category_benefits"`
}

// LoadRules reads a YAML rules file. An empty path returns nil rules,
// meaning defaults everywhere.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) validate() error {
	for cat, bt := range r.CategoryBenefits {
		if !core.Category(cat).Valid() {
			return fmt.Errorf("rules file: unknown category %q", cat)
		}
		if !core.BenefitType(bt).Valid() {
			return fmt.Errorf("rules file: unknown benefit type %q for category %q", bt, cat)
		}
	}
	return nil
}

// Keywords returns the configured keyword set, or nil to select defaults.
func (r *Rules) Keywords() []string {
	if r == nil || len(r.FixedKeywords) == 0 {
		return nil
	}
	return r.FixedKeywords
}

// CategoryMap returns the configured category table, or nil to select
// defaults.
func (r *Rules) CategoryMap() map[core.Category]core.BenefitType {
	if r == nil || len(r.CategoryBenefits) == 0 {
		return nil
	}
	m := make(map[core.Category]core.BenefitType, len(r.CategoryBenefits))
	for cat, bt := range r.CategoryBenefits {
		m[core.Category(cat)] = core.BenefitType(bt)
	}
	return m
}
