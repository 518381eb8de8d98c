package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pawmi-triage-backend/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// LoadCatalog reads the keyword catalog from path, or the embedded default
// when path is empty. The returned catalog must be treated as read-only.
func LoadCatalog(path string) (*models.Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
		data = raw
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*models.Catalog, error) {
	var catalog models.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(catalog.SymptomKeys) == 0 {
		catalog.SymptomKeys = append([]models.SymptomKey(nil), models.DefaultSymptomKeys...)
	}
	if err := validateCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &catalog, nil
}

func validateCatalog(c *models.Catalog) error {
	known := make(map[models.SymptomKey]bool, len(c.SymptomKeys))
	for _, k := range c.SymptomKeys {
		if known[k] {
			return fmt.Errorf("duplicate symptom key %q", k)
		}
		known[k] = true
	}

	checkKeys := func(where string, keys []models.SymptomKey) error {
		for _, k := range keys {
			if !known[k] {
				return fmt.Errorf("%s references unknown symptom key %q", where, k)
			}
		}
		return nil
	}

	var checkRule func(i int, r *models.DetectorRule) error
	checkRule = func(i int, r *models.DetectorRule) error {
		if len(r.Keywords) == 0 || len(r.Keys) == 0 {
			return fmt.Errorf("detector rule %d needs keywords and keys", i)
		}
		if err := checkKeys(fmt.Sprintf("detector rule %d", i), r.Keys); err != nil {
			return err
		}
		if r.Compound != nil {
			return checkRule(i, r.Compound)
		}
		return nil
	}
	for i := range c.DetectorRules {
		if err := checkRule(i, &c.DetectorRules[i]); err != nil {
			return err
		}
	}

	if len(c.Affirmative) == 0 || len(c.Negative) == 0 {
		return fmt.Errorf("affirmative and negative keyword lists are required")
	}

	ids := make(map[string]bool, len(c.Questions))
	for _, q := range c.Questions {
		if q.ID == "" || q.Prompt == "" {
			return fmt.Errorf("question needs an id and a prompt")
		}
		if ids[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		ids[q.ID] = true

		switch q.Type {
		case models.AnswerYesNo:
			if len(q.Keys) == 0 {
				return fmt.Errorf("yes/no question %q sets no keys", q.ID)
			}
		case models.AnswerFreeForm:
		default:
			return fmt.Errorf("question %q has unknown type %q", q.ID, q.Type)
		}

		where := fmt.Sprintf("question %q", q.ID)
		if err := checkKeys(where, q.Keys); err != nil {
			return err
		}
		if q.AskWhen != nil {
			if err := checkKeys(where, q.AskWhen.Unset); err != nil {
				return err
			}
			for k := range q.AskWhen.Equals {
				if !known[k] {
					return fmt.Errorf("%s references unknown symptom key %q", where, k)
				}
			}
		}
	}
	return nil
}
