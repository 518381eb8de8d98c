package utils

import (
    "strings"

    "pawmi-triage-backend/models"
)

// SymptomDetector turns an opening complaint into a partial flag set.
type SymptomDetector struct {
    rules []models.DetectorRule
}

func NewSymptomDetector(catalog *models.Catalog) *SymptomDetector {
    return &SymptomDetector{
        rules: normalizeRules(catalog.DetectorRules),
    }
}

// Detect returns only the keys it positively matched, all set to 1.
// A keyword that is absent gives no opinion, so no 0 is ever emitted.
func (d *SymptomDetector) Detect(text string) models.FlagSet {
    normalized := Normalize(text)
    detected := models.FlagSet{}
    if normalized == "" {
        return detected
    }

    for _, rule := range d.rules {
        applyRule(normalized, rule, detected)
    }
    return detected
}

func applyRule(normalized string, rule models.DetectorRule, detected models.FlagSet) {
    if !containsAnyKeyword(normalized, rule.Keywords) {
        return
    }
    for _, key := range rule.Keys {
        detected.Set(key, 1)
    }
    if rule.Compound != nil {
        applyRule(normalized, *rule.Compound, detected)
    }
}

// normalizeRules folds keywords once so catalog entries with accents still
// match normalized input.
func normalizeRules(rules []models.DetectorRule) []models.DetectorRule {
    out := make([]models.DetectorRule, 0, len(rules))
    for _, r := range rules {
        folded := models.DetectorRule{
            Keywords: normalizeKeywords(r.Keywords),
            Keys:     r.Keys,
        }
        if r.Compound != nil {
            nested := normalizeRules([]models.DetectorRule{*r.Compound})
            folded.Compound = &nested[0]
        }
        out = append(out, folded)
    }
    return out
}

func normalizeKeywords(keywords []string) []string {
    out := make([]string, 0, len(keywords))
    for _, k := range keywords {
        if n := Normalize(k); n != "" {
            out = append(out, n)
        }
    }
    return out
}

func containsAnyKeyword(message string, keywords []string) bool {
    for _, keyword := range keywords {
        if strings.Contains(message, keyword) {
            return true
        }
    }
    return false
}
