package utils

import (
    "strings"

    "pawmi-triage-backend/models"
)

const (
    minDescriptionWords = 4
    minDescriptionChars = 20
)

// IntentClassifier interprets replies with ordered keyword lists. Lists are
// matched in declared order and the first hit wins; nothing is scored.
type IntentClassifier struct {
    affirmative     []string
    negative        []string
    skip            []string
    symptomKeywords []string
    newCasePhrases  []string
    retryKeywords   []string
}

func NewIntentClassifier(catalog *models.Catalog) *IntentClassifier {
    return &IntentClassifier{
        affirmative:     normalizeKeywords(catalog.Affirmative),
        negative:        normalizeKeywords(catalog.Negative),
        skip:            normalizeKeywords(catalog.Skip),
        symptomKeywords: normalizeKeywords(catalog.SymptomKeywords),
        newCasePhrases:  normalizeKeywords(catalog.NewCasePhrases),
        retryKeywords:   normalizeKeywords(catalog.RetryKeywords),
    }
}

// ClassifyReply reads a yes/no answer. The affirmative list is always
// checked before the negative one.
func (ic *IntentClassifier) ClassifyReply(raw string) models.ReplyIntent {
    normalized := Normalize(raw)
    if normalized == "" {
        return models.ReplyIndeterminate
    }
    tokens := Tokens(normalized)

    if matchesAny(normalized, tokens, ic.affirmative) {
        return models.ReplyAffirmative
    }
    if matchesAny(normalized, tokens, ic.negative) {
        return models.ReplyNegative
    }
    return models.ReplyIndeterminate
}

// IsSkip reports whether the reply asks to skip the current question.
func (ic *IntentClassifier) IsSkip(raw string) bool {
    normalized := Normalize(raw)
    return normalized != "" && containsAnyKeyword(normalized, ic.skip)
}

// IsNegativeKeyword reports whether the whole reply is one negative keyword,
// e.g. "no" to a free-form question.
func (ic *IntentClassifier) IsNegativeKeyword(raw string) bool {
    normalized := Normalize(raw)
    for _, k := range ic.negative {
        if normalized == k {
            return true
        }
    }
    return false
}

// ClassifyMessage decides what an out-of-flow message means: a symptom
// description that starts a case, a request for a new case without
// symptoms, a retry request, or something too short to act on.
func (ic *IntentClassifier) ClassifyMessage(raw string) models.MessageIntent {
    trimmed := strings.TrimSpace(raw)
    normalized := Normalize(trimmed)
    if normalized == "" {
        return models.IntentUnknown
    }
    tokens := Tokens(normalized)

    hasSymptom := containsAnyKeyword(normalized, ic.symptomKeywords)
    if !hasSymptom && matchesAny(normalized, tokens, ic.retryKeywords) {
        return models.IntentRetry
    }
    if !hasSymptom && containsAnyKeyword(normalized, ic.newCasePhrases) {
        return models.IntentNewCase
    }
    if !hasSymptom && len(tokens) < minDescriptionWords && len([]rune(trimmed)) < minDescriptionChars {
        return models.IntentUnclear
    }
    return models.IntentSymptomReport
}

// matchesAny tests multi-word phrases by substring and single words by
// exact token, so a short keyword never matches inside a longer word.
func matchesAny(normalized string, tokens []string, phrases []string) bool {
    for _, phrase := range phrases {
        if strings.Contains(phrase, " ") {
            if strings.Contains(normalized, phrase) {
                return true
            }
            continue
        }
        for _, t := range tokens {
            if t == phrase {
                return true
            }
        }
    }
    return false
}
