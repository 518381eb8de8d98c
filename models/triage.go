package models

// SymptomKey is one term of the fixed symptom vocabulary sent to the
// prediction model.
type SymptomKey string

const (
    SymptomVomiting          SymptomKey = "vomitos"
    SymptomDiarrhea          SymptomKey = "diarrea"
    SymptomBloodyDiarrhea    SymptomKey = "diarrea_hemorragica"
    SymptomFever             SymptomKey = "fiebre"
    SymptomLethargy          SymptomKey = "letargo"
    SymptomDehydration       SymptomKey = "deshidratacion"
    SymptomCough             SymptomKey = "tos"
    SymptomDyspnea           SymptomKey = "disnea"
    SymptomSneezing          SymptomKey = "estornudos"
    SymptomNasalDischarge    SymptomKey = "secrecion_nasal"
    SymptomOcularDischarge   SymptomKey = "secrecion_ocular"
    SymptomOralUlcers        SymptomKey = "ulceras_orales"
    SymptomPruritus          SymptomKey = "prurito"
    SymptomAlopecia          SymptomKey = "alopecia"
    SymptomOtitis            SymptomKey = "otitis"
    SymptomAbdominalPain     SymptomKey = "dolor_abdominal"
    SymptomJaundice          SymptomKey = "ictericia"
    SymptomHematuria         SymptomKey = "hematuria"
    SymptomDysuria           SymptomKey = "disuria"
    SymptomLameness          SymptomKey = "cojera"
    SymptomStiffness         SymptomKey = "rigidez"
    SymptomJointPain         SymptomKey = "dolor_articular"
    SymptomSeizures          SymptomKey = "convulsiones"
    SymptomNeurologicalSigns SymptomKey = "signos_neurologicos"
    SymptomHypersalivation   SymptomKey = "hipersalivacion"
    SymptomHeartMurmur       SymptomKey = "soplo_cardiaco"
    SymptomTachypnea         SymptomKey = "taquipnea"
    SymptomChronic           SymptomKey = "is_chronic"
    SymptomSeasonal          SymptomKey = "is_seasonal"
)

// DefaultSymptomKeys is the prediction vector order used when the catalog
// does not declare its own vocabulary.
var DefaultSymptomKeys = []SymptomKey{
    SymptomVomiting, SymptomDiarrhea, SymptomBloodyDiarrhea, SymptomFever,
    SymptomLethargy, SymptomDehydration, SymptomCough, SymptomDyspnea,
    SymptomSneezing, SymptomNasalDischarge, SymptomOcularDischarge,
    SymptomOralUlcers, SymptomPruritus, SymptomAlopecia, SymptomOtitis,
    SymptomAbdominalPain, SymptomJaundice, SymptomHematuria, SymptomDysuria,
    SymptomLameness, SymptomStiffness, SymptomJointPain, SymptomSeizures,
    SymptomNeurologicalSigns, SymptomHypersalivation, SymptomHeartMurmur,
    SymptomTachypnea, SymptomChronic, SymptomSeasonal,
}

// FlagSet maps symptom keys to 0 or 1. A missing key means "not yet
// determined", which is different from an explicit 0.
type FlagSet map[SymptomKey]int

// Get returns the value for key and whether it has been determined.
func (f FlagSet) Get(key SymptomKey) (int, bool) {
    v, ok := f[key]
    return v, ok
}

// IsUnset reports whether key has not been determined yet.
func (f FlagSet) IsUnset(key SymptomKey) bool {
    _, ok := f[key]
    return !ok
}

// Set records an explicit value, clamped to {0, 1}.
func (f FlagSet) Set(key SymptomKey, value int) {
    if value != 0 {
        value = 1
    }
    f[key] = value
}

// Clone returns an independent copy, used for snapshots handed to readers.
func (f FlagSet) Clone() FlagSet {
    out := make(FlagSet, len(f))
    for k, v := range f {
        out[k] = v
    }
    return out
}

// Active lists keys set to 1 in vocabulary order.
func (f FlagSet) Active(vocabulary []SymptomKey) []SymptomKey {
    var out []SymptomKey
    for _, k := range vocabulary {
        if f[k] == 1 {
            out = append(out, k)
        }
    }
    return out
}

// ReplyIntent is the result of interpreting a yes/no answer.
type ReplyIntent string

const (
    ReplyAffirmative   ReplyIntent = "affirmative"
    ReplyNegative      ReplyIntent = "negative"
    ReplyIndeterminate ReplyIntent = "indeterminate"
)

// AnswerType tells the orchestrator how to interpret a reply to a question.
type AnswerType string

const (
    AnswerYesNo    AnswerType = "yesno"
    AnswerFreeForm AnswerType = "freeform"
)

// Condition is a declarative applicability predicate: every key in Unset
// must be undetermined and every entry of Equals must match exactly.
type Condition struct {
    Unset  []SymptomKey       `yaml:"unset,omitempty" json:"unset,omitempty"`
    Equals map[SymptomKey]int `yaml:"equals,omitempty" json:"equals,omitempty"`
}

// Holds evaluates the condition against flags.
func (c Condition) Holds(flags FlagSet) bool {
    for _, k := range c.Unset {
        if !flags.IsUnset(k) {
            return false
        }
    }
    for k, want := range c.Equals {
        got, ok := flags.Get(k)
        if !ok || got != want {
            return false
        }
    }
    return true
}

// GuidedQuestion is a static catalog entry.
type GuidedQuestion struct {
    ID      string       `yaml:"id" json:"id"`
    Prompt  string       `yaml:"prompt" json:"prompt"`
    Type    AnswerType   `yaml:"type" json:"type"`
    Keys    []SymptomKey `yaml:"keys,omitempty" json:"keys,omitempty"`
    AskWhen *Condition   `yaml:"ask_when,omitempty" json:"ask_when,omitempty"`
}

// ShouldAsk evaluates the applicability predicate. Without one, the
// question is asked only while every key it sets is still unset.
func (q GuidedQuestion) ShouldAsk(flags FlagSet) bool {
    if q.AskWhen != nil {
        return q.AskWhen.Holds(flags)
    }
    for _, k := range q.Keys {
        if !flags.IsUnset(k) {
            return false
        }
    }
    return true
}

// DetectorRule maps keywords to the keys they set. Compound is only
// evaluated when the rule itself matched.
type DetectorRule struct {
    Keywords []string      `yaml:"keywords"`
    Keys     []SymptomKey  `yaml:"keys"`
    Compound *DetectorRule `yaml:"compound,omitempty"`
}

// Catalog is the keyword and question configuration loaded at startup.
// It is read-only once loaded.
type Catalog struct {
    SymptomKeys     []SymptomKey     `yaml:"symptom_keys"`
    DetectorRules   []DetectorRule   `yaml:"detector_rules"`
    Affirmative     []string         `yaml:"affirmative"`
    Negative        []string         `yaml:"negative"`
    Skip            []string         `yaml:"skip"`
    SymptomKeywords []string         `yaml:"symptom_keywords"`
    NewCasePhrases  []string         `yaml:"new_case_phrases"`
    RetryKeywords   []string         `yaml:"retry_keywords"`
    Questions       []GuidedQuestion `yaml:"questions"`
}

// SequencerState is the phase of the guided question flow.
type SequencerState string

const (
    StateNotStarted     SequencerState = "not_started"
    StateAwaitingAnswer SequencerState = "awaiting_answer"
    StateComplete       SequencerState = "complete"
)
