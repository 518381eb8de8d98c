package services

import (
    "regexp"
    "strconv"
    "strings"

    "pawmi-triage-backend/models"
)

// Fallbacks when the profile has no usable age or weight. They land in the
// "adult" life stage and the "medium" size class.
const (
    DefaultAgeYears = 1.0
    DefaultWeightKg = 15.0
)

const (
    smallMaxKg  = 10.0
    mediumMaxKg = 25.0
    seniorYears = 7.0
)

var numberPattern = regexp.MustCompile(`[\d.]+`)

// PayloadBuilder merges the collected flags with defaults derived from the
// pet profile into the fixed prediction vector.
type PayloadBuilder struct {
    vocabulary []models.SymptomKey
}

func NewPayloadBuilder(vocabulary []models.SymptomKey) *PayloadBuilder {
    return &PayloadBuilder{vocabulary: vocabulary}
}

// Build never omits a vocabulary key; anything not determined is sent as 0.
func (b *PayloadBuilder) Build(pet models.Pet, flags models.FlagSet) models.PredictionRequest {
    animalType := AnimalType(pet.Species)
    age := ResolveAge(pet)
    weight := ResolveWeight(pet)

    symptoms := make(map[models.SymptomKey]int, len(b.vocabulary))
    for _, k := range b.vocabulary {
        symptoms[k] = 0
    }
    for k, v := range flags {
        if _, known := symptoms[k]; known {
            symptoms[k] = v
        }
    }

    return models.PredictionRequest{
        AnimalType:         animalType,
        Size:               SizeClass(animalType, weight),
        Age:                age,
        LifeStage:          LifeStage(animalType, age),
        Weight:             weight,
        BCS:                5,
        BodyTemperature:    38.5,
        HeartRate:          100,
        RespiratoryRate:    25,
        FeverObjective:     0,
        Tachycardia:        0,
        Prevalence:         0.5,
        VaccinationUpdated: 1,
        Symptoms:           symptoms,
    }
}

// AnimalType maps the stored species to the model's label.
func AnimalType(species string) string {
    switch strings.ToLower(strings.TrimSpace(species)) {
    case "cat", "gato":
        return "Gato"
    default:
        return "Perro"
    }
}

// SizeClass: cats are always small; dogs go by weight.
func SizeClass(animalType string, weightKg float64) string {
    if animalType == "Gato" {
        return "Small"
    }
    switch {
    case weightKg < smallMaxKg:
        return "Small"
    case weightKg < mediumMaxKg:
        return "Medium"
    default:
        return "Large"
    }
}

func LifeStage(animalType string, ageYears float64) string {
    switch {
    case ageYears < 1:
        if animalType == "Gato" {
            return "Kitten"
        }
        return "Puppy"
    case ageYears >= seniorYears:
        return "Senior"
    default:
        return "Adult"
    }
}

// ResolveAge prefers the exact numeric age, then the first number found in
// the free-text age, then DefaultAgeYears.
func ResolveAge(pet models.Pet) float64 {
    if pet.AgeYears != nil && *pet.AgeYears > 0 {
        return *pet.AgeYears
    }
    if v, ok := firstNumber(pet.Age); ok {
        return v
    }
    return DefaultAgeYears
}

func ResolveWeight(pet models.Pet) float64 {
    if pet.WeightKg != nil && *pet.WeightKg > 0 {
        return *pet.WeightKg
    }
    if v, ok := firstNumber(pet.Weight); ok && v > 0 {
        return v
    }
    return DefaultWeightKg
}

func firstNumber(text string) (float64, bool) {
    m := numberPattern.FindString(strings.ReplaceAll(text, ",", "."))
    if m == "" {
        return 0, false
    }
    v, err := strconv.ParseFloat(m, 64)
    if err != nil {
        return 0, false
    }
    return v, true
}
