package models

import (
	"encoding/json"
)

// PredictionRequest is the fixed-width feature vector sent to the disease
// prediction service. Symptoms always carries every vocabulary key.
type PredictionRequest struct {
	AnimalType         string
	Size               string
	Age                float64
	LifeStage          string
	Weight             float64
	BCS                int
	BodyTemperature    float64
	HeartRate          int
	RespiratoryRate    int
	FeverObjective     int
	Tachycardia        int
	Prevalence         float64
	VaccinationUpdated int
	Symptoms           map[SymptomKey]int
}

// MarshalJSON flattens the symptom vector next to the demographic fields,
// which is the shape the prediction endpoint expects.
func (r PredictionRequest) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"animal_type":         r.AnimalType,
		"size":                r.Size,
		"age":                 r.Age,
		"life_stage":          r.LifeStage,
		"weight":              r.Weight,
		"bcs":                 r.BCS,
		"body_temperature":    r.BodyTemperature,
		"heart_rate":          r.HeartRate,
		"respiratory_rate":    r.RespiratoryRate,
		"fever_objective":     r.FeverObjective,
		"tachycardia":         r.Tachycardia,
		"prevalence":          r.Prevalence,
		"vaccination_updated": r.VaccinationUpdated,
	}
	for k, v := range r.Symptoms {
		out[string(k)] = v
	}
	return json.Marshal(out)
}

type DiseasePrediction struct {
	Disease     string  `json:"disease"`
	Probability float64 `json:"probability"`
	Confidence  string  `json:"confidence,omitempty"`
}

// PredictionResult is the subset of the prediction response the
// conversation needs.
type PredictionResult struct {
	Success        bool                `json:"success"`
	Message        string              `json:"message,omitempty"`
	Predictions    []DiseasePrediction `json:"predictions"`
	Recommendation string              `json:"recommendation,omitempty"`
	Disclaimer     string              `json:"disclaimer,omitempty"`
	UrgencyAlert   string              `json:"urgency_alert,omitempty"`
	ModelVersion   string              `json:"model_version,omitempty"`
	Warning        string              `json:"warning,omitempty"`
}

// UrgencyLevel grades how soon the pet should see a vet.
type UrgencyLevel string

const (
	UrgencyHigh       UrgencyLevel = "ALTA"
	UrgencyMediumHigh UrgencyLevel = "MEDIA-ALTA"
	UrgencyMedium     UrgencyLevel = "MEDIA"
	UrgencyLow        UrgencyLevel = "BAJA"
)

type UrgencyAssessment struct {
	Level          UrgencyLevel `json:"level"`
	ActiveSymptoms []SymptomKey `json:"active_symptoms"`
	Recommendation string       `json:"recommendation"`
}
