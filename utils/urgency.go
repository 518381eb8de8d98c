package utils

import (
    "pawmi-triage-backend/models"
)

var urgentSymptoms = []models.SymptomKey{
    models.SymptomBloodyDiarrhea,
    models.SymptomSeizures,
    models.SymptomDyspnea,
    models.SymptomJaundice,
}

// AssessUrgency grades the active symptoms. Any urgent symptom wins over
// the symptom count.
func AssessUrgency(flags models.FlagSet, vocabulary []models.SymptomKey) models.UrgencyAssessment {
    active := flags.Active(vocabulary)
    assessment := models.UrgencyAssessment{ActiveSymptoms: active}

    hasUrgent := false
    for _, k := range urgentSymptoms {
        if flags[k] == 1 {
            hasUrgent = true
            break
        }
    }

    switch {
    case hasUrgent:
        assessment.Level = models.UrgencyHigh
        assessment.Recommendation = "Dirígete inmediatamente a un centro veterinario de urgencias"
    case len(active) >= 5:
        assessment.Level = models.UrgencyMediumHigh
        assessment.Recommendation = "Programa una cita veterinaria en las próximas 24-48 horas"
    case len(active) >= 3:
        assessment.Level = models.UrgencyMedium
        assessment.Recommendation = "Monitorea la evolución y consulta si empeora"
    default:
        assessment.Level = models.UrgencyLow
        assessment.Recommendation = "Observa a tu mascota. Consulta si aparecen más síntomas"
    }
    return assessment
}
