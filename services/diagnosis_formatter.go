package services

import (
    "fmt"
    "strings"

    "pawmi-triage-backend/models"
)

const maxAlternatives = 2

// FormatDiagnosis renders a prediction as the conversational reply shown to
// the owner.
func FormatDiagnosis(petName string, result *models.PredictionResult, urgency models.UrgencyAssessment) string {
    var b strings.Builder
    b.WriteString("Muy bien, ya revisé toda la información 💙\n\n")

    alert := result.UrgencyAlert
    if alert == "" && urgency.Level == models.UrgencyHigh {
        alert = urgency.Recommendation
    }
    if alert != "" {
        fmt.Fprintf(&b, "⚠️ %s\n\n", alert)
        b.WriteString("Sé que esto puede preocuparte, pero es importante actuar rápido. Estoy aquí para ayudarte 🤗\n\n")
    }

    if len(result.Predictions) > 0 {
        top := result.Predictions[0]
        fmt.Fprintf(&b, "📋 Basándome en todo lo que me contaste sobre %s, ", petName)
        fmt.Fprintf(&b, "lo más probable es que tenga **%s** (%.1f%% de posibilidad).\n\n", top.Disease, top.Probability*100)

        rest := result.Predictions[1:]
        if len(rest) > maxAlternatives {
            rest = rest[:maxAlternatives]
        }
        if len(rest) > 0 {
            b.WriteString("También podría ser:\n")
            for _, p := range rest {
                fmt.Fprintf(&b, "• %s: %.1f%%\n", p.Disease, p.Probability*100)
            }
            b.WriteString("\n")
        }
    }

    recommendation := result.Recommendation
    if recommendation == "" {
        recommendation = urgency.Recommendation
    }
    b.WriteString(recommendation)
    b.WriteString("\n\n")

    disclaimer := result.Disclaimer
    if disclaimer == "" {
        disclaimer = "Esta es una evaluación preliminar. Siempre consulta con un veterinario."
    }
    fmt.Fprintf(&b, "💡 Recuerda: %s", disclaimer)
    return b.String()
}
