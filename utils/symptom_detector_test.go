package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawmi-triage-backend/config"
	"pawmi-triage-backend/models"
)

func loadCatalog(t *testing.T) *models.Catalog {
	t.Helper()
	catalog, err := config.LoadCatalog("")
	require.NoError(t, err)
	return catalog
}

func TestSymptomDetector_Detect(t *testing.T) {
	d := NewSymptomDetector(loadCatalog(t))

	tests := []struct {
		name string
		text string
		want models.FlagSet
	}{
		{"accents folded", "Mi perro tiene VÓMITO y fiebre", models.FlagSet{models.SymptomVomiting: 1, models.SymptomFever: 1}},
		{"compound rule", "tiene diarrea con sangre", models.FlagSet{models.SymptomDiarrhea: 1, models.SymptomBloodyDiarrhea: 1}},
		{"compound needs parent", "le sale sangre de la pata", models.FlagSet{}},
		{"breathing", "le cuesta respirar y tose", models.FlagSet{models.SymptomDyspnea: 1, models.SymptomCough: 1}},
		{"lethargy phrase", "está sin energía", models.FlagSet{models.SymptomLethargy: 1}},
		{"nothing", "hola, buenos días", models.FlagSet{}},
		{"empty", "", models.FlagSet{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text))
		})
	}
}

func TestSymptomDetector_NeverEmitsZero(t *testing.T) {
	d := NewSymptomDetector(loadCatalog(t))
	for _, text := range []string{"no tiene fiebre", "no vomita", "diarrea sin sangre"} {
		for k, v := range d.Detect(text) {
			assert.Equal(t, 1, v, "%s set to %d for %q", k, v, text)
		}
	}
}

// Substring matching is deliberate: a short keyword also hits inside a
// longer word.
func TestSymptomDetector_SubstringMatch(t *testing.T) {
	d := NewSymptomDetector(loadCatalog(t))
	flags := d.Detect("ya no tiene vomitos")
	assert.Equal(t, 1, flags[models.SymptomVomiting])
	assert.Equal(t, 1, flags[models.SymptomCough], "\"tos\" matches inside \"vomitos\"")
}
