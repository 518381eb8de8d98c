package models

import (
    "time"
)

// Pet is a read-only profile supplied by the pet data store. Age and
// weight may arrive as exact numbers or as free text ("3 años", "12kg").
type Pet struct {
    ID        string    `bson:"_id" json:"id"`
    OwnerID   string    `bson:"owner_id" json:"owner_id"`
    Name      string    `bson:"name" json:"name"`
    Species   string    `bson:"species" json:"species"`
    Breed     string    `bson:"breed,omitempty" json:"breed,omitempty"`
    Age       string    `bson:"age,omitempty" json:"age,omitempty"`
    AgeYears  *float64  `bson:"age_years,omitempty" json:"age_years,omitempty"`
    Weight    string    `bson:"weight,omitempty" json:"weight,omitempty"`
    WeightKg  *float64  `bson:"weight_kg,omitempty" json:"weight_kg,omitempty"`
    ImageURL  string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
    CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// DisplaySpecies returns the species or a placeholder for transcripts.
func (p Pet) DisplaySpecies() string {
    if p.Species == "" {
        return "Sin especie"
    }
    return p.Species
}
