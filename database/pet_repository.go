package database

import (
	"context"
	"errors"
	"fmt"

	"pawmi-triage-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrPetNotFound = errors.New("pet not found")

// PetRepository reads pet profiles. The triage engine never writes them.
type PetRepository struct {
    collection *mongo.Collection
}

func NewPetRepository(db *mongo.Database) *PetRepository {
    return &PetRepository{collection: db.Collection(PetsCollection)}
}

func (r *PetRepository) GetPet(ctx context.Context, id string) (*models.Pet, error) {
    var pet models.Pet
    err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pet)
    if errors.Is(err, mongo.ErrNoDocuments) {
        return nil, ErrPetNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("failed to load pet %s: %w", id, err)
    }
    return &pet, nil
}

// ListPets returns the owner's pets, oldest first.
func (r *PetRepository) ListPets(ctx context.Context, ownerID string) ([]models.Pet, error) {
    opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
    cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
    if err != nil {
        return nil, fmt.Errorf("failed to list pets: %w", err)
    }
    defer cursor.Close(ctx)

    pets := []models.Pet{}
    if err := cursor.All(ctx, &pets); err != nil {
        return nil, fmt.Errorf("failed to decode pets: %w", err)
    }
    return pets, nil
}
