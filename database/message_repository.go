package database

import (
	"context"
	"fmt"

	"pawmi-triage-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository persists the messages each conversation emits.
type MessageRepository struct {
    collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
    return &MessageRepository{collection: db.Collection(MessagesCollection)}
}

func (r *MessageRepository) SaveMessage(ctx context.Context, msg models.ChatMessage) error {
    if _, err := r.collection.InsertOne(ctx, msg); err != nil {
        return fmt.Errorf("failed to save message: %w", err)
    }
    return nil
}

// ListMessages returns up to limit messages of a conversation in emission
// order. A non-positive limit returns all of them.
func (r *MessageRepository) ListMessages(ctx context.Context, conversationID string, limit int64) ([]models.ChatMessage, error) {
    opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
    if limit > 0 {
        opts.SetLimit(limit)
    }
    cursor, err := r.collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
    if err != nil {
        return nil, fmt.Errorf("failed to list messages: %w", err)
    }
    defer cursor.Close(ctx)

    messages := []models.ChatMessage{}
    if err := cursor.All(ctx, &messages); err != nil {
        return nil, fmt.Errorf("failed to decode messages: %w", err)
    }
    return messages, nil
}

// DeleteConversation removes a conversation's stored transcript.
func (r *MessageRepository) DeleteConversation(ctx context.Context, conversationID string) error {
    if _, err := r.collection.DeleteMany(ctx, bson.M{"conversation_id": conversationID}); err != nil {
        return fmt.Errorf("failed to delete messages: %w", err)
    }
    return nil
}
