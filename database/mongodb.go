package database

import (
	"context"
	"fmt"
	"time"

	"pawmi-triage-backend/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
    PetsCollection     = "pets"
    MessagesCollection = "messages"
)

var (
    mongoClient *mongo.Client
    mongoDB     *mongo.Database
    dbLogger    = zap.NewNop()
)

// ConnectMongoDB establishes connection to MongoDB
func ConnectMongoDB(cfg *config.Config, logger *zap.Logger) error {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    if logger != nil {
        dbLogger = logger.Named("mongodb")
    }

    // Set client options
    clientOptions := options.Client().
        ApplyURI(cfg.BuildDatabaseURI()).
        SetMaxPoolSize(uint64(cfg.Database.MaxConnections)).
        SetMinPoolSize(uint64(cfg.Database.MinConnections)).
        SetMaxConnIdleTime(cfg.Database.MaxIdleTime)

    client, err := mongo.Connect(ctx, clientOptions)
    if err != nil {
        return fmt.Errorf("failed to connect to MongoDB: %w", err)
    }

    if err := client.Ping(ctx, readpref.Primary()); err != nil {
        return fmt.Errorf("failed to ping MongoDB: %w", err)
    }

    mongoClient = client
    mongoDB = client.Database(cfg.Database.Name)

    dbLogger.Info("connected to MongoDB", zap.String("database", cfg.Database.Name))

    if err := createIndexes(ctx, mongoDB); err != nil {
        return fmt.Errorf("failed to create indexes: %w", err)
    }

    return nil
}

// GetMongoDB returns the MongoDB database instance, or nil before Connect.
func GetMongoDB() *mongo.Database {
    return mongoDB
}

// createIndexes creates necessary indexes
func createIndexes(ctx context.Context, db *mongo.Database) error {
    petIndexes := []mongo.IndexModel{
        {
            Keys: bson.D{{Key: "owner_id", Value: 1}},
        },
    }
    if _, err := db.Collection(PetsCollection).Indexes().CreateMany(ctx, petIndexes); err != nil {
        return fmt.Errorf("failed to create pet indexes: %w", err)
    }

    // Transcripts are always read per conversation in emission order.
    messageIndexes := []mongo.IndexModel{
        {
            Keys: bson.D{
                {Key: "conversation_id", Value: 1},
                {Key: "timestamp", Value: 1},
            },
        },
    }
    if _, err := db.Collection(MessagesCollection).Indexes().CreateMany(ctx, messageIndexes); err != nil {
        return fmt.Errorf("failed to create message indexes: %w", err)
    }

    dbLogger.Info("database indexes created")
    return nil
}

// DisconnectMongoDB closes the MongoDB connection
func DisconnectMongoDB() error {
    if mongoClient == nil {
        return nil
    }

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    if err := mongoClient.Disconnect(ctx); err != nil {
        return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
    }

    mongoClient = nil
    mongoDB = nil
    dbLogger.Info("disconnected from MongoDB")
    return nil
}
