package database

import (
	"context"
	"fmt"
	"time"

	"pawmi-triage-backend/config"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Connect establishes database connection based on config
func Connect(cfg *config.Config, logger *zap.Logger) error {
    switch cfg.Database.Type {
    case "mongodb":
        return ConnectMongoDB(cfg, logger)
    default:
        return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
    }
}

// Disconnect closes database connection
func Disconnect() error {
    return DisconnectMongoDB()
}

// HealthCheck pings the primary. It fails fast when Connect was never
// called instead of aborting the process.
func HealthCheck(ctx context.Context) error {
    if mongoClient == nil {
        return fmt.Errorf("database not connected")
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    return mongoClient.Ping(ctx, readpref.Primary())
}
