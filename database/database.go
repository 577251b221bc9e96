// database/database.go
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"assetflow/config"
)

// Collection names
const (
	AssetsCollection      = "assets"
	DepartmentsCollection = "departments"
	VendorsCollection     = "vendors"
	UsersCollection       = "users"
	UploadsCollection     = "uploads"
	AuditLogsCollection   = "audit_logs"
)

// Database owns the MongoDB client for the lifetime of the process.
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
	logger *zap.Logger
}

func Connect(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*Database, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	defer cancelPing()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB (check URI credentials, network access and that the cluster is running): %w", err)
	}

	logger.Info("Connected to MongoDB", zap.String("database", cfg.Database))
	return &Database{
		Client: client,
		DB:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// Ping reports whether the primary is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, readpref.Primary())
}

func (d *Database) Disconnect() {
	if d == nil || d.Client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Client.Disconnect(ctx); err != nil {
		d.logger.Warn("MongoDB disconnect warning", zap.Error(err))
	}
}
