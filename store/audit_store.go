package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"assetflow/database"
	"assetflow/models"
)

// AuditStore records write operations. Insert failures are logged, never returned.
type AuditStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewAuditStore(db *mongo.Database, logger *zap.Logger) *AuditStore {
	return &AuditStore{coll: db.Collection(database.AuditLogsCollection), logger: logger}
}

func (s *AuditStore) Insert(ctx context.Context, entry models.AuditLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		s.logger.Warn("audit log insert failed",
			zap.String("action", entry.Action),
			zap.String("entityId", entry.EntityID.Hex()),
			zap.Error(err))
	}
}

// List returns the most recent entries, newest first.
func (s *AuditStore) List(ctx context.Context, limit int64) ([]models.AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []models.AuditLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
