// Package store holds the MongoDB-backed repositories. Each store is built
// from an explicit *mongo.Database handle.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assetflow/database"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrInUse     = errors.New("record is in use")
)

// containsFold matches s anywhere in the field, case-insensitive. s is taken literally.
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func mapFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// EnsureIndexes creates the unique and query indexes used by the stores.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		database.DepartmentsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		database.VendorsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		database.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		database.AssetsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "departmentId", Value: 1}}},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "academicYear", Value: 1}}},
		},
		database.UploadsCollection: {
			{Keys: bson.D{{Key: "assetId", Value: 1}}},
		},
		database.AuditLogsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for coll, indexes := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
