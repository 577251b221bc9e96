package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"assetflow/database"
	"assetflow/models"
)

// MongoFileStore keeps file bytes inside the uploads collection.
type MongoFileStore struct {
	coll *mongo.Collection
}

func NewMongoFileStore(db *mongo.Database) *MongoFileStore {
	return &MongoFileStore{coll: db.Collection(database.UploadsCollection)}
}

func (s *MongoFileStore) Save(ctx context.Context, u Upload) (*models.FileRef, error) {
	doc := models.Upload{
		ID:          primitive.NewObjectID(),
		Filename:    u.Filename,
		ContentType: u.ContentType,
		Data:        u.Data,
		Size:        int64(len(u.Data)),
		AssetID:     u.AssetID,
		ItemIndex:   u.ItemIndex,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}
	return &models.FileRef{
		Storage:     BackendMongo,
		Key:         doc.ID.Hex(),
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Size:        doc.Size,
	}, nil
}

func (s *MongoFileStore) Open(ctx context.Context, ref models.FileRef) (io.ReadCloser, error) {
	id, err := s.key(ref)
	if err != nil {
		return nil, err
	}
	var doc models.Upload
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(doc.Data)), nil
}

func (s *MongoFileStore) Delete(ctx context.Context, ref models.FileRef) error {
	id, err := s.key(ref)
	if err != nil {
		return err
	}
	_, err = s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoFileStore) key(ref models.FileRef) (primitive.ObjectID, error) {
	if ref.Storage != BackendMongo {
		return primitive.NilObjectID, ErrWrongBackend
	}
	id, err := primitive.ObjectIDFromHex(ref.Key)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return id, nil
}
