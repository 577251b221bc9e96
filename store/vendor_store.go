package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assetflow/database"
	"assetflow/models"
)

type VendorStore struct {
	coll *mongo.Collection
}

func NewVendorStore(db *mongo.Database) *VendorStore {
	return &VendorStore{coll: db.Collection(database.VendorsCollection)}
}

func (s *VendorStore) List(ctx context.Context) ([]models.Vendor, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find vendors: %w", err)
	}
	defer cursor.Close(ctx)

	vendors := []models.Vendor{}
	if err := cursor.All(ctx, &vendors); err != nil {
		return nil, fmt.Errorf("decode vendors: %w", err)
	}
	return vendors, nil
}

func (s *VendorStore) Create(ctx context.Context, v *models.Vendor) error {
	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()
	if _, err := s.coll.InsertOne(ctx, v); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Update replaces the editable fields and returns the stored vendor.
func (s *VendorStore) Update(ctx context.Context, id primitive.ObjectID, v models.Vendor) (*models.Vendor, error) {
	update := bson.M{"$set": bson.M{
		"name":          v.Name,
		"email":         v.Email,
		"contactNumber": v.ContactNumber,
		"address":       v.Address,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.Vendor
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, mapFindError(err)
	}
	return &out, nil
}

func (s *VendorStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
