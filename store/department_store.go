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

type DepartmentStore struct {
	coll *mongo.Collection
}

func NewDepartmentStore(db *mongo.Database) *DepartmentStore {
	return &DepartmentStore{coll: db.Collection(database.DepartmentsCollection)}
}

// List returns every department ordered by name.
func (s *DepartmentStore) List(ctx context.Context) ([]models.Department, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find departments: %w", err)
	}
	defer cursor.Close(ctx)

	departments := []models.Department{}
	if err := cursor.All(ctx, &departments); err != nil {
		return nil, fmt.Errorf("decode departments: %w", err)
	}
	return departments, nil
}

func (s *DepartmentStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	var d models.Department
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, mapFindError(err)
	}
	return &d, nil
}

// Exists reports whether a department with the id is present.
func (s *DepartmentStore) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExistsByName reports whether another department already uses name.
func (s *DepartmentStore) ExistsByName(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"name": name}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *DepartmentStore) Create(ctx context.Context, d *models.Department) error {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.CreatedAt, d.UpdatedAt = now, now
	if _, err := s.coll.InsertOne(ctx, d); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *DepartmentStore) Update(ctx context.Context, id primitive.ObjectID, name, deptType string) (*models.Department, error) {
	update := bson.M{"$set": bson.M{"name": name, "type": deptType, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d models.Department
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, mapFindError(err)
	}
	return &d, nil
}

func (s *DepartmentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// NamesByIDs resolves department ids to names. Unknown ids are absent from the result.
func (s *DepartmentStore) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find department names: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var d models.Department
		if err := cursor.Decode(&d); err != nil {
			return nil, err
		}
		names[d.ID.Hex()] = d.Name
	}
	return names, cursor.Err()
}

// Upsert creates the department by name or updates its type. It reports
// whether a new document was inserted.
func (s *DepartmentStore) Upsert(ctx context.Context, name, deptType string) (bool, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"type": deptType, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"name": name}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert department %q: %w", name, err)
	}
	return res.UpsertedCount > 0, nil
}

// DeleteAll removes every department and returns how many were removed.
func (s *DepartmentStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
