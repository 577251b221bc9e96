package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"assetflow/database"
	"assetflow/models"
)

// AssetStore persists capital and revenue assets in one collection keyed by type.
type AssetStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewAssetStore(db *mongo.Database, logger *zap.Logger) *AssetStore {
	return &AssetStore{coll: db.Collection(database.AssetsCollection), logger: logger}
}

// Create inserts the asset and fills in its id and timestamps.
func (s *AssetStore) Create(ctx context.Context, a *models.Asset) error {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt, a.UpdatedAt = now, now
	if _, err := s.coll.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert asset: %w", mapWriteError(err))
	}
	return nil
}

// List returns one page of matching assets, newest first, and the total match count.
func (s *AssetStore) List(ctx context.Context, q models.AssetQuery) ([]models.Asset, int64, error) {
	filter := assetFilter(q)
	opts := listOptions(q)

	var (
		assets []models.Asset
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cursor, err := s.coll.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("find assets: %w", err)
		}
		defer cursor.Close(gctx)
		return cursor.All(gctx, &assets)
	})
	g.Go(func() error {
		n, err := s.coll.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count assets: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	return assets, total, nil
}

func (s *AssetStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Asset, error) {
	var a models.Asset
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mapFindError(err)
	}
	return &a, nil
}

// Update applies the patch and returns the document as stored afterwards.
func (s *AssetStore) Update(ctx context.Context, id primitive.ObjectID, p models.AssetPatch) (*models.Asset, error) {
	set := patchSet(p)
	set["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a models.Asset
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&a)
	if err != nil {
		return nil, mapFindError(err)
	}
	return &a, nil
}

// Delete removes the asset and returns it so callers can clean up attachments.
func (s *AssetStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.Asset, error) {
	var a models.Asset
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mapFindError(err)
	}
	return &a, nil
}

// Summary counts assets and sums their grand totals, overall and per type.
func (s *AssetStore) Summary(ctx context.Context) (*models.AssetSummary, error) {
	pipeline := bson.A{
		bson.M{"$group": bson.M{
			"_id":        "$type",
			"count":      bson.M{"$sum": 1},
			"totalValue": bson.M{"$sum": "$grandTotal"},
		}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("summarize assets: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Type       string  `bson:"_id"`
		Count      int64   `bson:"count"`
		TotalValue float64 `bson:"totalValue"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode asset summary: %w", err)
	}

	summary := &models.AssetSummary{ByType: make(map[string]models.TypeSummary, len(models.AssetTypes))}
	for _, t := range models.AssetTypes {
		summary.ByType[t] = models.TypeSummary{}
	}
	for _, g := range groups {
		summary.ByType[g.Type] = models.TypeSummary{Count: g.Count, TotalValue: models.RoundMoney(g.TotalValue)}
		summary.TotalAssets += g.Count
		summary.TotalValue += g.TotalValue
	}
	summary.TotalValue = models.RoundMoney(summary.TotalValue)
	return summary, nil
}

// ReportRows flattens the items of every matching asset into one row each.
func (s *AssetStore) ReportRows(ctx context.Context, q models.ReportQuery) ([]models.ItemRow, error) {
	cursor, err := s.coll.Aggregate(ctx, reportPipeline(q))
	if err != nil {
		return nil, fmt.Errorf("aggregate report rows: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.ItemRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode report rows: %w", err)
	}
	return rows, nil
}

// CountByDepartment returns how many assets reference the department.
func (s *AssetStore) CountByDepartment(ctx context.Context, departmentID primitive.ObjectID) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"departmentId": departmentID})
}
