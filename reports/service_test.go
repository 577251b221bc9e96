package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"assetflow/models"
)

type fakeRows struct {
	rows  []models.ItemRow
	err   error
	calls int
}

func (f *fakeRows) ReportRows(ctx context.Context, q models.ReportQuery) ([]models.ItemRow, error) {
	f.calls++
	return f.rows, f.err
}

type fakeNamer struct {
	asked []primitive.ObjectID
}

func (f *fakeNamer) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error) {
	f.asked = ids
	out := map[string]string{}
	for _, id := range ids {
		if name, ok := deptNames[id.Hex()]; ok {
			out[id.Hex()] = name
		}
	}
	return out, nil
}

type memCache struct {
	version int
	entries map[string]Report
}

func (c *memCache) key(q models.ReportQuery) string {
	return CacheKey(int64(c.version), q)
}

func (c *memCache) Lookup(ctx context.Context, q models.ReportQuery) (*Report, string, bool) {
	k := c.key(q)
	if r, ok := c.entries[k]; ok {
		return &r, k, true
	}
	return nil, k, false
}

func (c *memCache) Store(ctx context.Context, key string, r Report) { c.entries[key] = r }
func (c *memCache) Invalidate(ctx context.Context) { c.version++ }

func TestServiceGenerate_ResolvesDepartmentNames(t *testing.T) {
	rows := &fakeRows{rows: sampleRows()}
	namer := &fakeNamer{}
	svc := NewService(rows, namer, nil, zap.NewNop())

	r, err := svc.Generate(context.Background(), models.ReportQuery{GroupBy: models.GroupByDepartment})
	require.NoError(t, err)
	assert.Len(t, namer.asked, 3)
	assert.Equal(t, "Computer Science", r.Data[0].Group)
	assert.Equal(t, models.GroupByDepartment, r.GroupBy)
}

func TestServiceGenerate_SkipsLookupForItemGrouping(t *testing.T) {
	namer := &fakeNamer{}
	svc := NewService(&fakeRows{rows: sampleRows()}, namer, nil, zap.NewNop())

	_, err := svc.Generate(context.Background(), models.ReportQuery{GroupBy: models.GroupByItem})
	require.NoError(t, err)
	assert.Nil(t, namer.asked)
}

func TestServiceGenerate_PropagatesStoreError(t *testing.T) {
	svc := NewService(&fakeRows{err: errors.New("db down")}, &fakeNamer{}, nil, zap.NewNop())
	_, err := svc.Generate(context.Background(), models.ReportQuery{GroupBy: models.GroupByItem})
	assert.ErrorContains(t, err, "db down")
}

func TestServiceGenerate_CachesUntilInvalidated(t *testing.T) {
	rows := &fakeRows{rows: sampleRows()}
	cache := &memCache{entries: map[string]Report{}}
	svc := NewService(rows, &fakeNamer{}, cache, zap.NewNop())
	ctx := context.Background()
	q := models.ReportQuery{GroupBy: models.GroupByVendor}

	first, err := svc.Generate(ctx, q)
	require.NoError(t, err)
	second, err := svc.Generate(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, rows.calls)
	assert.Equal(t, first.GrandTotal, second.GrandTotal)
	assert.Equal(t, models.GroupByVendor, second.GroupBy)

	svc.Invalidate(ctx)
	_, err = svc.Generate(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, rows.calls)
}

func TestCacheKey(t *testing.T) {
	dept := primitive.NewObjectID()
	a := CacheKey(3, models.ReportQuery{GroupBy: "item", DepartmentID: &dept, ItemName: "a&b"})
	b := CacheKey(3, models.ReportQuery{GroupBy: "item", DepartmentID: &dept, ItemName: "a&b"})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "reports:v3:")
	assert.Contains(t, a, "itemName=a%26b")
	assert.NotEqual(t, a, CacheKey(4, models.ReportQuery{GroupBy: "item", DepartmentID: &dept, ItemName: "a&b"}))
}

func TestRedisCache_UnreachableIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	cache := NewRedisCache(rdb, time.Minute, zap.NewNop())

	rows := &fakeRows{rows: sampleRows()}
	svc := NewService(rows, &fakeNamer{}, cache, zap.NewNop())
	r, err := svc.Generate(context.Background(), models.ReportQuery{GroupBy: models.GroupByItem})
	require.NoError(t, err)
	assert.NotEmpty(t, r.Data)
	assert.Equal(t, 1, rows.calls)

	svc.Invalidate(context.Background())
}
