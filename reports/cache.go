package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"assetflow/models"
)

const versionKey = "reports:version"

// RedisCache keeps reports under keys prefixed with a version counter.
// Bumping the counter orphans every older entry; they expire on their TTL.
type RedisCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

// CacheKey is the redis key of a query at a cache version.
func CacheKey(version int64, q models.ReportQuery) string {
	v := url.Values{}
	v.Set("groupBy", q.GroupBy)
	if q.AcademicYear != "" {
		v.Set("academicYear", q.AcademicYear)
	}
	if q.DepartmentID != nil {
		v.Set("departmentId", q.DepartmentID.Hex())
	}
	if q.ItemName != "" {
		v.Set("itemName", q.ItemName)
	}
	if q.VendorName != "" {
		v.Set("vendorName", q.VendorName)
	}
	return fmt.Sprintf("reports:v%d:%s", version, v.Encode())
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	n, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Lookup resolves the current version first so a report generated while a
// write lands is stored under the version it was read at.
func (c *RedisCache) Lookup(ctx context.Context, q models.ReportQuery) (*Report, string, bool) {
	ver, err := c.version(ctx)
	if err != nil {
		c.logger.Warn("report cache version read failed", zap.Error(err))
		return nil, "", false
	}
	key := CacheKey(ver, q)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("report cache read failed", zap.Error(err))
		}
		return nil, key, false
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		c.logger.Warn("report cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, key, false
	}
	return &r, key, true
}

func (c *RedisCache) Store(ctx context.Context, key string, r Report) {
	raw, err := json.Marshal(r)
	if err != nil {
		c.logger.Warn("report cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		c.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}
