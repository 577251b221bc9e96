package reports

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"assetflow/models"
)

// RowSource yields the flattened item rows of the assets matching a query.
type RowSource interface {
	ReportRows(ctx context.Context, q models.ReportQuery) ([]models.ItemRow, error)
}

// DepartmentNamer resolves department ids to names.
type DepartmentNamer interface {
	NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error)
}

// Cache stores generated reports. Implementations treat their own failures as misses.
// Lookup returns either a cached report or the key a fresh one should be stored
// under; an empty key disables the store.
type Cache interface {
	Lookup(ctx context.Context, q models.ReportQuery) (r *Report, key string, ok bool)
	Store(ctx context.Context, key string, r Report)
	Invalidate(ctx context.Context)
}

type Service struct {
	rows        RowSource
	departments DepartmentNamer
	cache       Cache
	logger      *zap.Logger
}

// NewService builds a report service. cache may be nil.
func NewService(rows RowSource, departments DepartmentNamer, cache Cache, logger *zap.Logger) *Service {
	return &Service{rows: rows, departments: departments, cache: cache, logger: logger}
}

func (s *Service) Generate(ctx context.Context, q models.ReportQuery) (*Report, error) {
	var cacheKey string
	if s.cache != nil {
		r, key, ok := s.cache.Lookup(ctx, q)
		if ok {
			r.GroupBy = q.GroupBy
			return r, nil
		}
		cacheKey = key
	}

	rows, err := s.rows.ReportRows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load report rows: %w", err)
	}

	var names map[string]string
	if q.GroupBy == models.GroupByDepartment {
		if names, err = s.departments.NamesByIDs(ctx, DepartmentIDs(rows)); err != nil {
			return nil, fmt.Errorf("resolve department names: %w", err)
		}
	}

	report := Aggregate(rows, q.GroupBy, names)
	s.logger.Debug("report generated",
		zap.String("groupBy", q.GroupBy),
		zap.Int("rows", len(rows)),
		zap.Int("groups", len(report.Data)))

	if cacheKey != "" {
		s.cache.Store(ctx, cacheKey, report)
	}
	return &report, nil
}

// Invalidate drops every cached report. Called after any asset or department write.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
