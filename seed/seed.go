// Package seed loads reference data into an empty or existing database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"assetflow/models"
	"assetflow/store"
	"assetflow/validation"
)

//go:embed departments.yaml
var defaultDepartments []byte

type DepartmentFile struct {
	Departments []validation.DepartmentInput `yaml:"departments"`
}

// DepartmentWriter is the part of the department store seeding needs.
type DepartmentWriter interface {
	List(ctx context.Context) ([]models.Department, error)
	Upsert(ctx context.Context, name, deptType string) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// LoadDepartments reads a department list from path, or the built-in list
// when path is empty. Every entry is validated.
func LoadDepartments(path string) ([]validation.DepartmentInput, error) {
	data := defaultDepartments
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	var file DepartmentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse department list: %w", err)
	}

	seen := make(map[string]bool, len(file.Departments))
	out := make([]validation.DepartmentInput, 0, len(file.Departments))
	for i, d := range file.Departments {
		dept, err := validation.ValidateDepartment(d)
		if err != nil {
			return nil, fmt.Errorf("department %d (%q): %w", i+1, d.Name, err)
		}
		if seen[dept.Name] {
			return nil, fmt.Errorf("department %q listed twice", dept.Name)
		}
		seen[dept.Name] = true
		out = append(out, validation.DepartmentInput{Name: dept.Name, Type: dept.Type})
	}
	return out, nil
}

// Result summarizes a seeding run.
type Result struct {
	Removed  int64
	Inserted int
	Updated  int
}

// AssetCounter reports how many assets reference a department.
type AssetCounter interface {
	CountByDepartment(ctx context.Context, departmentID primitive.ObjectID) (int64, error)
}

// ReportInvalidator drops cached reports, whose labels carry department names.
type ReportInvalidator interface {
	Invalidate(ctx context.Context)
}

// Options controls a department seeding run.
type Options struct {
	// Reset removes every existing department before upserting.
	Reset bool
	// Force lets Reset remove departments that assets still reference.
	Force bool
}

// Seeder writes reference data. Reports may be nil.
type Seeder struct {
	Departments DepartmentWriter
	Assets      AssetCounter
	Reports     ReportInvalidator
	Logger      *zap.Logger
}

// SeedDepartments upserts every department in list by name.
func (s *Seeder) SeedDepartments(ctx context.Context, list []validation.DepartmentInput, opts Options) (res Result, err error) {
	defer func() {
		if s.Reports != nil && (res.Removed > 0 || res.Inserted > 0 || res.Updated > 0) {
			s.Reports.Invalidate(ctx)
		}
	}()

	if opts.Reset {
		if !opts.Force {
			if err := s.checkUnreferenced(ctx); err != nil {
				return res, err
			}
		}
		n, err := s.Departments.DeleteAll(ctx)
		if err != nil {
			return res, fmt.Errorf("clear departments: %w", err)
		}
		res.Removed = n
		s.Logger.Info("Removed existing departments", zap.Int64("count", n), zap.Bool("force", opts.Force))
	}

	for _, d := range list {
		inserted, err := s.Departments.Upsert(ctx, d.Name, d.Type)
		if err != nil {
			return res, err
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	s.Logger.Info("Departments seeded",
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated))
	return res, nil
}

// checkUnreferenced fails with store.ErrInUse naming every department that
// assets still point at.
func (s *Seeder) checkUnreferenced(ctx context.Context) error {
	depts, err := s.Departments.List(ctx)
	if err != nil {
		return fmt.Errorf("list departments: %w", err)
	}
	var inUse []string
	for _, d := range depts {
		n, err := s.Assets.CountByDepartment(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("count assets of %q: %w", d.Name, err)
		}
		if n > 0 {
			inUse = append(inUse, fmt.Sprintf("%s (%d assets)", d.Name, n))
		}
	}
	if len(inUse) > 0 {
		return fmt.Errorf("%w: %s", store.ErrInUse, strings.Join(inUse, ", "))
	}
	return nil
}
