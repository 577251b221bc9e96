package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"assetflow/database"
	"assetflow/reports"
	"assetflow/seed"
	"assetflow/store"
)

var (
	seedFile  string
	seedReset bool
	seedForce bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference data",
}

var seedDepartmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Insert or update the department list",
	Long: `Upserts departments by name from a YAML file, or from the built-in
college department list when --file is not given.

With --reset every existing department is removed first. The reset is refused
while assets still reference a department unless --force is also given; those
assets then show up as "Unknown" in reports.`,
	RunE: runSeedDepartments,
}

func init() {
	seedDepartmentsCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file with a departments list")
	seedDepartmentsCmd.Flags().BoolVar(&seedReset, "reset", false, "Delete all departments before seeding")
	seedDepartmentsCmd.Flags().BoolVar(&seedForce, "force", false, "With --reset, also delete departments that assets reference")
	seedCmd.AddCommand(seedDepartmentsCmd)
}

func runSeedDepartments(cmd *cobra.Command, args []string) error {
	list, err := seed.LoadDepartments(seedFile)
	if err != nil {
		return err
	}

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Mongo, logger)
	if err != nil {
		return err
	}
	defer db.Disconnect()

	if err := store.EnsureIndexes(ctx, db.DB); err != nil {
		return err
	}

	seeder := &seed.Seeder{
		Departments: store.NewDepartmentStore(db.DB),
		Assets:      store.NewAssetStore(db.DB, logger),
		Logger:      logger,
	}
	if rdb := initRedis(ctx, cfg.Redis, logger); rdb != nil {
		defer rdb.Close()
		seeder.Reports = reports.NewRedisCache(rdb, cfg.Redis.ReportTTL, logger)
	}

	res, err := seeder.SeedDepartments(ctx, list, seed.Options{Reset: seedReset, Force: seedForce})
	if err != nil {
		logger.Error("Seeding failed", zap.Error(err))
		if errors.Is(err, store.ErrInUse) {
			return fmt.Errorf("%w (pass --force to remove them anyway)", err)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "departments: %d inserted, %d updated, %d removed\n", res.Inserted, res.Updated, res.Removed)
	return nil
}
