package main

import (
	"context"
	"flag"
	"log"

	"jobhub/common/database"
	"jobhub/common/database/schema"
	"jobhub/common/database/schema/migrations"
	"jobhub/services/dashboard/internal/config"

	"go.uber.org/zap"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recently applied migration")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Options{
		DSN:             cfg.ClickHouseDSN,
		MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
		MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
		Username:        cfg.ClickHouseUsername,
		Password:        cfg.ClickHousePassword,
		Database:        cfg.ClickHouseDatabase,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	defer db.Close()

	migrator := schema.NewMigrator(db.Conn(), logger)

	if *down {
		rollbackLatest(ctx, migrator, logger)
		return
	}

	applied, err := migrator.Up(ctx, migrations.All)
	if err != nil {
		logger.Fatal("Failed to apply migrations", zap.Int("applied", applied), zap.Error(err))
	}
	logger.Info("All migrations completed successfully", zap.Int("applied", applied))
}

func rollbackLatest(ctx context.Context, migrator *schema.Migrator, logger *zap.Logger) {
	if err := migrator.CreateMigrationsTable(ctx); err != nil {
		logger.Fatal("Failed to create migrations table", zap.Error(err))
	}
	applied, err := migrator.GetAppliedMigrations(ctx)
	if err != nil {
		logger.Fatal("Failed to get applied migrations", zap.Error(err))
	}

	for i := len(migrations.All) - 1; i >= 0; i-- {
		migration := migrations.All[i]
		if _, ok := applied[migration.Version]; !ok {
			continue
		}
		if err := migrator.RollbackMigration(ctx, migration); err != nil {
			logger.Fatal("Failed to roll back migration",
				zap.Int("version", migration.Version),
				zap.Error(err),
			)
		}
		logger.Info("Rolled back migration",
			zap.Int("version", migration.Version),
			zap.String("description", migration.Description),
		)
		return
	}

	logger.Info("No applied migrations to roll back")
}
