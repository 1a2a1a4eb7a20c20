package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/tair/tenant-commerce/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the tables for models and then applies the embedded SQL
// migrations, which hold the constraints gorm tags cannot express.
func Migrate(ctx context.Context, db *gorm.DB, models ...interface{}) error {
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	logger.Logger.Info().Int("models", len(models)).Msg("Database migrated")
	return nil
}
