package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/restaurant-storefront/pkg/config"
	"github.com/angelmondragon/restaurant-storefront/pkg/db"
	"github.com/angelmondragon/restaurant-storefront/pkg/db/models"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

// CatalogModels lists the tables the storefront reads directly.
func CatalogModels() []any {
	return []any{
		&models.Branch{},
		&models.Category{},
		&models.Product{},
		&models.ProductSize{},
		&models.ProductType{},
		&models.ComboOffer{},
		&models.Profile{},
		&models.AdminProfile{},
	}
}

// MaybeRunDev prepares the local catalog schema when running in dev with auto-migrate enabled.
// SQLite catalogs are created from the models; Postgres runs the goose files.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "auto-migrating sqlite catalog")
		if err := client.DB().WithContext(ctx).AutoMigrate(CatalogModels()...); err != nil {
			return fmt.Errorf("auto-migrating catalog: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	logg.Info(ctx, "running goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, Dialect(cfg.DB.Driver), DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
