package migration

import (
	"fmt"

	"github.com/palcolabs/palco/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(cfg *config.Config, conn *gorm.DB) error {
		// The advisory lock and migrate driver are postgres-specific.
		if cfg.DBDriver != "postgres" {
			return fmt.Errorf("migrations require the postgres driver, got %q", cfg.DBDriver)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
