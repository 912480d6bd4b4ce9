package migration

import (
	"github.com/smallbiznis/tollgate/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(cfg config.Config, conn *gorm.DB) error {
		// Embedded migrations target postgres; other dialects are only
		// used by tests, which migrate their own schema.
		if cfg.DBType != "postgres" {
			return nil
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
