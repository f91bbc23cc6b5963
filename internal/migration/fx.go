package migration

import (
	"strings"

	"github.com/smallbiznis/hullbook/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.RunMigrations {
			return nil
		}
		if !strings.EqualFold(cfg.DBType, "postgres") {
			log.Warn("skipping migrations for non-postgres database", zap.String("db_type", cfg.DBType))
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		result, err := RunMigrations(sqlDB)
		if err != nil {
			return err
		}
		if result.Applied {
			log.Info("schema migrated", zap.Uint("from", result.From), zap.Uint("to", result.To))
			return nil
		}
		log.Info("schema up to date", zap.Uint("version", result.To))
		return nil
	}),
)
