package migration

import (
	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/swiftdrop/dispatch/internal/commission/domain"
	"github.com/swiftdrop/dispatch/internal/config"
	pricingdomain "github.com/swiftdrop/dispatch/internal/pricing/domain"
	"github.com/swiftdrop/dispatch/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module applies the schema on startup. Postgres gets the embedded SQL
// migrations; other dialects (dev and tests) use gorm auto-migration.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&pricingdomain.PricingConfig{},
				&pricingdomain.TimeSlot{},
				&pricingdomain.Zone{},
				&commissiondomain.CommissionSetting{},
				&commissiondomain.CommissionRecord{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDefaultPricing {
			return seed.EnsureDefaultPricing(conn, node)
		}
		return nil
	}),
)
