// Package seed bootstraps explicit default rows for self-hosted deployments.
// Seeding is operator opt-in; the calculator itself never falls back to
// built-in constants.
package seed

import (
	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/swiftdrop/dispatch/internal/commission/domain"
	pricingdomain "github.com/swiftdrop/dispatch/internal/pricing/domain"
	"gorm.io/gorm"
)

// EnsureDefaultPricing inserts an active pricing config, rush-hour time
// slots, and a default commission setting when none exist yet.
func EnsureDefaultPricing(db *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := db.Model(&pricingdomain.PricingConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		cfg := pricingdomain.PricingConfig{
			ID:                    node.Generate(),
			Name:                  "standard",
			BaseFee:               299,
			PricePerKm:            50,
			FreeDeliveryThreshold: 2500,
			MaxFreeDistanceKm:     5,
			RemoteZoneFee:         500,
			RemoteZoneDistanceKm:  15,
			MultiStopFee:          150,
			RushHourMultiplier:    1.25,
			WeekendMultiplier:     1.1,
			HolidayMultiplier:     1.5,
			IsActive:              true,
		}
		if err := db.Create(&cfg).Error; err != nil {
			return err
		}

		slots := []pricingdomain.TimeSlot{
			{ID: node.Generate(), Name: "lunch rush", StartMinute: 11 * 60, EndMinute: 14 * 60, Multiplier: cfg.RushHourMultiplier, IsActive: true},
			{ID: node.Generate(), Name: "dinner rush", StartMinute: 18 * 60, EndMinute: 21 * 60, Multiplier: cfg.RushHourMultiplier, IsActive: true},
		}
		if err := db.Create(&slots).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&commissiondomain.CommissionSetting{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		setting := commissiondomain.CommissionSetting{
			ID:             node.Generate(),
			DefaultPercent: 20,
			IsActive:       true,
		}
		if err := db.Create(&setting).Error; err != nil {
			return err
		}
	}

	return nil
}
