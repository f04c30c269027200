// Package repository loads consistent pricing snapshots for fee computation.
package repository

import (
	"context"

	"github.com/swiftdrop/dispatch/internal/holiday"
	"github.com/swiftdrop/dispatch/internal/pricing/domain"
	"github.com/swiftdrop/dispatch/pkg/db/option"
	"github.com/swiftdrop/dispatch/pkg/repository"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type snapshotStore struct {
	db       *gorm.DB
	configs  repository.Repository[domain.PricingConfig]
	slots    repository.Repository[domain.TimeSlot]
	zones    repository.Repository[domain.Zone]
	holidays *holiday.CalendarHolder
}

type StoreParams struct {
	fx.In

	DB       *gorm.DB
	Holidays *holiday.CalendarHolder
}

func NewSnapshotStore(p StoreParams) domain.SnapshotStore {
	return &snapshotStore{
		db:       p.DB,
		configs:  repository.ProvideStore[domain.PricingConfig](p.DB),
		slots:    repository.ProvideStore[domain.TimeSlot](p.DB),
		zones:    repository.ProvideStore[domain.Zone](p.DB),
		holidays: p.Holidays,
	}
}

// Load reads the active config, time slots, and zones inside one transaction
// so the calculator never sees a config mid-update.
func (s *snapshotStore) Load(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := s.configs.WithTrx(tx).FindOne(ctx, &domain.PricingConfig{IsActive: true})
		if err != nil {
			return err
		}
		if cfg == nil {
			return domain.ErrNoActivePricing
		}
		snap.Config = *cfg

		slots, err := s.slots.WithTrx(tx).Find(ctx,
			&domain.TimeSlot{IsActive: true},
			option.WithOrder("id ASC"),
		)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			snap.TimeSlots = append(snap.TimeSlots, *slot)
		}

		zones, err := s.zones.WithTrx(tx).Find(ctx,
			&domain.Zone{IsActive: true},
			option.WithOrder("id ASC"),
		)
		if err != nil {
			return err
		}
		for _, zone := range zones {
			snap.Zones = append(snap.Zones, *zone)
		}
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}

	if s.holidays != nil {
		snap.Holidays = s.holidays.Get()
	}
	return snap, nil
}
