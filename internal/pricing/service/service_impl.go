package service

import (
	"context"
	"time"

	"github.com/swiftdrop/dispatch/internal/cache"
	"github.com/swiftdrop/dispatch/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const snapshotCacheTTL = 30 * time.Second

const snapshotCacheKey = "active"

type Service struct {
	log   *zap.Logger
	store domain.SnapshotStore
	cache cache.Cache[string, domain.Snapshot]
}

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Store domain.SnapshotStore
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:   p.Log.Named("pricing.service"),
		store: p.Store,
		cache: cache.NewTTLCache[string, domain.Snapshot](),
	}
}

func (s *Service) Quote(ctx context.Context, order domain.OrderContext) (domain.FeeBreakdown, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.FeeBreakdown{}, err
	}

	breakdown, err := Compute(order, snap)
	if err != nil {
		return domain.FeeBreakdown{}, err
	}

	s.log.Debug("quoted delivery fee",
		zap.String("order_id", order.OrderID.String()),
		zap.Int64("total_fee", breakdown.TotalFee),
		zap.Float64("time_multiplier", breakdown.TimeMultiplier),
		zap.String("multiplier_source", breakdown.MultiplierSource),
	)
	return breakdown, nil
}

func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if snap, ok := s.cache.Get(snapshotCacheKey); ok {
		return snap, nil
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s.cache.Set(snapshotCacheKey, snap, snapshotCacheTTL)
	return snap, nil
}
