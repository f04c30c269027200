package service

import (
	"context"
	"fmt"
	"math"

	"github.com/bwmarrin/snowflake"
	"github.com/swiftdrop/dispatch/internal/clock"
	"github.com/swiftdrop/dispatch/internal/commission/domain"
	"github.com/swiftdrop/dispatch/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fallbackCommissionPercent applies when the caller supplies no percent and no
// active platform setting exists. This is the only silent default in the core;
// every other missing input is an error.
const fallbackCommissionPercent = 20.0

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	genID    *snowflake.Node
	records  repository.Repository[domain.CommissionRecord]
	settings repository.Repository[domain.CommissionSetting]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("commission.service"),
		clock: p.Clock,

		genID:    p.GenID,
		records:  repository.ProvideStore[domain.CommissionRecord](p.DB),
		settings: repository.ProvideStore[domain.CommissionSetting](p.DB),
	}
}

func (s *Service) Settle(ctx context.Context, req domain.SettleRequest) (*domain.CommissionRecord, error) {
	if req.OrderID == 0 {
		return nil, domain.ErrInvalidOrderID
	}
	if req.DeliveryFee < 0 {
		return nil, domain.ErrInvalidDeliveryFee
	}

	percent, err := s.resolvePercent(ctx, req.CommissionPercent)
	if err != nil {
		return nil, err
	}

	platformAmount := roundHalfUp(float64(req.DeliveryFee) * percent / 100)
	// Derived by subtraction so the two amounts always sum to the fee exactly.
	driverAmount := req.DeliveryFee - platformAmount

	now := s.clock.Now()

	// Atomic upsert keyed by order_id. The unique constraint plus the status
	// guard on the update arm make concurrent settlement triggers converge on
	// one row without any application-level lock: the insert arm wins for the
	// first writer, every later writer takes the update arm, and a terminal
	// row matches neither.
	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO commission_records (
			id, order_id, driver_id, delivery_fee, commission_percent,
			platform_amount, driver_amount, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (order_id) DO UPDATE SET
			driver_id = EXCLUDED.driver_id,
			delivery_fee = EXCLUDED.delivery_fee,
			commission_percent = EXCLUDED.commission_percent,
			platform_amount = EXCLUDED.platform_amount,
			driver_amount = EXCLUDED.driver_amount,
			updated_at = EXCLUDED.updated_at
		WHERE commission_records.status = ?`,
		s.genID.Generate(),
		req.OrderID,
		req.DriverID,
		req.DeliveryFee,
		percent,
		platformAmount,
		driverAmount,
		domain.StatusPending,
		now,
		now,
		domain.StatusPending,
	)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, result.Error)
	}

	record, err := s.findByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: settled record missing", domain.ErrPersistence)
	}

	if result.RowsAffected == 0 {
		// Conflict row exists but the status guard blocked the update.
		return nil, domain.ErrCommissionFinalized
	}

	s.log.Info("commission settled",
		zap.String("order_id", req.OrderID.String()),
		zap.Int64("delivery_fee", record.DeliveryFee),
		zap.Float64("commission_percent", record.CommissionPercent),
		zap.Int64("platform_amount", record.PlatformAmount),
		zap.Int64("driver_amount", record.DriverAmount),
	)
	return record, nil
}

func (s *Service) MarkPaid(ctx context.Context, orderID snowflake.ID) (*domain.CommissionRecord, error) {
	return s.transition(ctx, orderID, domain.StatusPaid)
}

func (s *Service) Cancel(ctx context.Context, orderID snowflake.ID) (*domain.CommissionRecord, error) {
	return s.transition(ctx, orderID, domain.StatusCancelled)
}

func (s *Service) Get(ctx context.Context, orderID snowflake.ID) (*domain.CommissionRecord, error) {
	if orderID == 0 {
		return nil, domain.ErrInvalidOrderID
	}
	record, err := s.findByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrCommissionNotFound
	}
	return record, nil
}

// transition moves a pending record into a terminal status. The status guard
// in the update makes the happy path a single statement; zero affected rows
// splits into not-found, idempotent no-op, or finalized on read-back.
func (s *Service) transition(ctx context.Context, orderID snowflake.ID, target domain.Status) (*domain.CommissionRecord, error) {
	if orderID == 0 {
		return nil, domain.ErrInvalidOrderID
	}

	result := s.db.WithContext(ctx).Exec(
		`UPDATE commission_records SET status = ?, updated_at = ?
		 WHERE order_id = ? AND status = ?`,
		target,
		s.clock.Now(),
		orderID,
		domain.StatusPending,
	)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, result.Error)
	}

	record, err := s.findByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrCommissionNotFound
	}

	if result.RowsAffected == 0 && record.Status != target {
		return nil, domain.ErrCommissionFinalized
	}

	if result.RowsAffected > 0 {
		s.log.Info("commission status changed",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(target)),
		)
	}
	return record, nil
}

func (s *Service) resolvePercent(ctx context.Context, override *float64) (float64, error) {
	if override != nil {
		if *override < 0 || *override > 100 {
			return 0, domain.ErrInvalidPercent
		}
		return *override, nil
	}

	setting, err := s.settings.FindOne(ctx, &domain.CommissionSetting{IsActive: true})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if setting != nil && setting.DefaultPercent >= 0 && setting.DefaultPercent <= 100 {
		return setting.DefaultPercent, nil
	}
	return fallbackCommissionPercent, nil
}

func (s *Service) findByOrder(ctx context.Context, orderID snowflake.ID) (*domain.CommissionRecord, error) {
	record, err := s.records.FindOne(ctx, &domain.CommissionRecord{OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return record, nil
}

func roundHalfUp(raw float64) int64 {
	return int64(math.Floor(raw + 0.5))
}
