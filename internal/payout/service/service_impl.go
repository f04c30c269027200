package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/swiftdrop/dispatch/internal/clock"
	"github.com/swiftdrop/dispatch/internal/payout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTopN = 5

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("payout.service"),
		clock: p.Clock,
	}
}

func (s *Service) Aggregate(ctx context.Context, filter domain.StatsFilter) (domain.Stats, error) {
	from, to, granularity, err := s.resolveWindow(filter)
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{
		From:         from,
		To:           to,
		Granularity:  granularity,
		StatusCounts: make(map[string]int64),
	}

	scopeSQL := "created_at >= ? AND created_at < ?"
	scopeArgs := []any{from, to}
	if filter.DriverID != nil && *filter.DriverID != 0 {
		scopeSQL += " AND driver_id = ?"
		scopeArgs = append(scopeArgs, *filter.DriverID)
	}

	if err := s.loadTotals(ctx, &stats, scopeSQL, scopeArgs); err != nil {
		return domain.Stats{}, err
	}
	if err := s.loadStatusCounts(ctx, &stats, scopeSQL, scopeArgs); err != nil {
		return domain.Stats{}, err
	}
	if err := s.loadBuckets(ctx, &stats, scopeSQL, scopeArgs); err != nil {
		return domain.Stats{}, err
	}
	if err := s.loadTopDrivers(ctx, &stats, scopeSQL, scopeArgs, normalizeTopN(filter.TopN)); err != nil {
		return domain.Stats{}, err
	}

	return stats, nil
}

type totalsRow struct {
	RecordCount          int64   `gorm:"column:record_count"`
	TotalDeliveryFee     int64   `gorm:"column:total_delivery_fee"`
	TotalPlatformAmount  int64   `gorm:"column:total_platform_amount"`
	TotalDriverAmount    int64   `gorm:"column:total_driver_amount"`
	AvgCommissionPercent float64 `gorm:"column:avg_commission_percent"`
}

func (s *Service) loadTotals(ctx context.Context, stats *domain.Stats, scopeSQL string, scopeArgs []any) error {
	var row totalsRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS record_count,
		        COALESCE(SUM(delivery_fee), 0) AS total_delivery_fee,
		        COALESCE(SUM(platform_amount), 0) AS total_platform_amount,
		        COALESCE(SUM(driver_amount), 0) AS total_driver_amount,
		        COALESCE(AVG(commission_percent), 0) AS avg_commission_percent
		 FROM commission_records
		 WHERE `+scopeSQL,
		scopeArgs...,
	).Scan(&row).Error; err != nil {
		return err
	}

	stats.RecordCount = row.RecordCount
	stats.TotalDeliveryFee = row.TotalDeliveryFee
	stats.TotalPlatformAmount = row.TotalPlatformAmount
	stats.TotalDriverAmount = row.TotalDriverAmount
	stats.AvgCommissionPercent = row.AvgCommissionPercent
	return nil
}

type statusCountRow struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}

func (s *Service) loadStatusCounts(ctx context.Context, stats *domain.Stats, scopeSQL string, scopeArgs []any) error {
	var rows []statusCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(1) AS count
		 FROM commission_records
		 WHERE `+scopeSQL+`
		 GROUP BY status`,
		scopeArgs...,
	).Scan(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		stats.StatusCounts[row.Status] = row.Count
	}
	return nil
}

type bucketSourceRow struct {
	CreatedAt      time.Time `gorm:"column:created_at"`
	DeliveryFee    int64     `gorm:"column:delivery_fee"`
	PlatformAmount int64     `gorm:"column:platform_amount"`
	DriverAmount   int64     `gorm:"column:driver_amount"`
}

// loadBuckets rolls records up into time buckets. Truncation happens in Go so
// the same query runs unchanged on postgres, mysql, and sqlite.
func (s *Service) loadBuckets(ctx context.Context, stats *domain.Stats, scopeSQL string, scopeArgs []any) error {
	var rows []bucketSourceRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT created_at, delivery_fee, platform_amount, driver_amount
		 FROM commission_records
		 WHERE `+scopeSQL,
		scopeArgs...,
	).Scan(&rows).Error; err != nil {
		return err
	}

	byStart := make(map[time.Time]*domain.Bucket)
	for _, row := range rows {
		start := truncateToBucket(row.CreatedAt.UTC(), stats.Granularity)
		bucket, ok := byStart[start]
		if !ok {
			bucket = &domain.Bucket{Start: start}
			byStart[start] = bucket
		}
		bucket.RecordCount++
		bucket.DeliveryFee += row.DeliveryFee
		bucket.PlatformAmount += row.PlatformAmount
		bucket.DriverAmount += row.DriverAmount
	}

	stats.Buckets = make([]domain.Bucket, 0, len(byStart))
	for _, bucket := range byStart {
		stats.Buckets = append(stats.Buckets, *bucket)
	}
	sort.Slice(stats.Buckets, func(i, j int) bool {
		return stats.Buckets[i].Start.Before(stats.Buckets[j].Start)
	})
	return nil
}

type driverRankRow struct {
	DriverID     int64 `gorm:"column:driver_id"`
	DriverAmount int64 `gorm:"column:driver_amount"`
	RecordCount  int64 `gorm:"column:record_count"`
}

func (s *Service) loadTopDrivers(ctx context.Context, stats *domain.Stats, scopeSQL string, scopeArgs []any, topN int) error {
	args := append(append([]any{}, scopeArgs...), topN)

	var rows []driverRankRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT driver_id,
		        COALESCE(SUM(driver_amount), 0) AS driver_amount,
		        COUNT(1) AS record_count
		 FROM commission_records
		 WHERE `+scopeSQL+` AND driver_id IS NOT NULL
		 GROUP BY driver_id
		 ORDER BY driver_amount DESC, driver_id ASC
		 LIMIT ?`,
		args...,
	).Scan(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		stats.TopDrivers = append(stats.TopDrivers, domain.DriverRank{
			DriverID:     snowflake.ID(row.DriverID),
			DriverAmount: row.DriverAmount,
			RecordCount:  row.RecordCount,
		})
	}
	return nil
}

func (s *Service) resolveWindow(filter domain.StatsFilter) (time.Time, time.Time, domain.Granularity, error) {
	if filter.From != nil || filter.To != nil {
		if filter.From == nil || filter.To == nil {
			return time.Time{}, time.Time{}, "", domain.ErrInvalidRange
		}
		from := filter.From.UTC()
		to := filter.To.UTC()
		if !to.After(from) {
			return time.Time{}, time.Time{}, "", domain.ErrInvalidRange
		}
		return from, to, granularityForSpan(to.Sub(from)), nil
	}

	now := s.clock.Now().UTC()
	switch filter.Period {
	case domain.PeriodDay, "":
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 0, 1), domain.GranularityHour, nil
	case domain.PeriodWeek:
		from := startOfWeek(now)
		return from, from.AddDate(0, 0, 7), domain.GranularityDay, nil
	case domain.PeriodMonth:
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), domain.GranularityDay, nil
	case domain.PeriodQuarter:
		quarterMonth := time.Month(((int(now.Month())-1)/3)*3 + 1)
		from := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 3, 0), domain.GranularityMonth, nil
	case domain.PeriodYear:
		from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0), domain.GranularityMonth, nil
	default:
		return time.Time{}, time.Time{}, "", fmt.Errorf("%w: %s", domain.ErrInvalidPeriod, filter.Period)
	}
}

func granularityForSpan(span time.Duration) domain.Granularity {
	switch {
	case span <= 48*time.Hour:
		return domain.GranularityHour
	case span <= 92*24*time.Hour:
		return domain.GranularityDay
	default:
		return domain.GranularityMonth
	}
}

func truncateToBucket(t time.Time, granularity domain.Granularity) time.Time {
	switch granularity {
	case domain.GranularityHour:
		return t.Truncate(time.Hour)
	case domain.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func startOfWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	// Weeks start on Monday.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func normalizeTopN(n int) int {
	if n <= 0 {
		return defaultTopN
	}
	return n
}
