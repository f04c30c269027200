package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftdrop/dispatch/internal/holiday"
	"github.com/swiftdrop/dispatch/internal/pricing/domain"
)

// Wednesday, outside any default slot.
var weekday = time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

func baseSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Config: domain.PricingConfig{
			ID:                    1,
			Name:                  "standard",
			BaseFee:               299,
			PricePerKm:            50,
			FreeDeliveryThreshold: 2500,
			MaxFreeDistanceKm:     5,
			RemoteZoneFee:         500,
			RemoteZoneDistanceKm:  15,
			MultiStopFee:          150,
			WeekendMultiplier:     1.1,
			HolidayMultiplier:     1.5,
			IsActive:              true,
		},
	}
}

func order(subtotal int64, distanceKm float64) domain.OrderContext {
	return domain.OrderContext{
		OrderID:    snowflake.ID(42),
		Subtotal:   subtotal,
		DistanceKm: distanceKm,
		StopCount:  1,
		PlacedAt:   weekday,
	}
}

func TestCompute_FreeDeliveryWithinFreeDistance(t *testing.T) {
	// subtotal 30.00 over the 25.00 threshold, 3 km within the 5 km allowance
	breakdown, err := Compute(order(3000, 3), baseSnapshot())
	require.NoError(t, err)

	assert.Equal(t, int64(0), breakdown.BaseFee)
	assert.Equal(t, int64(0), breakdown.DistanceFee)
	assert.Equal(t, 1.0, breakdown.TimeMultiplier)
	assert.Equal(t, int64(0), breakdown.TotalFee)
}

func TestCompute_RemoteLongDistance(t *testing.T) {
	// 20 km: 15 chargeable km at 0.50 plus the remote surcharge past 15 km
	breakdown, err := Compute(order(2000, 20), baseSnapshot())
	require.NoError(t, err)

	assert.Equal(t, int64(299), breakdown.BaseFee)
	assert.Equal(t, int64(750), breakdown.DistanceFee)
	assert.Equal(t, int64(500), breakdown.RemoteFee)
	assert.Equal(t, 1.0, breakdown.TimeMultiplier)
	assert.Equal(t, int64(1549), breakdown.TotalFee)
}

func TestCompute_ThresholdBoundaryWaivesBaseFee(t *testing.T) {
	breakdown, err := Compute(order(2500, 3), baseSnapshot())
	require.NoError(t, err)
	assert.Equal(t, int64(0), breakdown.BaseFee)
}

func TestCompute_ZeroThresholdDisablesFreeDelivery(t *testing.T) {
	snap := baseSnapshot()
	snap.Config.FreeDeliveryThreshold = 0

	breakdown, err := Compute(order(100000, 3), snap)
	require.NoError(t, err)
	assert.Equal(t, int64(299), breakdown.BaseFee)
}

func TestCompute_DistanceMonotonicity(t *testing.T) {
	snap := baseSnapshot()
	prev := int64(-1)
	for km := 0.0; km <= 40; km += 0.5 {
		breakdown, err := Compute(order(2000, km), snap)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, breakdown.TotalFee, prev, "total fee decreased at %.1f km", km)
		prev = breakdown.TotalFee
	}
}

func TestCompute_MultiStopSurcharge(t *testing.T) {
	snap := baseSnapshot()
	ctx := order(2000, 3)
	ctx.StopCount = 3

	breakdown, err := Compute(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, int64(300), breakdown.MultiStopFee)
	assert.Equal(t, int64(599), breakdown.TotalFee)
}

func TestCompute_ZoneFee(t *testing.T) {
	snap := baseSnapshot()
	snap.Zones = []domain.Zone{
		{ID: 7, Name: "old town", Fee: 200, IsActive: true},
		{ID: 8, Name: "retired", Fee: 900, IsActive: false},
	}

	t.Run("active zone applies", func(t *testing.T) {
		ctx := order(2000, 3)
		zoneID := snowflake.ID(7)
		ctx.ZoneID = &zoneID

		breakdown, err := Compute(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, int64(200), breakdown.ZoneFee)
	})

	t.Run("inactive zone ignored", func(t *testing.T) {
		ctx := order(2000, 3)
		zoneID := snowflake.ID(8)
		ctx.ZoneID = &zoneID

		breakdown, err := Compute(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, int64(0), breakdown.ZoneFee)
	})
}

func TestCompute_MultiplierPrecedence(t *testing.T) {
	saturday := time.Date(2025, 3, 15, 12, 30, 0, 0, time.UTC)
	christmas := time.Date(2025, 12, 25, 12, 30, 0, 0, time.UTC)

	calendar, err := holiday.NewStaticCalendar("2025-12-25")
	require.NoError(t, err)

	slot := domain.TimeSlot{
		ID:          1,
		Name:        "lunch rush",
		StartMinute: 11 * 60,
		EndMinute:   14 * 60,
		Multiplier:  1.25,
		IsActive:    true,
	}

	t.Run("time slot beats holiday and weekend", func(t *testing.T) {
		snap := baseSnapshot()
		snap.TimeSlots = []domain.TimeSlot{slot}
		snap.Holidays = calendar

		ctx := order(2000, 3)
		ctx.PlacedAt = christmas

		breakdown, err := Compute(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, 1.25, breakdown.TimeMultiplier)
		assert.Equal(t, domain.MultiplierSourceTimeSlot, breakdown.MultiplierSource)
	})

	t.Run("holiday beats weekend", func(t *testing.T) {
		snap := baseSnapshot()
		snap.Holidays = calendar

		ctx := order(2000, 3)
		ctx.PlacedAt = christmas

		breakdown, err := Compute(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, 1.5, breakdown.TimeMultiplier)
		assert.Equal(t, domain.MultiplierSourceHoliday, breakdown.MultiplierSource)
	})

	t.Run("weekend without slot or holiday", func(t *testing.T) {
		snap := baseSnapshot()

		ctx := order(2000, 3)
		ctx.PlacedAt = saturday

		breakdown, err := Compute(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, 1.1, breakdown.TimeMultiplier)
		assert.Equal(t, domain.MultiplierSourceWeekend, breakdown.MultiplierSource)
	})

	t.Run("weekday off-peak has no multiplier", func(t *testing.T) {
		snap := baseSnapshot()

		breakdown, err := Compute(order(2000, 3), snap)
		require.NoError(t, err)
		assert.Equal(t, 1.0, breakdown.TimeMultiplier)
		assert.Equal(t, domain.MultiplierSourceNone, breakdown.MultiplierSource)
	})
}

func TestCompute_OverlappingSlotsHighestWins(t *testing.T) {
	snap := baseSnapshot()
	snap.TimeSlots = []domain.TimeSlot{
		{ID: 1, Name: "evening", StartMinute: 17 * 60, EndMinute: 22 * 60, Multiplier: 1.2, IsActive: true},
		{ID: 2, Name: "dinner rush", StartMinute: 18 * 60, EndMinute: 21 * 60, Multiplier: 1.4, IsActive: true},
		{ID: 3, Name: "disabled", StartMinute: 18 * 60, EndMinute: 21 * 60, Multiplier: 9, IsActive: false},
	}

	ctx := order(2000, 3)
	ctx.PlacedAt = time.Date(2025, 3, 12, 19, 0, 0, 0, time.UTC)

	breakdown, err := Compute(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, 1.4, breakdown.TimeMultiplier)
}

func TestCompute_SlotWrappingMidnight(t *testing.T) {
	snap := baseSnapshot()
	snap.TimeSlots = []domain.TimeSlot{
		{ID: 1, Name: "late night", StartMinute: 22 * 60, EndMinute: 2 * 60, Multiplier: 1.3, IsActive: true},
	}

	covered := []time.Time{
		time.Date(2025, 3, 12, 23, 15, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 1, 59, 0, 0, time.UTC),
	}
	for _, at := range covered {
		ctx := order(2000, 3)
		ctx.PlacedAt = at
		breakdown, err := Compute(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, 1.3, breakdown.TimeMultiplier, "expected wrap slot to cover %s", at)
	}

	ctx := order(2000, 3)
	ctx.PlacedAt = time.Date(2025, 3, 12, 2, 0, 0, 0, time.UTC)
	breakdown, err := Compute(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, 1.0, breakdown.TimeMultiplier)
}

func TestCompute_RoundHalfUpOnMultiplier(t *testing.T) {
	snap := baseSnapshot()
	snap.Config.WeekendMultiplier = 1.15
	ctx := order(2000, 3) // base fee 299 only
	ctx.PlacedAt = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	breakdown, err := Compute(ctx, snap)
	require.NoError(t, err)
	// 299 * 1.15 = 343.85 -> 344
	assert.Equal(t, int64(344), breakdown.TotalFee)
}

func TestCompute_Validation(t *testing.T) {
	snap := baseSnapshot()

	cases := []struct {
		name   string
		mutate func(*domain.OrderContext)
		want   error
	}{
		{"negative subtotal", func(o *domain.OrderContext) { o.Subtotal = -1 }, domain.ErrInvalidSubtotal},
		{"negative distance", func(o *domain.OrderContext) { o.DistanceKm = -0.1 }, domain.ErrInvalidDistance},
		{"zero stops", func(o *domain.OrderContext) { o.StopCount = 0 }, domain.ErrInvalidStopCount},
		{"missing placed_at", func(o *domain.OrderContext) { o.PlacedAt = time.Time{} }, domain.ErrInvalidPlacedAt},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := order(2000, 3)
			tc.mutate(&ctx)
			_, err := Compute(ctx, snap)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCompute_InactiveConfigFailsClosed(t *testing.T) {
	snap := baseSnapshot()
	snap.Config.IsActive = false

	_, err := Compute(order(2000, 3), snap)
	assert.ErrorIs(t, err, domain.ErrNoActivePricing)
}
