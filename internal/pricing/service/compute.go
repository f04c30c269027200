package service

import (
	"math"
	"time"

	"github.com/swiftdrop/dispatch/internal/pricing/domain"
)

// Compute maps an order context and a pricing snapshot to a fee breakdown.
// It is a pure function: no I/O, no hidden state, deterministic for a given
// input. The term order below is fixed for reproducibility.
func Compute(order domain.OrderContext, snap domain.Snapshot) (domain.FeeBreakdown, error) {
	if err := validate(order); err != nil {
		return domain.FeeBreakdown{}, err
	}
	if !snap.Config.IsActive {
		return domain.FeeBreakdown{}, domain.ErrNoActivePricing
	}

	cfg := snap.Config
	var breakdown domain.FeeBreakdown

	// 1. Base fee, waived at the free-delivery threshold. A threshold of zero
	// disables free delivery rather than making every order free.
	breakdown.BaseFee = cfg.BaseFee
	if cfg.FreeDeliveryThreshold > 0 && order.Subtotal >= cfg.FreeDeliveryThreshold {
		breakdown.BaseFee = 0
	}

	// 2. Distance beyond the free allowance.
	if extra := order.DistanceKm - cfg.MaxFreeDistanceKm; extra > 0 {
		breakdown.DistanceFee = roundHalfUp(extra * float64(cfg.PricePerKm))
	}

	// 3. Remote surcharge past the remote-zone cutoff.
	if cfg.RemoteZoneDistanceKm > 0 && order.DistanceKm > cfg.RemoteZoneDistanceKm {
		breakdown.RemoteFee = cfg.RemoteZoneFee
	}

	// 4. Flat surcharge for the resolved zone, if it is still active.
	if order.ZoneID != nil {
		for _, zone := range snap.Zones {
			if zone.ID == *order.ZoneID && zone.IsActive {
				breakdown.ZoneFee = zone.Fee
				break
			}
		}
	}

	// 5. Each stop past the first.
	breakdown.MultiStopFee = int64(order.StopCount-1) * cfg.MultiStopFee

	// 6. One multiplier applies, chosen by precedence:
	// time slot > holiday > weekend > none. Never stacked.
	breakdown.TimeMultiplier, breakdown.MultiplierSource = resolveMultiplier(order.PlacedAt, snap)

	breakdown.SubtotalFee = breakdown.BaseFee + breakdown.DistanceFee + breakdown.RemoteFee +
		breakdown.ZoneFee + breakdown.MultiStopFee
	breakdown.TotalFee = roundHalfUp(float64(breakdown.SubtotalFee) * breakdown.TimeMultiplier)

	return breakdown, nil
}

func validate(order domain.OrderContext) error {
	if order.Subtotal < 0 {
		return domain.ErrInvalidSubtotal
	}
	if order.DistanceKm < 0 {
		return domain.ErrInvalidDistance
	}
	if order.StopCount < 1 {
		return domain.ErrInvalidStopCount
	}
	if order.PlacedAt.IsZero() {
		return domain.ErrInvalidPlacedAt
	}
	return nil
}

func resolveMultiplier(placedAt time.Time, snap domain.Snapshot) (float64, string) {
	minute := placedAt.Hour()*60 + placedAt.Minute()

	// Among all covering slots the highest multiplier wins, which also
	// resolves overlaps deterministically.
	best := 0.0
	matched := false
	for _, slot := range snap.TimeSlots {
		if !slot.IsActive || !slot.Covers(minute) {
			continue
		}
		if slot.Multiplier > best {
			best = slot.Multiplier
		}
		matched = true
	}
	if matched {
		return normalizeMultiplier(best), domain.MultiplierSourceTimeSlot
	}

	if snap.Holidays.IsHoliday(placedAt) {
		return normalizeMultiplier(snap.Config.HolidayMultiplier), domain.MultiplierSourceHoliday
	}

	if wd := placedAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return normalizeMultiplier(snap.Config.WeekendMultiplier), domain.MultiplierSourceWeekend
	}

	return 1.0, domain.MultiplierSourceNone
}

// normalizeMultiplier treats an unset multiplier as neutral. An admin row with
// a zero column must not zero out the fee.
func normalizeMultiplier(m float64) float64 {
	if m <= 0 {
		return 1.0
	}
	return m
}

func roundHalfUp(raw float64) int64 {
	return int64(math.Floor(raw + 0.5))
}
