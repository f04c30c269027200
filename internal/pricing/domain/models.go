// Package domain contains the pricing configuration models and the fee
// breakdown produced by the delivery-fee calculator.
//
// All monetary values are integer minor units (cents). Distances are
// kilometers.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/swiftdrop/dispatch/internal/holiday"
)

// PricingConfig is the active base-pricing parameter set. Exactly one config
// may be active at a time; it is owned by the admin collaborator and consumed
// read-only here.
type PricingConfig struct {
	ID                    snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                  string       `gorm:"type:text;not null" json:"name"`
	BaseFee               int64        `gorm:"not null" json:"base_fee"`
	PricePerKm            int64        `gorm:"not null" json:"price_per_km"`
	FreeDeliveryThreshold int64        `gorm:"not null" json:"free_delivery_threshold"`
	MaxFreeDistanceKm     float64      `gorm:"not null" json:"max_free_distance_km"`
	RemoteZoneFee         int64        `gorm:"not null" json:"remote_zone_fee"`
	RemoteZoneDistanceKm  float64      `gorm:"not null" json:"remote_zone_distance_km"`
	MultiStopFee          int64        `gorm:"not null" json:"multi_stop_fee"`
	RushHourMultiplier    float64      `gorm:"not null;default:1" json:"rush_hour_multiplier"`
	WeekendMultiplier     float64      `gorm:"not null;default:1" json:"weekend_multiplier"`
	HolidayMultiplier     float64      `gorm:"not null;default:1" json:"holiday_multiplier"`
	IsActive              bool         `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt             time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PricingConfig) TableName() string { return "pricing_configs" }

// TimeSlot is a named time-of-day window with a fee multiplier. Windows are
// stored as minutes since midnight and may wrap past midnight.
type TimeSlot struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	StartMinute int          `gorm:"not null" json:"start_minute"`
	EndMinute   int          `gorm:"not null" json:"end_minute"`
	Multiplier  float64      `gorm:"not null;default:1" json:"multiplier"`
	IsActive    bool         `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TimeSlot) TableName() string { return "time_slots" }

// Covers reports whether the slot window contains the given minute of day.
// The window is half-open [start, end); start == end covers nothing.
func (s TimeSlot) Covers(minute int) bool {
	if s.StartMinute == s.EndMinute {
		return false
	}
	if s.StartMinute < s.EndMinute {
		return minute >= s.StartMinute && minute < s.EndMinute
	}
	// Wraps past midnight.
	return minute >= s.StartMinute || minute < s.EndMinute
}

// Zone is a geographic region with a flat delivery surcharge. The membership
// predicate lives with the geo collaborator; orders arrive with a resolved
// zone_id.
type Zone struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Fee       int64        `gorm:"not null" json:"fee"`
	IsActive  bool         `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Zone) TableName() string { return "zones" }

// OrderContext is the calculator input supplied by the order collaborator.
type OrderContext struct {
	OrderID    snowflake.ID  `json:"order_id"`
	Subtotal   int64         `json:"subtotal"`
	DistanceKm float64       `json:"distance_km"`
	StopCount  int           `json:"stop_count"`
	PlacedAt   time.Time     `json:"placed_at"`
	ZoneID     *snowflake.ID `json:"zone_id,omitempty"`
}

// Snapshot is a consistent read of everything fee computation depends on.
type Snapshot struct {
	Config    PricingConfig    `json:"config"`
	TimeSlots []TimeSlot       `json:"time_slots"`
	Zones     []Zone           `json:"zones"`
	Holidays  holiday.Calendar `json:"-"`
}

// Multiplier sources, in precedence order.
const (
	MultiplierSourceTimeSlot = "time_slot"
	MultiplierSourceHoliday  = "holiday"
	MultiplierSourceWeekend  = "weekend"
	MultiplierSourceNone     = "none"
)

// FeeBreakdown exposes every intermediate pricing term so callers and tests
// can assert on each component independently.
type FeeBreakdown struct {
	BaseFee          int64   `json:"base_fee"`
	DistanceFee      int64   `json:"distance_fee"`
	RemoteFee        int64   `json:"remote_fee"`
	ZoneFee          int64   `json:"zone_fee"`
	MultiStopFee     int64   `json:"multi_stop_fee"`
	SubtotalFee      int64   `json:"subtotal_fee"`
	TimeMultiplier   float64 `json:"time_multiplier"`
	MultiplierSource string  `json:"multiplier_source"`
	TotalFee         int64   `json:"total_fee"`
}
