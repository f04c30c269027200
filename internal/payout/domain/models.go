// Package domain defines the read-only commission reporting contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Period is a named reporting window anchored at the current time.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Granularity of the time-bucketed rollup.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// StatsFilter scopes an aggregation. Either Period or an explicit From/To
// range must be set; DriverID optionally narrows to one driver.
type StatsFilter struct {
	Period   Period
	From     *time.Time
	To       *time.Time
	DriverID *snowflake.ID
	TopN     int
}

// Bucket is one time-bucketed rollup row.
type Bucket struct {
	Start          time.Time `json:"start"`
	RecordCount    int64     `json:"record_count"`
	DeliveryFee    int64     `json:"delivery_fee"`
	PlatformAmount int64     `json:"platform_amount"`
	DriverAmount   int64     `json:"driver_amount"`
}

// DriverRank is one row of the top-N driver ranking.
type DriverRank struct {
	DriverID     snowflake.ID `json:"driver_id"`
	DriverAmount int64        `json:"driver_amount"`
	RecordCount  int64        `json:"record_count"`
}

// Stats is the aggregation output.
type Stats struct {
	From                 time.Time        `json:"from"`
	To                   time.Time        `json:"to"`
	Granularity          Granularity      `json:"granularity"`
	RecordCount          int64            `json:"record_count"`
	TotalDeliveryFee     int64            `json:"total_delivery_fee"`
	TotalPlatformAmount  int64            `json:"total_platform_amount"`
	TotalDriverAmount    int64            `json:"total_driver_amount"`
	AvgCommissionPercent float64          `json:"avg_commission_percent"`
	StatusCounts         map[string]int64 `json:"status_counts"`
	Buckets              []Bucket         `json:"buckets"`
	TopDrivers           []DriverRank     `json:"top_drivers"`
}

// Service aggregates committed commission records. It has no write authority.
type Service interface {
	Aggregate(ctx context.Context, filter StatsFilter) (Stats, error)
}

var (
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrInvalidRange  = errors.New("invalid_date_range")
)
