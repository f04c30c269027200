// Package domain contains the commission settlement record and its state machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the commission record lifecycle state.
// pending -> paid and pending -> cancelled are the only edges; both targets
// are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further mutation is permitted.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Valid reports whether the value is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	default:
		return false
	}
}

// CommissionRecord is the single auditable settlement record per order.
// platform_amount + driver_amount always equals delivery_fee to the cent;
// driver_amount is derived by subtraction, never rounded independently.
type CommissionRecord struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrderID           snowflake.ID  `gorm:"not null;uniqueIndex:ux_commission_records_order" json:"order_id"`
	DriverID          *snowflake.ID `gorm:"index" json:"driver_id,omitempty"`
	DeliveryFee       int64         `gorm:"not null" json:"delivery_fee"`
	CommissionPercent float64       `gorm:"not null" json:"commission_percent"`
	PlatformAmount    int64         `gorm:"not null" json:"platform_amount"`
	DriverAmount      int64         `gorm:"not null" json:"driver_amount"`
	Status            Status        `gorm:"type:text;not null;default:'pending';index" json:"status"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CommissionRecord) TableName() string { return "commission_records" }

// CommissionSetting holds the platform-wide default commission percent,
// owned by the admin collaborator.
type CommissionSetting struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	DefaultPercent float64      `gorm:"not null" json:"default_percent"`
	IsActive       bool         `gorm:"not null;default:false;index" json:"is_active"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CommissionSetting) TableName() string { return "commission_settings" }
