package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// SettleRequest is the settlement input. DriverID and CommissionPercent are
// optional: settlement is triggered both at order placement (no driver yet)
// and at driver (re)assignment.
type SettleRequest struct {
	OrderID           snowflake.ID
	DeliveryFee       int64
	DriverID          *snowflake.ID
	CommissionPercent *float64
}

// Service settles delivery fees into commission records and drives the
// record state machine.
type Service interface {
	// Settle upserts the record for the order. Re-invocation while pending
	// updates the existing row; invocation against a terminal record fails
	// with ErrCommissionFinalized.
	Settle(ctx context.Context, req SettleRequest) (*CommissionRecord, error)
	// MarkPaid transitions pending -> paid. Idempotent when already paid.
	MarkPaid(ctx context.Context, orderID snowflake.ID) (*CommissionRecord, error)
	// Cancel transitions pending -> cancelled. Idempotent when already cancelled.
	Cancel(ctx context.Context, orderID snowflake.ID) (*CommissionRecord, error)
	// Get returns the record for the order.
	Get(ctx context.Context, orderID snowflake.ID) (*CommissionRecord, error)
}

var (
	// ErrCommissionFinalized rejects any mutation of a paid or cancelled
	// record. Permanent; callers must not retry.
	ErrCommissionFinalized = errors.New("commission_finalized")

	// ErrCommissionNotFound means no record exists for the order.
	ErrCommissionNotFound = errors.New("commission_not_found")

	ErrInvalidOrderID     = errors.New("invalid_order_id")
	ErrInvalidDeliveryFee = errors.New("invalid_delivery_fee")
	ErrInvalidPercent     = errors.New("invalid_commission_percent")

	// ErrPersistence wraps transient storage failures. The only retryable
	// category; retrying with backoff is the caller's responsibility.
	ErrPersistence = errors.New("persistence_failure")
)
