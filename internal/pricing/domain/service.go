package domain

import (
	"context"
	"errors"
)

// Service quotes delivery fees from the active pricing snapshot.
type Service interface {
	Quote(ctx context.Context, order OrderContext) (FeeBreakdown, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}

// SnapshotStore loads a consistent pricing snapshot.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, error)
}

var (
	// ErrNoActivePricing means no active pricing configuration exists.
	// Fee computation fails closed; it never substitutes hardcoded defaults.
	ErrNoActivePricing = errors.New("no_active_pricing")

	ErrInvalidSubtotal  = errors.New("invalid_subtotal")
	ErrInvalidDistance  = errors.New("invalid_distance_km")
	ErrInvalidStopCount = errors.New("invalid_stop_count")
	ErrInvalidPlacedAt  = errors.New("invalid_placed_at")
)
