package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftdrop/dispatch/internal/pricing/domain"
	"go.uber.org/zap"
)

type countingStore struct {
	calls int
	snap  domain.Snapshot
	err   error
}

func (s *countingStore) Load(ctx context.Context) (domain.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

func TestSnapshot_CachesActiveConfig(t *testing.T) {
	store := &countingStore{snap: baseSnapshot()}
	svc := NewService(ServiceParam{Log: zap.NewNop(), Store: store})

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Config.ID, second.Config.ID)
	assert.Equal(t, 1, store.calls)
}

func TestSnapshot_ErrorsAreNotCached(t *testing.T) {
	store := &countingStore{err: domain.ErrNoActivePricing}
	svc := NewService(ServiceParam{Log: zap.NewNop(), Store: store})

	_, err := svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActivePricing)
	_, err = svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActivePricing)

	assert.Equal(t, 2, store.calls)
}

func TestQuote_UsesSnapshot(t *testing.T) {
	store := &countingStore{snap: baseSnapshot()}
	svc := NewService(ServiceParam{Log: zap.NewNop(), Store: store})

	breakdown, err := svc.Quote(context.Background(), order(2000, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1549), breakdown.TotalFee)

	breakdown, err = svc.Quote(context.Background(), order(3000, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(0), breakdown.TotalFee)

	assert.Equal(t, 1, store.calls)
}
