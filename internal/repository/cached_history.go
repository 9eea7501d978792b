package repository

import (
	"context"
	"time"

	"LoanGate/internal/domain/models"
	domrepo "LoanGate/internal/domain/repository"
	"LoanGate/pkg/cache"
)

// CachedHistoryStore wraps a HistoricalStore with a cache. Aggregate
// stats move slowly, so a short TTL keeps the evaluator off the
// warehouse on every admission.
type CachedHistoryStore struct {
	inner domrepo.HistoricalStore
	cache cache.Service
	ttl   time.Duration
}

func NewCachedHistoryStore(inner domrepo.HistoricalStore, c cache.Service, ttl time.Duration) *CachedHistoryStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedHistoryStore{inner: inner, cache: c, ttl: ttl}
}

func statsKey(actionType models.ActionType) string {
	return cache.GenerateKey("history:stats", string(actionType))
}

func (s *CachedHistoryStore) Stats(ctx context.Context, actionType models.ActionType) (*models.HistoricalStats, error) {
	var cached models.HistoricalStats
	if err := s.cache.Get(ctx, statsKey(actionType), &cached); err == nil {
		return &cached, nil
	}
	// miss or degraded cache both fall through to the store

	stats, err := s.inner.Stats(ctx, actionType)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, statsKey(actionType), stats, s.ttl)
	return stats, nil
}

func (s *CachedHistoryStore) ArchiveDecision(ctx context.Context, d *models.ApprovalDecision) error {
	return s.inner.ArchiveDecision(ctx, d)
}

func (s *CachedHistoryStore) Health(ctx context.Context) error {
	return s.inner.Health(ctx)
}

func (s *CachedHistoryStore) Close() error {
	return s.inner.Close()
}
