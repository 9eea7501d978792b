package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"LoanGate/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

// MemoryEscalationStore keeps per-borrower escalation state in process
// memory. Suitable for single-replica deployments and tests.
type MemoryEscalationStore struct {
	mu     sync.RWMutex
	states map[string]*models.EscalationState
}

func NewMemoryEscalationStore() *MemoryEscalationStore {
	return &MemoryEscalationStore{states: make(map[string]*models.EscalationState)}
}

func (s *MemoryEscalationStore) Get(_ context.Context, borrowerID string) (*models.EscalationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[borrowerID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryEscalationStore) Put(_ context.Context, state *models.EscalationState) error {
	if state == nil || state.BorrowerID == "" {
		return models.NewValidationError("borrower_id", "escalation state borrower id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.states[state.BorrowerID] = &cp
	return nil
}

// RedisEscalationStore keeps escalation state in Redis so every replica
// sees the same level for a borrower.
type RedisEscalationStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisEscalationStore(client *redis.Client) *RedisEscalationStore {
	return &RedisEscalationStore{client: client, keyPrefix: "loangate:escalation"}
}

func (s *RedisEscalationStore) key(borrowerID string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, borrowerID)
}

func (s *RedisEscalationStore) Get(ctx context.Context, borrowerID string) (*models.EscalationState, error) {
	data, err := s.client.Get(ctx, s.key(borrowerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("escalation get: %w", err)
	}
	var st models.EscalationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("escalation unmarshal: %w", err)
	}
	return &st, nil
}

func (s *RedisEscalationStore) Put(ctx context.Context, state *models.EscalationState) error {
	if state == nil || state.BorrowerID == "" {
		return models.NewValidationError("borrower_id", "escalation state borrower id is required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("escalation marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.BorrowerID), data, 0).Err(); err != nil {
		return fmt.Errorf("escalation set: %w", err)
	}
	return nil
}
