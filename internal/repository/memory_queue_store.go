package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"LoanGate/internal/domain/models"
)

// MemoryQueueStore is an in-process QueueStore. Transition implements
// compare-and-set under the store lock, so concurrent reviewers cannot
// double-move an item.
type MemoryQueueStore struct {
	mu    sync.RWMutex
	items map[string]*models.QueueItem
}

func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{items: make(map[string]*models.QueueItem)}
}

func (s *MemoryQueueStore) Create(_ context.Context, item *models.QueueItem) error {
	if item == nil || item.ID == "" {
		return models.NewValidationError("id", "queue item id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("queue item %s already exists", item.ID)
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *MemoryQueueStore) Get(_ context.Context, id string) (*models.QueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("queue item %s not found", id)
	}
	cp := *item
	return &cp, nil
}

func (s *MemoryQueueStore) ListByStatus(_ context.Context, status models.QueueStatus, limit int) ([]*models.QueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.QueueItem, 0, len(s.items))
	for _, item := range s.items {
		if item.Status != status {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryQueueStore) Transition(_ context.Context, id string, from, to models.QueueStatus) (*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("queue item %s not found", id)
	}
	if item.Status != from {
		return nil, fmt.Errorf("queue item %s is %s, expected %s", id, item.Status, from)
	}
	if !models.CanTransition(from, to) {
		return nil, fmt.Errorf("illegal transition %s→%s for item %s", from, to, id)
	}
	item.Status = to
	cp := *item
	return &cp, nil
}

// Release undoes a dispatch claim after a failed delivery, moving the
// item from executed back to the approved state it was claimed from.
func (s *MemoryQueueStore) Release(_ context.Context, id string, to models.QueueStatus) error {
	if to != models.StatusApproved && to != models.StatusAutoApproved {
		return fmt.Errorf("cannot release item %s to %s", id, to)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("queue item %s not found", id)
	}
	if item.Status != models.StatusExecuted {
		return fmt.Errorf("queue item %s is %s, expected %s", id, item.Status, models.StatusExecuted)
	}
	item.Status = to
	return nil
}

// Depths returns the current item count per status, for gauge reporting.
func (s *MemoryQueueStore) Depths() map[models.QueueStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	depths := make(map[models.QueueStatus]int)
	for _, item := range s.items {
		depths[item.Status]++
	}
	return depths
}
