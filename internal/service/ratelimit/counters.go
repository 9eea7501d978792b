package ratelimit

import (
	"context"
	"sync"
	"time"

	"LoanGate/internal/domain/models"
)

// WindowCounters enforces the hourly and daily admission caps in process
// memory. Reserve is atomic: a slot is only consumed when both windows
// have room.
type WindowCounters struct {
	mu     sync.Mutex
	hours  map[string]int
	days   map[string]int
	lastGC time.Time
}

func NewWindowCounters() *WindowCounters {
	return &WindowCounters{
		hours: make(map[string]int),
		days:  make(map[string]int),
	}
}

func hourKey(t time.Time) string { return t.UTC().Format("2006010215") }
func dayKey(t time.Time) string  { return t.UTC().Format("20060102") }

// Reserve consumes one slot in the hour and day windows containing now.
// A zero limit means the corresponding window is unbounded.
func (c *WindowCounters) Reserve(_ context.Context, now time.Time, limits models.TimeRestrictions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hk, dk := hourKey(now), dayKey(now)

	if limits.MaxActionsPerHour > 0 && c.hours[hk] >= limits.MaxActionsPerHour {
		return &models.ResourceExhaustedError{Limit: "per_hour", Max: limits.MaxActionsPerHour}
	}
	if limits.MaxActionsPerDay > 0 && c.days[dk] >= limits.MaxActionsPerDay {
		return &models.ResourceExhaustedError{Limit: "per_day", Max: limits.MaxActionsPerDay}
	}

	c.hours[hk]++
	c.days[dk]++
	c.gc(now)
	return nil
}

// gc drops windows older than the current day. Stale keys are harmless,
// this just bounds map growth on long-lived processes.
func (c *WindowCounters) gc(now time.Time) {
	if now.Sub(c.lastGC) < time.Hour {
		return
	}
	c.lastGC = now
	hk, dk := hourKey(now), dayKey(now)
	for k := range c.hours {
		if k < hk {
			delete(c.hours, k)
		}
	}
	for k := range c.days {
		if k < dk {
			delete(c.days, k)
		}
	}
}
