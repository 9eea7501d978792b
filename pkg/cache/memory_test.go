package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type statsFixture struct {
	ActionType  string  `json:"action_type"`
	SuccessRate float64 `json:"success_rate"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(10))
	defer mc.Close()
	ctx := context.Background()

	in := statsFixture{ActionType: "payment_reminder", SuccessRate: 0.82}
	if err := mc.Set(ctx, GenerateKey("history:stats", in.ActionType), in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out statsFixture
	if err := mc.Get(ctx, "history:stats:payment_reminder", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}

	if err := mc.Get(ctx, "history:stats:borrower_call", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := mc.Set(ctx, "b", "2", time.Minute); err != nil {
		t.Fatalf("set b: %v", err)
	}
	// Touch a so b becomes the eviction candidate.
	var s string
	if err := mc.Get(ctx, "a", &s); err != nil {
		t.Fatalf("get a: %v", err)
	}
	if err := mc.Set(ctx, "c", "3", time.Minute); err != nil {
		t.Fatalf("set c: %v", err)
	}

	if err := mc.Get(ctx, "b", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &s); err != nil || s != "1" {
		t.Fatalf("a must survive eviction, got %q, %v", s, err)
	}
}
