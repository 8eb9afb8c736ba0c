package tiered_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xeenaps/pkm/internal/adapter/tiered"
	"github.com/xeenaps/pkm/internal/port/cache/cachetest"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func TestTieredCompliance(t *testing.T) {
	cachetest.Run(t, tiered.New(newMemCache(), newMemCache(), time.Minute))
}

func TestTieredL2HitBackfillsL1(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	l2.data["tracer:log:1"] = []byte("content")

	val, found, err := c.Get(context.Background(), "tracer:log:1")
	if err != nil || !found || string(val) != "content" {
		t.Fatalf("Get = %q, %v, %v", val, found, err)
	}
	if string(l1.data["tracer:log:1"]) != "content" {
		t.Error("expected L1 backfill")
	}
}

func TestTieredWritesThrough(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "ads:vip", []byte("{}"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := l2.data["ads:vip"]; !ok {
		t.Error("expected L2 write")
	}
	if err := c.Delete(ctx, "ads:vip"); err != nil {
		t.Fatal(err)
	}
	if len(l1.data)+len(l2.data) != 0 {
		t.Error("expected both tiers empty after delete")
	}
}

func TestTieredL2FailureDegrades(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.err = errors.New("nats down")
	c := tiered.New(l1, l2, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set should tolerate L2 failure: %v", err)
	}
	if _, found, err := c.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get should degrade to miss, got found=%v err=%v", found, err)
	}
	if err := c.Delete(ctx, "k"); err == nil {
		t.Error("Delete should surface L2 failure")
	}
}
