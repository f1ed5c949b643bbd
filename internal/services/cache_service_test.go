package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"driverhire/internal/gateway"
	"driverhire/pkg/cache"
	"driverhire/pkg/logger"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mapCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *mapCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestCachedQuoterReusesIdenticalRequests(t *testing.T) {
	next := &fakeQuoter{quote: &gateway.FareQuote{BaseFare: 420, Total: 420}}
	quoter := NewCachedFareQuoter(next, &mapCache{data: map[string][]byte{}}, time.Minute, logger.NewNop())

	request := &gateway.FareQuoteRequest{ClassID: 2, Hours: 4, TripType: 1, PickupPlace: "Andheri"}
	for i := 0; i < 2; i++ {
		quote, err := quoter.GetFareAmount(context.Background(), request)
		if err != nil {
			t.Fatalf("GetFareAmount: %v", err)
		}
		if quote.Total != 420 {
			t.Fatalf("total = %v, want 420", quote.Total)
		}
	}
	if calls := len(next.calls()); calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", calls)
	}

	other := *request
	other.Hours = 8
	quoter.GetFareAmount(context.Background(), &other)
	if calls := len(next.calls()); calls != 2 {
		t.Fatalf("upstream calls = %d, want 2 after a different request", calls)
	}
}
