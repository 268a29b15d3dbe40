package features

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadqual_backend/internal/leads/domain"
)

// recordingCache counts hits and writes so tests can observe caching
// behavior without a redis server.
type recordingCache struct {
	mu      sync.Mutex
	entries map[string]string
	gets    int
	sets    int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]string)}
}

func (c *recordingCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	value, ok := c.entries[key]
	return value, ok
}

func (c *recordingCache) Set(_ context.Context, key, value string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
}

func TestConversationFeaturesCachedByContent(t *testing.T) {
	rc := newRecordingCache()
	e := NewEngineer(rc, nil, WithClock(testClock))
	conv := domain.ConversationContext{
		CreatedAt: "2025-06-15T10:00:00Z",
		Messages:  []domain.Message{userMsg("Looking for a 3 bedroom near a good school district, budget $600k.")},
		Preferences: domain.Preferences{
			Budget: "$600k", Location: "suburban", Bedrooms: "3",
		},
	}

	first := e.ConversationFeatures(context.Background(), conv)
	if rc.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", rc.sets)
	}

	second := e.ConversationFeatures(context.Background(), conv)
	if rc.sets != 1 {
		t.Fatalf("cache sets after repeat = %d, want 1", rc.sets)
	}
	if first.MessageCount != second.MessageCount || first.EngagementScore != second.EngagementScore {
		t.Fatal("cached record differs from computed record")
	}

	// Any content change must produce a different cache key.
	conv.Messages = append(conv.Messages, userMsg("Actually make that 4 bedrooms."))
	e.ConversationFeatures(context.Background(), conv)
	if rc.sets != 2 {
		t.Fatalf("cache sets after changed content = %d, want 2", rc.sets)
	}
}

func TestMarketFeaturesCachedPerLocation(t *testing.T) {
	rc := newRecordingCache()
	e := NewEngineer(rc, nil, WithClock(testClock))

	e.MarketFeatures(context.Background(), "Downtown")
	e.MarketFeatures(context.Background(), "downtown ")
	if rc.sets != 1 {
		t.Fatalf("cache sets = %d, want 1 for one normalized location", rc.sets)
	}

	e.MarketFeatures(context.Background(), "rural")
	if rc.sets != 2 {
		t.Fatalf("cache sets = %d, want 2 after second location", rc.sets)
	}
}

func TestEngineerNilCacheDegradesToNoOp(t *testing.T) {
	e := NewEngineer(nil, nil, WithClock(testClock))
	feats := e.MarketFeatures(context.Background(), "downtown")
	assertMarketBounds(t, feats)
}
