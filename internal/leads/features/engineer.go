// Package features turns raw lead conversations and locations into the
// bounded feature records consumed by the closing-probability model and
// the predictive scorer.
package features

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/platform/cache"
	"leadqual_backend/platform/logger"
)

const (
	// Conversations change quickly; market conditions do not.
	conversationCacheTTL = time.Hour
	marketCacheTTL       = 4 * time.Hour
)

// Engineer extracts conversation and market features. Extraction is
// fail-open: it always returns a fully populated record, substituting
// documented neutral defaults when a signal cannot be computed. The cache
// is a pure optimization; removing it does not change any output.
type Engineer struct {
	cache cache.Cache
	log   *logger.Logger
	now   func() time.Time
}

// Option configures an Engineer.
type Option func(*Engineer)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engineer) { e.now = now }
}

// NewEngineer creates a feature engineer. A nil cache degrades to the
// no-op cache and a nil logger silences logging.
func NewEngineer(c cache.Cache, log *logger.Logger, opts ...Option) *Engineer {
	e := &Engineer{cache: c, log: log, now: time.Now}
	if e.cache == nil {
		e.cache = cache.NewNoOp()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ConversationFeatures extracts the conversational feature record for one
// conversation snapshot, cached by content hash.
func (e *Engineer) ConversationFeatures(ctx context.Context, conv domain.ConversationContext) domain.ConversationFeatures {
	key := conversationCacheKey(conv)

	if raw, ok := e.cache.Get(ctx, key); ok {
		var cached domain.ConversationFeatures
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached
		}
	}

	feats := e.extractConversation(conv)

	if raw, err := json.Marshal(feats); err == nil {
		e.cache.Set(ctx, key, string(raw), conversationCacheTTL)
	}
	return feats
}

// MarketFeatures derives the market feature record for a location string,
// cached per normalized location. Unknown or empty locations use the
// general profile; this path never fails.
func (e *Engineer) MarketFeatures(ctx context.Context, location string) domain.MarketFeatures {
	normalized := normalizeLocation(location)
	key := "features:market:" + normalized

	if raw, ok := e.cache.Get(ctx, key); ok {
		var cached domain.MarketFeatures
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached
		}
	}

	feats := e.extractMarket(normalized)

	if raw, err := json.Marshal(feats); err == nil {
		e.cache.Set(ctx, key, string(raw), marketCacheTTL)
	}
	return feats
}

// conversationCacheKey hashes the structured conversation content so that
// identical snapshots share one cache entry.
func conversationCacheKey(conv domain.ConversationContext) string {
	h := fnv.New64a()
	if raw, err := json.Marshal(conv); err == nil {
		_, _ = h.Write(raw)
	}
	return fmt.Sprintf("features:conv:%x", h.Sum64())
}

func normalizeLocation(location string) string {
	normalized := strings.ToLower(strings.TrimSpace(location))
	if normalized == "" {
		return "general"
	}
	return normalized
}
