// Package cache provides a shared key-value cache abstraction.
// This is part of the platform layer and contains no business logic.
//
// The cache is strictly a performance optimization: callers must behave
// identically (aside from latency) when handed the no-op implementation.
package cache

import (
	"context"
	"time"
)

// Cache is the key-value contract consumed by the feature engineer and
// other read-heavy components. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the cached value for key, and whether it was present.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key for at most ttl.
	Set(ctx context.Context, key string, value string, ttl time.Duration)
}

// NoOp is a cache that stores nothing. It is the default collaborator so
// components remain testable without any process-wide state.
type NoOp struct{}

// NewNoOp creates a no-op cache.
func NewNoOp() *NoOp { return &NoOp{} }

// Get always misses.
func (*NoOp) Get(context.Context, string) (string, bool) { return "", false }

// Set discards the value.
func (*NoOp) Set(context.Context, string, string, time.Duration) {}
