package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	window int64
	count  int
}

// MemoryLimiter implements a fixed-window in-memory rate limiter.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*memoryEntry
	lastScan int64
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryEntry),
	}
}

// Allow checks whether the request should be allowed in the current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	index, reset := windowBounds(now, window)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(index)

	entry := l.counters[key]
	if entry == nil {
		entry = &memoryEntry{window: index}
		l.counters[key] = entry
	}
	if entry.window != index {
		entry.window = index
		entry.count = 0
	}
	if entry.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	entry.count++
	return Result{Allowed: true, Remaining: limit - entry.count, Reset: reset}, nil
}

// pruneLocked drops counters from past windows once per window.
func (l *MemoryLimiter) pruneLocked(index int64) {
	if l.lastScan == index {
		return
	}
	l.lastScan = index
	for key, entry := range l.counters {
		if entry.window < index {
			delete(l.counters, key)
		}
	}
}
