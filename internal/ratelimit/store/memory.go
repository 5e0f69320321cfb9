package store

import (
	"context"
	"sync"
	"time"

	"waitlist/internal/ratelimit/models"
)

// window is one fixed window's counter state. The count never decreases
// within a window; the whole window is replaced once resetAt passes.
type window struct {
	count   int
	resetAt time.Time
}

// Memory is an in-memory fixed-window counter store for single-process
// deployments. A background goroutine periodically evicts expired windows so
// the counter map stays bounded.
type Memory struct {
	mu       sync.Mutex
	counters map[string]*window

	evictInterval time.Duration
	done          chan struct{}
	closed        bool
}

// NewMemory creates an in-memory counter store and starts its eviction
// goroutine.
func NewMemory(evictInterval time.Duration) *Memory {
	m := &Memory{
		counters:      make(map[string]*window),
		evictInterval: evictInterval,
		done:          make(chan struct{}),
	}
	go m.evictLoop()
	return m
}

// Allow checks and records an attempt under key for the current fixed window.
func (m *Memory) Allow(_ context.Context, key string, limit int, windowDur time.Duration) (*models.Result, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.counters[key]
	if w == nil || !now.Before(w.resetAt) {
		// New window: the triggering attempt is itself counted.
		w = &window{count: 1, resetAt: now.Add(windowDur)}
		m.counters[key] = w
		if limit < 1 {
			return denied(limit, w.resetAt, now), nil
		}
		return &models.Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - 1,
			ResetAt:   w.resetAt,
		}, nil
	}

	if w.count < limit {
		w.count++
		return &models.Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - w.count,
			ResetAt:   w.resetAt,
		}, nil
	}

	return denied(limit, w.resetAt, now), nil
}

func denied(limit int, resetAt, now time.Time) *models.Result {
	retryAfter := int(resetAt.Sub(now).Seconds()) + 1
	if retryAfter < 1 {
		retryAfter = 1
	}
	return &models.Result{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}
}

// Len reports the number of live counters. Used by eviction tests.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.counters)
}

// Close stops the background eviction goroutine.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
}

func (m *Memory) evictLoop() {
	ticker := time.NewTicker(m.evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictExpired(time.Now())
		}
	}
}

func (m *Memory) evictExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, w := range m.counters {
		if !now.Before(w.resetAt) {
			delete(m.counters, key)
		}
	}
}
