package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultMaxKeys = 10000

// Memory is an in-process sliding-window log. Only the MaxKeys most recently
// seen callers are tracked; an evicted caller starts with a fresh window.
type Memory struct {
	mu       sync.Mutex
	requests int
	window   time.Duration
	hits     *lru.Cache[string, []time.Time]
	now      func() time.Time
}

func NewMemory(requests int, window time.Duration, maxKeys int) (*Memory, error) {
	if err := validate(requests, window); err != nil {
		return nil, err
	}
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	hits, err := lru.New[string, []time.Time](maxKeys)
	if err != nil {
		return nil, fmt.Errorf("new lru: %w", err)
	}
	return &Memory{
		requests: requests,
		window:   window,
		hits:     hits,
		now:      time.Now,
	}, nil
}

func (m *Memory) Limit(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)

	hits, _ := m.hits.Get(key)
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		hits = append([]time.Time(nil), hits[i:]...)
	}

	res := Result{Limit: m.requests}
	if len(hits) >= m.requests {
		m.hits.Add(key, hits)
		res.Reset = hits[0].Add(m.window)
		return res, nil
	}

	hits = append(hits, now)
	m.hits.Add(key, hits)
	res.Success = true
	res.Remaining = m.requests - len(hits)
	res.Reset = hits[0].Add(m.window)
	return res, nil
}
