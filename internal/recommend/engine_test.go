// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/shoprec/internal/logging"
)

// mockAgent records requests and returns a canned response or error.
type mockAgent struct {
	name string
	err  error

	mu    sync.Mutex
	calls int
	last  Request
}

func (m *mockAgent) Name() string { return m.name }

func (m *mockAgent) Recommend(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls++
	m.last = req
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &Response{
		Agent:       m.name,
		Items:       []Item{{ProductID: "p-" + m.name}},
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (m *mockAgent) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockAgent) lastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func newTestEngine(ttl time.Duration) *Engine {
	return NewEngine(EngineConfig{DefaultLimit: 10, MaxLimit: 50, CacheTTL: ttl}, logging.Discard())
}

func TestEngineUnknownAgent(t *testing.T) {
	e := newTestEngine(0)

	_, err := e.Recommend(context.Background(), "oracle", Request{UserID: "u1"})
	if !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestEngineAppliesLimits(t *testing.T) {
	e := newTestEngine(0)
	agent := &mockAgent{name: "mock"}
	e.Register(agent)

	if _, err := e.Recommend(context.Background(), "mock", Request{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if got := agent.lastRequest().Limit; got != 10 {
		t.Errorf("default limit = %d, want 10", got)
	}

	if _, err := e.Recommend(context.Background(), "mock", Request{UserID: "u1", Limit: 500}); err != nil {
		t.Fatal(err)
	}
	if got := agent.lastRequest().Limit; got != 50 {
		t.Errorf("capped limit = %d, want 50", got)
	}
}

func TestEngineCaching(t *testing.T) {
	e := newTestEngine(time.Minute)
	agent := &mockAgent{name: "mock"}
	e.Register(agent)

	req := Request{UserID: "u1", Limit: 5}
	first, err := e.Recommend(context.Background(), "mock", req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first response should not be cached")
	}

	second, err := e.Recommend(context.Background(), "mock", req)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second response should be served from cache")
	}
	if agent.callCount() != 1 {
		t.Errorf("agent called %d times, want 1", agent.callCount())
	}

	m := e.Metrics()
	if m.Requests != 2 || m.CacheHits != 1 {
		t.Errorf("metrics = %+v, want 2 requests / 1 hit", m)
	}
}

func TestEngineCacheKeyIncludesParameters(t *testing.T) {
	e := newTestEngine(time.Minute)
	agent := &mockAgent{name: "mock"}
	e.Register(agent)

	ctx := context.Background()
	if _, err := e.Recommend(ctx, "mock", Request{UserID: "u1", Limit: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Recommend(ctx, "mock", Request{UserID: "u2", Limit: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Recommend(ctx, "mock", Request{UserID: "u1", Limit: 7}); err != nil {
		t.Fatal(err)
	}
	if agent.callCount() != 3 {
		t.Errorf("agent called %d times, want 3 (distinct cache keys)", agent.callCount())
	}
}

func TestEngineInvalidateCache(t *testing.T) {
	e := newTestEngine(time.Minute)
	agent := &mockAgent{name: "mock"}
	e.Register(agent)

	req := Request{UserID: "u1", Limit: 5}
	ctx := context.Background()
	if _, err := e.Recommend(ctx, "mock", req); err != nil {
		t.Fatal(err)
	}
	e.InvalidateCache()
	if _, err := e.Recommend(ctx, "mock", req); err != nil {
		t.Fatal(err)
	}
	if agent.callCount() != 2 {
		t.Errorf("agent called %d times after invalidation, want 2", agent.callCount())
	}
}

func TestEngineRecommendAll(t *testing.T) {
	e := newTestEngine(0)
	ok1 := &mockAgent{name: "alpha"}
	ok2 := &mockAgent{name: "beta"}
	bad := &mockAgent{name: "gamma", err: ErrNoHistory}
	e.Register(ok1)
	e.Register(ok2)
	e.Register(bad)

	responses, failures := e.RecommendAll(context.Background(), Request{UserID: "u1"})

	if len(responses) != 2 {
		t.Errorf("responses = %d, want 2", len(responses))
	}
	if responses["alpha"] == nil || responses["beta"] == nil {
		t.Errorf("missing responses: %v", responses)
	}
	if len(failures) != 1 || !errors.Is(failures["gamma"], ErrNoHistory) {
		t.Errorf("failures = %v, want gamma: ErrNoHistory", failures)
	}
}

func TestEngineAgentsOrder(t *testing.T) {
	e := newTestEngine(0)
	e.Register(&mockAgent{name: "alpha"})
	e.Register(&mockAgent{name: "beta"})

	got := e.Agents()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("Agents() = %v, want [alpha beta]", got)
	}
}
