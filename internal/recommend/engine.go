// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package recommend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// EngineConfig tunes the engine.
type EngineConfig struct {
	// DefaultLimit applies when a request carries no limit.
	DefaultLimit int
	// MaxLimit caps any request limit.
	MaxLimit int
	// CacheTTL bounds response cache entries. Zero disables caching.
	CacheTTL time.Duration
}

// EngineMetrics is a snapshot of engine counters.
type EngineMetrics struct {
	Requests  uint64 `json:"requests"`
	CacheHits uint64 `json:"cache_hits"`
	Errors    uint64 `json:"errors"`
}

// cacheEntry is one cached agent response.
type cacheEntry struct {
	response *Response
	expires  time.Time
}

// Engine fronts the registered agents with request validation, a TTL
// response cache, and fan-out across all agents.
type Engine struct {
	cfg    EngineConfig
	log    zerolog.Logger
	agents map[string]Agent
	order  []string

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry

	requests  atomic.Uint64
	cacheHits atomic.Uint64
	errors    atomic.Uint64
}

// NewEngine creates an engine with no agents registered.
func NewEngine(cfg EngineConfig, log zerolog.Logger) *Engine {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &Engine{
		cfg:    cfg,
		log:    log.With().Str("component", "engine").Logger(),
		agents: make(map[string]Agent),
		cache:  make(map[string]cacheEntry),
	}
}

// Register adds an agent. Registering a duplicate name replaces the previous
// agent.
func (e *Engine) Register(agent Agent) {
	name := agent.Name()
	if _, exists := e.agents[name]; !exists {
		e.order = append(e.order, name)
	}
	e.agents[name] = agent
	e.log.Info().Str("agent", name).Msg("agent registered")
}

// Agents returns registered agent names in registration order.
func (e *Engine) Agents() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Recommend runs one named agent for the request.
func (e *Engine) Recommend(ctx context.Context, agentName string, req Request) (*Response, error) {
	e.requests.Add(1)

	agent, ok := e.agents[agentName]
	if !ok {
		e.errors.Add(1)
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, agentName)
	}

	req = e.normalize(req)
	key := cacheKey(agentName, req)
	if cached := e.checkCache(key); cached != nil {
		e.cacheHits.Add(1)
		return cached, nil
	}

	resp, err := agent.Recommend(ctx, req)
	if err != nil {
		e.errors.Add(1)
		return nil, err
	}

	e.storeCache(key, resp)
	return resp, nil
}

// RecommendAll fans the request out to every registered agent concurrently.
// Per-agent failures land in the errors map; at least one of the returned
// maps is non-empty.
func (e *Engine) RecommendAll(ctx context.Context, req Request) (map[string]*Response, map[string]error) {
	responses := make(map[string]*Response, len(e.order))
	failures := make(map[string]error)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range e.order {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			resp, err := e.Recommend(ctx, name, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[name] = err
				return
			}
			responses[name] = resp
		}(name)
	}
	wg.Wait()

	return responses, failures
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() EngineMetrics {
	return EngineMetrics{
		Requests:  e.requests.Load(),
		CacheHits: e.cacheHits.Load(),
		Errors:    e.errors.Load(),
	}
}

// InvalidateCache drops all cached responses, e.g. after retraining.
func (e *Engine) InvalidateCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cache = make(map[string]cacheEntry)
}

// normalize applies default and maximum limits.
func (e *Engine) normalize(req Request) Request {
	if req.Limit <= 0 {
		req.Limit = e.cfg.DefaultLimit
	}
	if req.Limit > e.cfg.MaxLimit {
		req.Limit = e.cfg.MaxLimit
	}
	req.City = strings.TrimSpace(req.City)
	return req
}

func cacheKey(agent string, req Request) string {
	return fmt.Sprintf("%s|%s|%d|%s", agent, req.UserID, req.Limit, strings.ToLower(req.City))
}

func (e *Engine) checkCache(key string) *Response {
	if e.cfg.CacheTTL <= 0 {
		return nil
	}
	e.cacheMu.RLock()
	entry, ok := e.cache[key]
	e.cacheMu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil
	}

	cached := *entry.response
	cached.Cached = true
	return &cached
}

func (e *Engine) storeCache(key string, resp *Response) {
	if e.cfg.CacheTTL <= 0 {
		return
	}
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	// Opportunistic eviction keeps the map from growing unbounded.
	if len(e.cache) >= 4096 {
		now := time.Now()
		for k, entry := range e.cache {
			if now.After(entry.expires) {
				delete(e.cache, k)
			}
		}
		if len(e.cache) >= 4096 {
			e.cache = make(map[string]cacheEntry)
		}
	}

	e.cache[key] = cacheEntry{response: resp, expires: time.Now().Add(e.cfg.CacheTTL)}
}
