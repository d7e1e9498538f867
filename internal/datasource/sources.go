package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"cryptolens/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	defillamaBaseURL = "https://api.llama.fi"
	fearGreedBaseURL = "https://api.alternative.me"

	userAgent = "CryptoLens/2.0"

	// shortTTL covers volatile data: prices, global snapshot, coin detail,
	// sentiment. longTTL covers slower-moving lists: protocols, chains,
	// trending, protocol detail.
	shortTTL = 5 * time.Minute
	longTTL  = 10 * time.Minute

	requestTimeout = 15 * time.Second
	connectTimeout = 5 * time.Second
)

// ErrNotStarted is returned when a fetch is attempted before Start.
var ErrNotStarted = errors.New("datasource: not started, call Start first")

// entry is one cached upstream payload.
type entry struct {
	payload   any
	fetchedAt time.Time
	ttl       time.Duration
}

func (e *entry) fresh(now time.Time) bool {
	return now.Sub(e.fetchedAt) < e.ttl
}

// lookup classifies a cache read so the stale-fallback path is an explicit
// branch rather than a swallowed error.
type lookup int

const (
	lookupMiss lookup = iota
	lookupFresh
	lookupStale
)

// Sources is the single access point for every upstream query. Each query is
// served through a per-key TTL cache; when a refresh fails and a previous
// payload exists the old payload is returned unchanged (stale-while-
// revalidate). Entries are never evicted, so staleness is observable but data
// is never lost within the process lifetime.
//
// Safe for concurrent use. Two concurrent misses on the same key may both hit
// the network; the last writer wins. That duplication is a known inefficiency,
// not a correctness problem.
type Sources struct {
	coingeckoURL string
	defillamaURL string
	fearGreedURL string
	tracer       trace.Tracer

	mu     sync.Mutex
	client *http.Client
	cache  map[string]*entry

	now func() time.Time
}

// Option overrides a Sources default, mainly for tests.
type Option func(*Sources)

func WithCoinGeckoURL(u string) Option { return func(s *Sources) { s.coingeckoURL = u } }
func WithDefiLlamaURL(u string) Option { return func(s *Sources) { s.defillamaURL = u } }
func WithFearGreedURL(u string) Option { return func(s *Sources) { s.fearGreedURL = u } }

func New(tracer trace.Tracer, opts ...Option) *Sources {
	s := &Sources{
		coingeckoURL: coingeckoBaseURL,
		defillamaURL: defillamaBaseURL,
		fearGreedURL: fearGreedBaseURL,
		tracer:       tracer,
		cache:        make(map[string]*entry),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start acquires the shared HTTP client. Must be called before any fetch.
func (s *Sources) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return
	}
	s.client = &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
			MaxIdleConnsPerHost: 4,
		},
	}
}

// Stop releases the HTTP client. Cached payloads survive so a later Start
// resumes with warm data.
func (s *Sources) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.CloseIdleConnections()
		s.client = nil
	}
}

// Stats reports total, fresh and stale key counts. Read-only.
func (s *Sources) Stats() domain.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	stats := domain.CacheStats{TotalKeys: len(s.cache)}
	for _, e := range s.cache {
		if e.fresh(now) {
			stats.Fresh++
		}
	}
	stats.Stale = stats.TotalKeys - stats.Fresh
	return stats
}

func (s *Sources) peek(key string) (any, lookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[key]
	if !ok {
		return nil, lookupMiss
	}
	if e.fresh(s.now()) {
		return e.payload, lookupFresh
	}
	return e.payload, lookupStale
}

func (s *Sources) store(key string, payload any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = &entry{payload: payload, fetchedAt: s.now(), ttl: ttl}
}

// cached serves key from the cache when fresh, otherwise runs fetch once.
// A fetch failure with a prior entry (even stale) returns the old payload;
// a fetch failure on a cold key propagates. There is no retry here.
func cached[T any](ctx context.Context, s *Sources, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	prev, state := s.peek(key)
	if state == lookupFresh {
		return prev.(T), nil
	}

	fetched, err := fetch(ctx)
	if err != nil {
		if state == lookupStale {
			return prev.(T), nil
		}
		var zero T
		return zero, err
	}

	s.store(key, fetched, ttl)
	return fetched, nil
}

// getJSON performs one GET against an upstream and decodes the JSON body.
// Non-2xx responses and decode failures are fetch errors.
func (s *Sources) getJSON(ctx context.Context, url string, out any) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return ErrNotStarted
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream error %d from %s: %s", resp.StatusCode, url, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
