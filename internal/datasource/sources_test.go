package datasource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestSources(rt roundTripFunc) *Sources {
	s := New(trace.NewNoopTracerProvider().Tracer("test"))
	s.client = &http.Client{Transport: rt}
	return s
}

func TestFreshHitSkipsNetwork(t *testing.T) {
	var calls int32
	s := newTestSources(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(`{"data":[{"value":"63","value_classification":"Greed","timestamp":"1771009800"}]}`), nil
	})

	first, err := s.FearGreed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Value != 63 || first.Label != "Greed" {
		t.Fatalf("unexpected payload: %+v", first)
	}

	second, err := s.FearGreed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Fatalf("expected cached payload, got %+v", second)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}

	stats := s.Stats()
	if stats.TotalKeys != 1 || stats.Fresh != 1 || stats.Stale != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestStaleWhileRevalidate(t *testing.T) {
	var fail atomic.Bool
	s := newTestSources(func(req *http.Request) (*http.Response, error) {
		if fail.Load() {
			return nil, errors.New("connection refused")
		}
		return jsonResponse(`{"data":{"active_cryptocurrencies":12000,"total_market_cap":{"usd":3.1e12}}}`), nil
	})

	first, err := s.GlobalMarket(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Age the entry past its TTL, then make the refresh fail.
	base := time.Now()
	s.now = func() time.Time { return base.Add(shortTTL + time.Minute) }
	fail.Store(true)

	got, err := s.GlobalMarket(context.Background())
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if got != first {
		t.Fatal("expected the previous payload, unchanged")
	}

	stats := s.Stats()
	if stats.TotalKeys != 1 || stats.Stale != 1 || stats.Fresh != 0 {
		t.Fatalf("unexpected stats after stale read: %+v", stats)
	}
}

func TestColdFetchFailurePropagates(t *testing.T) {
	s := newTestSources(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial timeout")
	})

	if _, err := s.ChainTVLs(context.Background()); err == nil {
		t.Fatal("expected error for cold key with failing upstream")
	}
	if stats := s.Stats(); stats.TotalKeys != 0 {
		t.Fatalf("failed fetch must not create entries: %+v", stats)
	}
}

func TestUpstreamStatusIsFetchError(t *testing.T) {
	s := newTestSources(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(bytes.NewBufferString(`{"error":"rate limited"}`)),
			Header:     make(http.Header),
		}, nil
	})

	_, err := s.Trending(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error should carry the status code: %v", err)
	}
}

func TestCoinDetailKeysDoNotCollide(t *testing.T) {
	s := newTestSources(func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Path, "/coins/bitcoin") {
			return jsonResponse(`{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}`), nil
		}
		return jsonResponse(`{"id":"ethereum","symbol":"eth","name":"Ethereum"}`), nil
	})

	btc, err := s.CoinDetail(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eth, err := s.CoinDetail(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if btc.ID != "bitcoin" || eth.ID != "ethereum" {
		t.Fatalf("cache keys collided: %q vs %q", btc.ID, eth.ID)
	}
	if stats := s.Stats(); stats.TotalKeys != 2 {
		t.Fatalf("expected 2 entries, got %+v", stats)
	}
}

func TestFetchBeforeStart(t *testing.T) {
	s := New(trace.NewNoopTracerProvider().Tracer("test"))

	_, err := s.Protocols(context.Background())
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	s := New(trace.NewNoopTracerProvider().Tracer("test"))
	s.Start()
	if s.client == nil {
		t.Fatal("Start must build the client")
	}
	s.Start() // idempotent
	s.Stop()
	if s.client != nil {
		t.Fatal("Stop must release the client")
	}
}

func TestPricesRequestShape(t *testing.T) {
	s := newTestSources(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/simple/price") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("vs_currencies") != "usd" || q.Get("include_market_cap") != "true" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		if req.Header.Get("User-Agent") != userAgent {
			t.Fatalf("unexpected user agent: %s", req.Header.Get("User-Agent"))
		}
		return jsonResponse(`{"bitcoin":{"usd":97000,"usd_market_cap":1.9e12,"usd_24h_vol":4.5e10,"usd_24h_change":2.3}}`), nil
	})

	prices, err := s.Prices(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prices["bitcoin"]["usd"] != 97000 {
		t.Fatalf("unexpected prices: %+v", prices)
	}
}
