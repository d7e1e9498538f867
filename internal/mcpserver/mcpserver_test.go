package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cryptolens/internal/domain"
	"cryptolens/internal/tracker"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type analyzerStub struct {
	err error
}

func (s analyzerStub) MarketOverview(ctx context.Context) (*domain.MarketOverview, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.MarketOverview{TotalMarketCapUSD: 1_000_000, BTCDominance: 52.3}, nil
}

func (s analyzerStub) TokenAnalysis(ctx context.Context, coinID string) (*domain.TokenAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.TokenAnalysis{CoinID: coinID, Symbol: "BTC"}, nil
}

func (s analyzerStub) TrendingWithContext(ctx context.Context) (*domain.TrendingResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.TrendingResult{MarketDirection: domain.DirectionNeutral}, nil
}

func (s analyzerStub) ProtocolComparison(ctx context.Context, slugs []string) (*domain.ComparisonResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	results := make([]domain.ProtocolResult, len(slugs))
	for i, slug := range slugs {
		results[i] = domain.ProtocolResult{Slug: slug}
	}
	return &domain.ComparisonResult{Protocols: results, Count: len(results)}, nil
}

func (s analyzerStub) ChainTVLRanking(ctx context.Context) (*domain.ChainRanking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ChainRanking{TotalTVL: 42}, nil
}

func (s analyzerStub) DeFiActivity(ctx context.Context) (*domain.DeFiActivity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.DeFiActivity{DexVolume24hUSD: 5e9}, nil
}

type statsStub struct{}

func (statsStub) Stats() domain.CacheStats {
	return domain.CacheStats{TotalKeys: 2, Fresh: 2}
}

func newTestServer(err error) *Server {
	return New("test", analyzerStub{err: err}, statsStub{}, tracker.New())
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("expected one content block, got %+v", res)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestMarketOverviewTool(t *testing.T) {
	s := newTestServer(nil)
	res, _, err := s.marketOverview(context.Background(), nil, emptyArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var overview domain.MarketOverview
	if err := json.Unmarshal([]byte(textOf(t, res)), &overview); err != nil {
		t.Fatalf("result is not valid json: %v", err)
	}
	if overview.BTCDominance != 52.3 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
}

func TestTokenAnalysisToolRequiresCoinID(t *testing.T) {
	s := newTestServer(nil)
	_, _, err := s.tokenAnalysis(context.Background(), nil, tokenArgs{})
	if err == nil || !strings.Contains(err.Error(), "coin_id") {
		t.Fatalf("expected coin_id error, got %v", err)
	}
}

func TestCompareProtocolsTool(t *testing.T) {
	s := newTestServer(nil)
	res, _, err := s.compareProtocols(context.Background(), nil, compareArgs{Slugs: []string{"aave", "lido"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result domain.ComparisonResult
	if err := json.Unmarshal([]byte(textOf(t, res)), &result); err != nil {
		t.Fatalf("result is not valid json: %v", err)
	}
	if result.Count != 2 || result.Protocols[0].Slug != "aave" {
		t.Fatalf("unexpected comparison: %+v", result)
	}

	if _, _, err := s.compareProtocols(context.Background(), nil, compareArgs{}); err == nil {
		t.Fatal("expected error for empty slugs")
	}
}

func TestToolErrorsPropagate(t *testing.T) {
	s := newTestServer(errors.New("upstream down"))
	_, _, err := s.trendingCoins(context.Background(), nil, emptyArgs{})
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestToolUseIsTracked(t *testing.T) {
	tr := tracker.New()
	s := New("test", analyzerStub{}, statsStub{}, tr)
	if _, _, err := s.cacheStats(context.Background(), nil, emptyArgs{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := tr.Summarize()
	if summary.TotalEvents != 1 {
		t.Fatalf("expected one tracked event, got %+v", summary)
	}
	if summary.TopEndpoints[0].Endpoint != "mcp:cache_stats" {
		t.Fatalf("unexpected endpoint: %+v", summary.TopEndpoints)
	}
}
