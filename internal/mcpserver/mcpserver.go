package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cryptolens/internal/domain"
	"cryptolens/internal/tracker"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Analyzer is the slice of the analytics service exposed as MCP tools.
type Analyzer interface {
	MarketOverview(ctx context.Context) (*domain.MarketOverview, error)
	TokenAnalysis(ctx context.Context, coinID string) (*domain.TokenAnalysis, error)
	TrendingWithContext(ctx context.Context) (*domain.TrendingResult, error)
	ProtocolComparison(ctx context.Context, slugs []string) (*domain.ComparisonResult, error)
	ChainTVLRanking(ctx context.Context) (*domain.ChainRanking, error)
	DeFiActivity(ctx context.Context) (*domain.DeFiActivity, error)
}

type CacheStatter interface {
	Stats() domain.CacheStats
}

type Server struct {
	mcp       *mcp.Server
	analytics Analyzer
	cache     CacheStatter
	tracker   *tracker.Tracker
}

type tokenArgs struct {
	CoinID string `json:"coin_id" jsonschema:"CoinGecko coin id, e.g. bitcoin"`
}

type compareArgs struct {
	Slugs []string `json:"slugs" jsonschema:"DeFiLlama protocol slugs to compare"`
}

type emptyArgs struct{}

// New builds the MCP server and registers every tool.
func New(version string, analytics Analyzer, cache CacheStatter, tr *tracker.Tracker) *Server {
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "cryptolens",
			Version: version,
		}, nil),
		analytics: analytics,
		cache:     cache,
		tracker:   tr,
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "market_overview",
		Description: "Cross-source market overview: global market cap, DeFi TVL, fear & greed index and sentiment divergence",
	}, s.marketOverview)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "token_analysis",
		Description: "Deep dive on one token: price action, supply, DeFi TVL and sentiment divergence",
	}, s.tokenAnalysis)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "trending_coins",
		Description: "Trending search coins with market direction and sentiment context",
	}, s.trendingCoins)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "compare_protocols",
		Description: "Compare DeFi protocols by TVL, category and recent TVL changes",
	}, s.compareProtocols)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chain_rankings",
		Description: "Chains ranked by total value locked",
	}, s.chainRankings)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "defi_activity",
		Description: "DEX volume totals and stablecoin circulation",
	}, s.defiActivity)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "cache_stats",
		Description: "Freshness of the cached upstream data",
	}, s.cacheStats)

	return s
}

// RunStdio serves the MCP protocol over stdin/stdout until the context ends.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns a streamable-HTTP handler for the same server.
func (s *Server) HTTPHandler() *mcp.StreamableHTTPHandler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

func (s *Server) logTool(req *mcp.CallToolRequest, tool string, params map[string]string) {
	fp := "mcp"
	if req != nil && req.Session != nil {
		if id := req.Session.ID(); id != "" {
			fp = tracker.Fingerprint("mcp", "", "", "", id)
		}
	}
	s.tracker.LogRequest(fp, "mcp:"+tool, params, "mcp")
	s.tracker.LogToolUse(fp, tool)
}

func (s *Server) marketOverview(ctx context.Context, req *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	s.logTool(req, "market_overview", nil)
	overview, err := s.analytics.MarketOverview(ctx)
	if err != nil {
		return nil, nil, err
	}
	return textResult(overview)
}

func (s *Server) tokenAnalysis(ctx context.Context, req *mcp.CallToolRequest, args tokenArgs) (*mcp.CallToolResult, any, error) {
	if args.CoinID == "" {
		return nil, nil, fmt.Errorf("coin_id is required")
	}
	s.logTool(req, "token_analysis", map[string]string{"coin_id": args.CoinID})
	analysis, err := s.analytics.TokenAnalysis(ctx, args.CoinID)
	if err != nil {
		return nil, nil, err
	}
	return textResult(analysis)
}

func (s *Server) trendingCoins(ctx context.Context, req *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	s.logTool(req, "trending_coins", nil)
	trending, err := s.analytics.TrendingWithContext(ctx)
	if err != nil {
		return nil, nil, err
	}
	return textResult(trending)
}

func (s *Server) compareProtocols(ctx context.Context, req *mcp.CallToolRequest, args compareArgs) (*mcp.CallToolResult, any, error) {
	if len(args.Slugs) == 0 {
		return nil, nil, fmt.Errorf("slugs is required")
	}
	s.logTool(req, "compare_protocols", map[string]string{"count": fmt.Sprint(len(args.Slugs))})
	result, err := s.analytics.ProtocolComparison(ctx, args.Slugs)
	if err != nil {
		return nil, nil, err
	}
	return textResult(result)
}

func (s *Server) chainRankings(ctx context.Context, req *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	s.logTool(req, "chain_rankings", nil)
	ranking, err := s.analytics.ChainTVLRanking(ctx)
	if err != nil {
		return nil, nil, err
	}
	return textResult(ranking)
}

func (s *Server) defiActivity(ctx context.Context, req *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	s.logTool(req, "defi_activity", nil)
	activity, err := s.analytics.DeFiActivity(ctx)
	if err != nil {
		return nil, nil, err
	}
	return textResult(activity)
}

func (s *Server) cacheStats(ctx context.Context, req *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	s.logTool(req, "cache_stats", nil)
	return textResult(s.cache.Stats())
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
