package handler

import (
	"context"

	"cryptolens/internal/domain"
	"cryptolens/internal/tracker"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// MarketAnalyzer is the slice of the analytics service the HTTP layer needs.
type MarketAnalyzer interface {
	MarketOverview(ctx context.Context) (*domain.MarketOverview, error)
	TokenAnalysis(ctx context.Context, coinID string) (*domain.TokenAnalysis, error)
	TrendingWithContext(ctx context.Context) (*domain.TrendingResult, error)
	ProtocolComparison(ctx context.Context, slugs []string) (*domain.ComparisonResult, error)
	ChainTVLRanking(ctx context.Context) (*domain.ChainRanking, error)
	DeFiActivity(ctx context.Context) (*domain.DeFiActivity, error)
}

// PriceReader serves raw spot prices straight from the fetch cache.
type PriceReader interface {
	Prices(ctx context.Context, ids string) (map[string]map[string]float64, error)
}

// CacheStatter reports the state of the upstream fetch cache.
type CacheStatter interface {
	Stats() domain.CacheStats
}

type Handler struct {
	tracer    trace.Tracer
	analytics MarketAnalyzer
	prices    PriceReader
	cache     CacheStatter
	tracker   *tracker.Tracker
	apiKey    string
}

func New(tracer trace.Tracer, analytics MarketAnalyzer, prices PriceReader, cache CacheStatter, tr *tracker.Tracker, apiKey string) *Handler {
	return &Handler{
		tracer:    tracer,
		analytics: analytics,
		prices:    prices,
		cache:     cache,
		tracker:   tr,
		apiKey:    apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/", h.Home)

	api := r.Group("/api", Tracking(h.tracker))
	api.GET("/prices", h.GetPrices)
	api.GET("/overview", h.GetOverview)
	api.GET("/tokens/:id", h.GetTokenAnalysis)
	api.GET("/trending", h.GetTrending)
	api.GET("/protocols/compare", h.CompareProtocols)
	api.GET("/chains", h.GetChainRanking)
	api.GET("/defi", h.GetDeFiActivity)
	api.GET("/cache/stats", h.GetCacheStats)

	admin := r.Group("/api/admin", APIKeyAuth(h.apiKey))
	admin.GET("/agents", h.GetAgentSummary)
	admin.GET("/events", h.GetRecentEvents)
	admin.GET("/agents/:fingerprint", h.GetAgentJourney)
}
