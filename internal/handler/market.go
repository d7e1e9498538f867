package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetPrices godoc
// @Summary      Spot prices for a set of coins
// @Description  Returns cached spot prices with 24h volume and change for a comma-separated CoinGecko id list
// @Tags         market
// @Produce      json
// @Param        ids  query     string  false  "Comma-separated CoinGecko ids (defaults to the major coins)"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	prices, err := h.prices.Prices(ctx, strings.TrimSpace(c.Query("ids")))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prices)
}

// GetOverview godoc
// @Summary      Cross-source market overview
// @Description  Aggregates CoinGecko global data, DeFiLlama chain TVLs and the fear & greed index with derived ratios
// @Tags         market
// @Produce      json
// @Success      200  {object}  domain.MarketOverview
// @Failure      502  {object}  map[string]string
// @Router       /api/overview [get]
func (h *Handler) GetOverview(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-overview")
	defer span.End()

	overview, err := h.analytics.MarketOverview(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetTokenAnalysis godoc
// @Summary      Deep dive on a single token
// @Description  Combines CoinGecko coin detail with DeFiLlama protocol TVL and sentiment divergence
// @Tags         market
// @Produce      json
// @Param        id   path      string  true  "CoinGecko coin id, e.g. bitcoin"
// @Success      200  {object}  domain.TokenAnalysis
// @Failure      502  {object}  map[string]string
// @Router       /api/tokens/{id} [get]
func (h *Handler) GetTokenAnalysis(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-token-analysis")
	defer span.End()

	coinID := strings.TrimSpace(c.Param("id"))
	if coinID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing coin id"})
		return
	}

	analysis, err := h.analytics.TokenAnalysis(ctx, coinID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetTrending godoc
// @Summary      Trending coins with market context
// @Description  Returns trending search coins alongside market direction and sentiment
// @Tags         market
// @Produce      json
// @Success      200  {object}  domain.TrendingResult
// @Failure      502  {object}  map[string]string
// @Router       /api/trending [get]
func (h *Handler) GetTrending(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-trending")
	defer span.End()

	trending, err := h.analytics.TrendingWithContext(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trending)
}

// CompareProtocols godoc
// @Summary      Side-by-side protocol comparison
// @Description  Compares DeFi protocols by TVL, category and recent TVL changes
// @Tags         market
// @Produce      json
// @Param        slugs  query     string  true  "Comma-separated DeFiLlama protocol slugs"
// @Success      200  {object}  domain.ComparisonResult
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/protocols/compare [get]
func (h *Handler) CompareProtocols(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.compare-protocols")
	defer span.End()

	var slugs []string
	for _, s := range strings.Split(c.Query("slugs"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			slugs = append(slugs, s)
		}
	}
	if len(slugs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slugs query parameter is required"})
		return
	}

	result, err := h.analytics.ProtocolComparison(ctx, slugs)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetChainRanking godoc
// @Summary      Chains ranked by TVL
// @Description  Returns the top chains by locked value plus the total over every chain
// @Tags         market
// @Produce      json
// @Success      200  {object}  domain.ChainRanking
// @Failure      502  {object}  map[string]string
// @Router       /api/chains [get]
func (h *Handler) GetChainRanking(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chain-ranking")
	defer span.End()

	ranking, err := h.analytics.ChainTVLRanking(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ranking)
}

// GetDeFiActivity godoc
// @Summary      DEX volume and stablecoin activity
// @Description  Combines DeFiLlama DEX volume totals with stablecoin circulation
// @Tags         market
// @Produce      json
// @Success      200  {object}  domain.DeFiActivity
// @Failure      502  {object}  map[string]string
// @Router       /api/defi [get]
func (h *Handler) GetDeFiActivity(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-defi-activity")
	defer span.End()

	activity, err := h.analytics.DeFiActivity(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, activity)
}

// GetCacheStats godoc
// @Summary      Fetch cache statistics
// @Description  Reports how many cached upstream payloads are fresh versus stale
// @Tags         ops
// @Produce      json
// @Success      200  {object}  domain.CacheStats
// @Router       /api/cache/stats [get]
func (h *Handler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Stats())
}
