package domain

// FearGreed is the latest reading of the alternative.me fear & greed index.
// Value runs 0-100 with 50 as neutral.
type FearGreed struct {
	Value     int    `json:"value"`
	Label     string `json:"label"`
	Timestamp string `json:"timestamp"`
}

// Divergence compares market sentiment against concurrent price action.
type Divergence struct {
	Signal                string  `json:"signal"`
	DivergenceScore       float64 `json:"divergence_score"`
	Description           string  `json:"description"`
	FearGreedNormalized   float64 `json:"fear_greed_normalized"`
	PriceActionNormalized float64 `json:"price_action_normalized"`
}

const (
	SignalGreedyDespiteDrop  = "greedy_despite_drop"
	SignalFearfulDespiteRise = "fearful_despite_rise"
	SignalAligned            = "aligned"
)

// MarketOverview combines the CoinGecko global snapshot with DeFiLlama TVL
// totals and the sentiment index.
type MarketOverview struct {
	TotalMarketCapUSD      float64    `json:"total_market_cap_usd"`
	TotalVolume24hUSD      float64    `json:"total_volume_24h_usd"`
	MarketCapChange24hPct  float64    `json:"market_cap_change_24h_pct"`
	BTCDominance           float64    `json:"btc_dominance"`
	ETHDominance           float64    `json:"eth_dominance"`
	ActiveCryptocurrencies int        `json:"active_cryptocurrencies"`
	TotalDeFiTVLUSD        float64    `json:"total_defi_tvl_usd"`
	McapToTVLRatio         *float64   `json:"mcap_to_tvl_ratio"`
	FearGreed              FearGreed  `json:"fear_greed"`
	SentimentDivergence    Divergence `json:"sentiment_divergence"`
}

// TokenAnalysis is the per-coin cross-source report. DeFiTVLUSD is nil when
// the coin could not be matched to a DeFi protocol.
type TokenAnalysis struct {
	CoinID              string     `json:"coin_id"`
	Name                string     `json:"name"`
	Symbol              string     `json:"symbol"`
	PriceUSD            *float64   `json:"price_usd"`
	MarketCapUSD        float64    `json:"market_cap_usd"`
	Volume24hUSD        float64    `json:"volume_24h_usd"`
	VolumeMcapRatio     *float64   `json:"volume_mcap_ratio"`
	PriceChange24hPct   float64    `json:"price_change_24h_pct"`
	PriceChange7dPct    float64    `json:"price_change_7d_pct"`
	PriceChange30dPct   float64    `json:"price_change_30d_pct"`
	ATHUSD              *float64   `json:"ath_usd"`
	ATHChangePct        *float64   `json:"ath_change_pct"`
	CirculatingSupply   *float64   `json:"circulating_supply"`
	TotalSupply         *float64   `json:"total_supply"`
	DeFiTVLUSD          *float64   `json:"defi_tvl_usd"`
	FearGreed           FearGreed  `json:"fear_greed"`
	SentimentDivergence Divergence `json:"sentiment_divergence"`
}

type TrendingCoin struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank int     `json:"market_cap_rank"`
	PriceBTC      float64 `json:"price_btc"`
	Score         int     `json:"score"`
}

const (
	DirectionBullish = "bullish"
	DirectionBearish = "bearish"
	DirectionNeutral = "neutral"
)

type TrendingResult struct {
	TrendingCoins         []TrendingCoin `json:"trending_coins"`
	MarketDirection       string         `json:"market_direction"`
	MarketCapChange24hPct float64        `json:"market_cap_change_24h_pct"`
	FearGreed             FearGreed      `json:"fear_greed"`
}

// ProtocolResult is one entry of a protocol comparison. Either Error is set
// (the fetch failed for this slug) or the remaining fields are populated.
type ProtocolResult struct {
	Slug     string   `json:"slug"`
	Error    string   `json:"error,omitempty"`
	Name     string   `json:"name,omitempty"`
	Symbol   string   `json:"symbol,omitempty"`
	TVLUSD   float64  `json:"tvl_usd"`
	Chain    string   `json:"chain,omitempty"`
	Chains   []string `json:"chains,omitempty"`
	Category string   `json:"category,omitempty"`
	Change1h *float64 `json:"change_1h"`
	Change1d *float64 `json:"change_1d"`
	Change7d *float64 `json:"change_7d"`
	Mcap     *float64 `json:"mcap"`
	URL      string   `json:"url,omitempty"`
}

type ComparisonResult struct {
	Protocols []ProtocolResult `json:"protocols"`
	Count     int              `json:"count"`
}

type RankedChain struct {
	Name        string  `json:"name"`
	TVL         float64 `json:"tvl"`
	TokenSymbol string  `json:"tokenSymbol"`
	GeckoID     string  `json:"gecko_id"`
}

type ChainRanking struct {
	Chains   []RankedChain `json:"chains"`
	TotalTVL float64       `json:"total_tvl"`
}

type DexVolume struct {
	Name         string   `json:"name"`
	Volume24hUSD float64  `json:"volume_24h_usd"`
	Change1dPct  *float64 `json:"change_1d_pct"`
}

type Stablecoin struct {
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	PegType        string  `json:"peg_type"`
	CirculatingUSD float64 `json:"circulating_usd"`
}

// DeFiActivity combines DEX volume and stablecoin circulation into one view
// of on-chain activity.
type DeFiActivity struct {
	DexVolume24hUSD      float64      `json:"dex_volume_24h_usd"`
	DexVolumeChange1dPct *float64     `json:"dex_volume_change_1d_pct"`
	DexVolumeChange7dPct *float64     `json:"dex_volume_change_7d_pct"`
	TopDexes             []DexVolume  `json:"top_dexes"`
	StablecoinTotalUSD   float64      `json:"stablecoin_total_usd"`
	TopStablecoins       []Stablecoin `json:"top_stablecoins"`
}

// CacheStats reports fetch-cache key counts for observability.
type CacheStats struct {
	TotalKeys int `json:"total_keys"`
	Fresh     int `json:"fresh"`
	Stale     int `json:"stale"`
}
