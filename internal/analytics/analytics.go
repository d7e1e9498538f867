package analytics

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"cryptolens/internal/datasource"
	"cryptolens/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	maxTrendingCoins    = 15
	maxCompareProtocols = 10
	maxRankedChains     = 20
	maxTopDexes         = 10
	maxTopStablecoins   = 10
)

// DataReader is the slice of the fetch cache the aggregator depends on.
type DataReader interface {
	GlobalMarket(ctx context.Context) (*datasource.GlobalMarket, error)
	CoinDetail(ctx context.Context, coinID string) (*datasource.CoinDetail, error)
	Trending(ctx context.Context) (*datasource.TrendingList, error)
	Protocols(ctx context.Context) ([]datasource.Protocol, error)
	ChainTVLs(ctx context.Context) ([]datasource.ChainTVL, error)
	ProtocolDetail(ctx context.Context, slug string) (*datasource.ProtocolDetail, error)
	DexOverview(ctx context.Context) (*datasource.DexOverview, error)
	Stablecoins(ctx context.Context) (*datasource.StablecoinList, error)
	FearGreed(ctx context.Context) (domain.FearGreed, error)
}

// Analytics combines concurrently fetched upstream data into cross-source
// metrics no single API provides.
type Analytics struct {
	tracer trace.Tracer
	data   DataReader
}

func New(tracer trace.Tracer, data DataReader) *Analytics {
	return &Analytics{tracer: tracer, data: data}
}

// excludedTVLBuckets marks per-chain TVL keys that double-count capital
// (borrowed positions, staking, pool2 incentives, vesting schedules).
var excludedTVLBuckets = []string{"borrowed", "staking", "pool2", "vesting"}

// MarketOverview fetches the global snapshot, sentiment index, protocol list
// and chain TVLs concurrently and derives the mcap/TVL ratio and sentiment
// divergence. Any of the four fetches failing fails the operation.
func (a *Analytics) MarketOverview(ctx context.Context) (*domain.MarketOverview, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.market-overview")
	defer span.End()

	var (
		global    *datasource.GlobalMarket
		fng       domain.FearGreed
		protocols []datasource.Protocol
		chains    []datasource.ChainTVL

		globalErr, fngErr, protoErr, chainsErr error
	)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); global, globalErr = a.data.GlobalMarket(ctx) }()
	go func() { defer wg.Done(); fng, fngErr = a.data.FearGreed(ctx) }()
	go func() { defer wg.Done(); protocols, protoErr = a.data.Protocols(ctx) }()
	go func() { defer wg.Done(); chains, chainsErr = a.data.ChainTVLs(ctx) }()
	wg.Wait()

	if err := firstError(globalErr, fngErr, protoErr, chainsErr); err != nil {
		return nil, err
	}
	_ = protocols // fetched alongside so follow-up token lookups hit a warm cache

	gd := global.Data
	var totalTVL float64
	for _, c := range chains {
		totalTVL += c.TVL
	}

	var ratio *float64
	if totalTVL > 0 {
		r := round2(gd.TotalMarketCap["usd"] / totalTVL)
		ratio = &r
	}

	return &domain.MarketOverview{
		TotalMarketCapUSD:      gd.TotalMarketCap["usd"],
		TotalVolume24hUSD:      gd.TotalVolume["usd"],
		MarketCapChange24hPct:  round2(gd.MarketCapChangePercentage24hUSD),
		BTCDominance:           round2(gd.MarketCapPercentage["btc"]),
		ETHDominance:           round2(gd.MarketCapPercentage["eth"]),
		ActiveCryptocurrencies: gd.ActiveCryptocurrencies,
		TotalDeFiTVLUSD:        round0(totalTVL),
		McapToTVLRatio:         ratio,
		FearGreed:              fng,
		SentimentDivergence:    SentimentDivergence(fng.Value, gd.MarketCapChangePercentage24hUSD),
	}, nil
}

// TokenAnalysis fetches coin detail and the sentiment index concurrently,
// derives the volume/mcap ratio and divergence, and best-effort matches the
// coin to a DeFi protocol for its TVL. The protocol lookup never fails the
// operation.
func (a *Analytics) TokenAnalysis(ctx context.Context, coinID string) (*domain.TokenAnalysis, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.token-analysis")
	defer span.End()

	var (
		coin    *datasource.CoinDetail
		fng     domain.FearGreed
		coinErr error
		fngErr  error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); coin, coinErr = a.data.CoinDetail(ctx, coinID) }()
	go func() { defer wg.Done(); fng, fngErr = a.data.FearGreed(ctx) }()
	wg.Wait()

	if err := firstError(coinErr, fngErr); err != nil {
		return nil, err
	}

	md := coin.MarketData
	mcap := md.MarketCap["usd"]
	vol24 := md.TotalVolume["usd"]

	var volMcapRatio *float64
	if mcap > 0 {
		r := round4(vol24 / mcap)
		volMcapRatio = &r
	}

	change24h := floatOrZero(md.PriceChangePercentage24h)

	result := &domain.TokenAnalysis{
		CoinID:              coinID,
		Name:                coin.Name,
		Symbol:              coin.Symbol,
		PriceUSD:            mapValue(md.CurrentPrice, "usd"),
		MarketCapUSD:        mcap,
		Volume24hUSD:        vol24,
		VolumeMcapRatio:     volMcapRatio,
		PriceChange24hPct:   round2(change24h),
		PriceChange7dPct:    round2(floatOrZero(md.PriceChangePercentage7d)),
		PriceChange30dPct:   round2(floatOrZero(md.PriceChangePercentage30d)),
		ATHUSD:              mapValue(md.ATH, "usd"),
		CirculatingSupply:   md.CirculatingSupply,
		TotalSupply:         md.TotalSupply,
		DeFiTVLUSD:          a.protocolTVLFor(ctx, coin),
		FearGreed:           fng,
		SentimentDivergence: SentimentDivergence(fng.Value, change24h),
	}
	if athChange := mapValue(md.ATHChangePercentage, "usd"); athChange != nil {
		r := round2(*athChange)
		result.ATHChangePct = &r
	}
	return result, nil
}

// protocolTVLFor matches a coin to a DeFi protocol by slug, then name, then
// symbol (case-insensitive exact match, in that priority order). Any failure
// is absorbed into "no match".
func (a *Analytics) protocolTVLFor(ctx context.Context, coin *datasource.CoinDetail) *float64 {
	protocols, err := a.data.Protocols(ctx)
	if err != nil {
		return nil
	}

	keys := []string{
		strings.ToLower(coin.ID),
		strings.ToLower(coin.Name),
		strings.ToLower(coin.Symbol),
	}
	fields := []func(p datasource.Protocol) string{
		func(p datasource.Protocol) string { return strings.ToLower(p.Slug) },
		func(p datasource.Protocol) string { return strings.ToLower(p.Name) },
		func(p datasource.Protocol) string { return strings.ToLower(p.Symbol) },
	}

	for i, key := range keys {
		if key == "" {
			continue
		}
		for _, p := range protocols {
			if fields[i](p) == key {
				return p.TVL
			}
		}
	}
	return nil
}

// TrendingWithContext fetches the trending list, sentiment index and global
// snapshot concurrently, classifies market direction and projects the first
// 15 trending entries.
func (a *Analytics) TrendingWithContext(ctx context.Context) (*domain.TrendingResult, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.trending-with-context")
	defer span.End()

	var (
		trending *datasource.TrendingList
		fng      domain.FearGreed
		global   *datasource.GlobalMarket

		trendErr, fngErr, globalErr error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); trending, trendErr = a.data.Trending(ctx) }()
	go func() { defer wg.Done(); fng, fngErr = a.data.FearGreed(ctx) }()
	go func() { defer wg.Done(); global, globalErr = a.data.GlobalMarket(ctx) }()
	wg.Wait()

	if err := firstError(trendErr, fngErr, globalErr); err != nil {
		return nil, err
	}

	mcapChange := global.Data.MarketCapChangePercentage24hUSD

	coins := make([]domain.TrendingCoin, 0, maxTrendingCoins)
	for _, c := range trending.Coins {
		if len(coins) == maxTrendingCoins {
			break
		}
		coins = append(coins, domain.TrendingCoin{
			ID:            c.Item.ID,
			Name:          c.Item.Name,
			Symbol:        c.Item.Symbol,
			MarketCapRank: c.Item.MarketCapRank,
			PriceBTC:      c.Item.PriceBTC,
			Score:         c.Item.Score,
		})
	}

	return &domain.TrendingResult{
		TrendingCoins:         coins,
		MarketDirection:       classifyDirection(mcapChange),
		MarketCapChange24hPct: round2(mcapChange),
		FearGreed:             fng,
	}, nil
}

func classifyDirection(mcapChangePct float64) string {
	switch {
	case mcapChangePct > 1:
		return domain.DirectionBullish
	case mcapChangePct < -1:
		return domain.DirectionBearish
	default:
		return domain.DirectionNeutral
	}
}

// ProtocolComparison compares up to 10 protocols by slug. The protocol list
// is fetched once for percentage-change data (best-effort); each slug's
// detail fetch is independent, so one failing slug yields an error marker for
// that slug only. Results preserve input order.
func (a *Analytics) ProtocolComparison(ctx context.Context, slugs []string) (*domain.ComparisonResult, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.protocol-comparison")
	defer span.End()

	if len(slugs) > maxCompareProtocols {
		slugs = slugs[:maxCompareProtocols]
	}

	changesBySlug := map[string]datasource.Protocol{}
	if list, err := a.data.Protocols(ctx); err == nil {
		for _, p := range list {
			changesBySlug[strings.ToLower(p.Slug)] = p
		}
	}

	results := make([]domain.ProtocolResult, 0, len(slugs))
	for _, slug := range slugs {
		detail, err := a.data.ProtocolDetail(ctx, slug)
		if err != nil {
			results = append(results, domain.ProtocolResult{Slug: slug, Error: "not found"})
			continue
		}

		listEntry := changesBySlug[strings.ToLower(slug)]
		results = append(results, domain.ProtocolResult{
			Slug:     slug,
			Name:     detail.Name,
			Symbol:   detail.Symbol,
			TVLUSD:   round2(primaryTVL(detail.CurrentChainTvls)),
			Chain:    detail.Chain,
			Chains:   detail.Chains,
			Category: detail.Category,
			Change1h: listEntry.Change1h,
			Change1d: listEntry.Change1d,
			Change7d: listEntry.Change7d,
			Mcap:     detail.Mcap,
			URL:      detail.URL,
		})
	}

	return &domain.ComparisonResult{Protocols: results, Count: len(results)}, nil
}

// primaryTVL sums per-chain TVL, skipping buckets that represent
// double-counted or non-primary capital.
func primaryTVL(chainTvls map[string]float64) float64 {
	var total float64
outer:
	for key, v := range chainTvls {
		lower := strings.ToLower(key)
		for _, excluded := range excludedTVLBuckets {
			if strings.Contains(lower, excluded) {
				continue outer
			}
		}
		total += v
	}
	return total
}

// ChainTVLRanking ranks all chains by TVL descending (stable, so equal-TVL
// chains keep their upstream order), returning the top 20 and the TVL sum
// across every chain.
func (a *Analytics) ChainTVLRanking(ctx context.Context) (*domain.ChainRanking, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.chain-tvl-ranking")
	defer span.End()

	chains, err := a.data.ChainTVLs(ctx)
	if err != nil {
		return nil, err
	}

	var totalTVL float64
	for _, c := range chains {
		totalTVL += c.TVL
	}

	ranked := make([]datasource.ChainTVL, len(chains))
	copy(ranked, chains)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].TVL > ranked[j].TVL })

	if len(ranked) > maxRankedChains {
		ranked = ranked[:maxRankedChains]
	}
	top := make([]domain.RankedChain, 0, len(ranked))
	for _, c := range ranked {
		top = append(top, domain.RankedChain{
			Name:        c.Name,
			TVL:         c.TVL,
			TokenSymbol: c.TokenSymbol,
			GeckoID:     c.GeckoID,
		})
	}

	return &domain.ChainRanking{Chains: top, TotalTVL: totalTVL}, nil
}

// DeFiActivity fetches DEX volumes and the stablecoin list concurrently and
// projects the top entries of each. Both fetches are required.
func (a *Analytics) DeFiActivity(ctx context.Context) (*domain.DeFiActivity, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.defi-activity")
	defer span.End()

	var (
		dex     *datasource.DexOverview
		stables *datasource.StablecoinList

		dexErr, stablesErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); dex, dexErr = a.data.DexOverview(ctx) }()
	go func() { defer wg.Done(); stables, stablesErr = a.data.Stablecoins(ctx) }()
	wg.Wait()

	if err := firstError(dexErr, stablesErr); err != nil {
		return nil, err
	}

	topDexes := make([]domain.DexVolume, 0, maxTopDexes)
	for _, p := range dex.Protocols {
		topDexes = append(topDexes, domain.DexVolume{
			Name:         p.Name,
			Volume24hUSD: floatOrZero(p.Total24h),
			Change1dPct:  p.Change1d,
		})
	}
	sort.SliceStable(topDexes, func(i, j int) bool {
		return topDexes[i].Volume24hUSD > topDexes[j].Volume24hUSD
	})
	if len(topDexes) > maxTopDexes {
		topDexes = topDexes[:maxTopDexes]
	}

	var stableTotal float64
	topStables := make([]domain.Stablecoin, 0, maxTopStablecoins)
	for _, s := range stables.PeggedAssets {
		stableTotal += s.Circulating.PeggedUSD
		topStables = append(topStables, domain.Stablecoin{
			Name:           s.Name,
			Symbol:         s.Symbol,
			PegType:        s.PegType,
			CirculatingUSD: s.Circulating.PeggedUSD,
		})
	}
	sort.SliceStable(topStables, func(i, j int) bool {
		return topStables[i].CirculatingUSD > topStables[j].CirculatingUSD
	})
	if len(topStables) > maxTopStablecoins {
		topStables = topStables[:maxTopStablecoins]
	}

	return &domain.DeFiActivity{
		DexVolume24hUSD:      floatOrZero(dex.Total24h),
		DexVolumeChange1dPct: dex.Change1d,
		DexVolumeChange7dPct: dex.Change7d,
		TopDexes:             topDexes,
		StablecoinTotalUSD:   round0(stableTotal),
		TopStablecoins:       topStables,
	}, nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func mapValue(m map[string]float64, key string) *float64 {
	if m == nil {
		return nil
	}
	v, ok := m[key]
	if !ok {
		return nil
	}
	return &v
}

func round0(v float64) float64 {
	return math.Round(v)
}
