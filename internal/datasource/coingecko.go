package datasource

import (
	"context"
	"fmt"
	"net/url"
)

// DefaultPriceIDs is the id set fetched when the caller does not pass one.
const DefaultPriceIDs = "bitcoin,ethereum,solana,cardano,avalanche-2"

// GlobalMarket is the CoinGecko /global snapshot.
type GlobalMarket struct {
	Data struct {
		ActiveCryptocurrencies          int                `json:"active_cryptocurrencies"`
		TotalMarketCap                  map[string]float64 `json:"total_market_cap"`
		TotalVolume                     map[string]float64 `json:"total_volume"`
		MarketCapPercentage             map[string]float64 `json:"market_cap_percentage"`
		MarketCapChangePercentage24hUSD float64            `json:"market_cap_change_percentage_24h_usd"`
	} `json:"data"`
}

// CoinDetail is the subset of CoinGecko /coins/{id} the aggregator consumes.
type CoinDetail struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	MarketData struct {
		CurrentPrice             map[string]float64 `json:"current_price"`
		MarketCap                map[string]float64 `json:"market_cap"`
		TotalVolume              map[string]float64 `json:"total_volume"`
		PriceChangePercentage24h *float64           `json:"price_change_percentage_24h"`
		PriceChangePercentage7d  *float64           `json:"price_change_percentage_7d"`
		PriceChangePercentage30d *float64           `json:"price_change_percentage_30d"`
		ATH                      map[string]float64 `json:"ath"`
		ATHChangePercentage      map[string]float64 `json:"ath_change_percentage"`
		CirculatingSupply        *float64           `json:"circulating_supply"`
		TotalSupply              *float64           `json:"total_supply"`
	} `json:"market_data"`
}

// TrendingList is the CoinGecko /search/trending response.
type TrendingList struct {
	Coins []struct {
		Item TrendingItem `json:"item"`
	} `json:"coins"`
}

type TrendingItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank int     `json:"market_cap_rank"`
	PriceBTC      float64 `json:"price_btc"`
	Score         int     `json:"score"`
}

// Prices returns spot prices with 24h volume/change for a comma-separated id
// list. The id list is part of the cache key so different sets never collide.
func (s *Sources) Prices(ctx context.Context, ids string) (map[string]map[string]float64, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.prices")
	defer span.End()

	if ids == "" {
		ids = DefaultPriceIDs
	}
	key := "prices:" + ids
	return cached(ctx, s, key, shortTTL, func(ctx context.Context) (map[string]map[string]float64, error) {
		u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_market_cap=true&include_24hr_vol=true&include_24hr_change=true",
			s.coingeckoURL, url.QueryEscape(ids))
		var out map[string]map[string]float64
		if err := s.getJSON(ctx, u, &out); err != nil {
			return nil, fmt.Errorf("fetch prices: %w", err)
		}
		return out, nil
	})
}

// GlobalMarket returns the global market snapshot.
func (s *Sources) GlobalMarket(ctx context.Context) (*GlobalMarket, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.global-market")
	defer span.End()

	return cached(ctx, s, "global", shortTTL, func(ctx context.Context) (*GlobalMarket, error) {
		var out GlobalMarket
		if err := s.getJSON(ctx, s.coingeckoURL+"/global", &out); err != nil {
			return nil, fmt.Errorf("fetch global market: %w", err)
		}
		return &out, nil
	})
}

// CoinDetail returns detail for one coin id.
func (s *Sources) CoinDetail(ctx context.Context, coinID string) (*CoinDetail, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.coin-detail")
	defer span.End()

	key := "coin:" + coinID
	return cached(ctx, s, key, shortTTL, func(ctx context.Context) (*CoinDetail, error) {
		u := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false&sparkline=false",
			s.coingeckoURL, url.PathEscape(coinID))
		var out CoinDetail
		if err := s.getJSON(ctx, u, &out); err != nil {
			return nil, fmt.Errorf("fetch coin detail for %s: %w", coinID, err)
		}
		return &out, nil
	})
}

// Trending returns the trending coin list.
func (s *Sources) Trending(ctx context.Context) (*TrendingList, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.trending")
	defer span.End()

	return cached(ctx, s, "trending", longTTL, func(ctx context.Context) (*TrendingList, error) {
		var out TrendingList
		if err := s.getJSON(ctx, s.coingeckoURL+"/search/trending", &out); err != nil {
			return nil, fmt.Errorf("fetch trending: %w", err)
		}
		return &out, nil
	})
}
