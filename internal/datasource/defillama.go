package datasource

import (
	"context"
	"fmt"
	"net/url"
)

// Protocol is one row of the DeFiLlama /protocols list.
type Protocol struct {
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	TVL      *float64 `json:"tvl"`
	Chain    string   `json:"chain"`
	Chains   []string `json:"chains"`
	Category string   `json:"category"`
	Change1h *float64 `json:"change_1h"`
	Change1d *float64 `json:"change_1d"`
	Change7d *float64 `json:"change_7d"`
}

// ChainTVL is one row of the DeFiLlama /v2/chains list.
type ChainTVL struct {
	Name        string  `json:"name"`
	TVL         float64 `json:"tvl"`
	TokenSymbol string  `json:"tokenSymbol"`
	GeckoID     string  `json:"gecko_id"`
}

// ProtocolDetail is the subset of DeFiLlama /protocol/{slug} the aggregator
// consumes. CurrentChainTvls maps chain (or chain-bucket) name to TVL.
type ProtocolDetail struct {
	Name             string             `json:"name"`
	Symbol           string             `json:"symbol"`
	Chain            string             `json:"chain"`
	Chains           []string           `json:"chains"`
	Category         string             `json:"category"`
	Mcap             *float64           `json:"mcap"`
	URL              string             `json:"url"`
	CurrentChainTvls map[string]float64 `json:"currentChainTvls"`
}

// DexOverview is a trimmed view of DeFiLlama /overview/dexs.
type DexOverview struct {
	Total24h  *float64      `json:"total24h"`
	Change1d  *float64      `json:"change_1d"`
	Change7d  *float64      `json:"change_7d"`
	Protocols []DexProtocol `json:"protocols"`
}

type DexProtocol struct {
	Name     string   `json:"name"`
	Total24h *float64 `json:"total24h"`
	Change1d *float64 `json:"change_1d"`
}

// StablecoinList is a trimmed view of DeFiLlama /stablecoins.
type StablecoinList struct {
	PeggedAssets []PeggedAsset `json:"peggedAssets"`
}

type PeggedAsset struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	PegType     string      `json:"pegType"`
	Circulating Circulating `json:"circulating"`
}

type Circulating struct {
	PeggedUSD float64 `json:"peggedUSD"`
}

// Protocols returns the full DeFi protocol list.
func (s *Sources) Protocols(ctx context.Context) ([]Protocol, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.protocols")
	defer span.End()

	return cached(ctx, s, "protocols", longTTL, func(ctx context.Context) ([]Protocol, error) {
		var out []Protocol
		if err := s.getJSON(ctx, s.defillamaURL+"/protocols", &out); err != nil {
			return nil, fmt.Errorf("fetch protocols: %w", err)
		}
		return out, nil
	})
}

// ChainTVLs returns per-chain TVL for every chain DeFiLlama tracks.
func (s *Sources) ChainTVLs(ctx context.Context) ([]ChainTVL, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.chain-tvls")
	defer span.End()

	return cached(ctx, s, "chains", longTTL, func(ctx context.Context) ([]ChainTVL, error) {
		var out []ChainTVL
		if err := s.getJSON(ctx, s.defillamaURL+"/v2/chains", &out); err != nil {
			return nil, fmt.Errorf("fetch chain TVLs: %w", err)
		}
		return out, nil
	})
}

// ProtocolDetail returns detail for one protocol slug.
func (s *Sources) ProtocolDetail(ctx context.Context, slug string) (*ProtocolDetail, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.protocol-detail")
	defer span.End()

	key := "protocol:" + slug
	return cached(ctx, s, key, longTTL, func(ctx context.Context) (*ProtocolDetail, error) {
		var out ProtocolDetail
		if err := s.getJSON(ctx, s.defillamaURL+"/protocol/"+url.PathEscape(slug), &out); err != nil {
			return nil, fmt.Errorf("fetch protocol detail for %s: %w", slug, err)
		}
		return &out, nil
	})
}

// DexOverview returns aggregate DEX volume figures.
func (s *Sources) DexOverview(ctx context.Context) (*DexOverview, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.dex-overview")
	defer span.End()

	return cached(ctx, s, "dex_overview", longTTL, func(ctx context.Context) (*DexOverview, error) {
		var out DexOverview
		if err := s.getJSON(ctx, s.defillamaURL+"/overview/dexs", &out); err != nil {
			return nil, fmt.Errorf("fetch dex overview: %w", err)
		}
		return &out, nil
	})
}

// Stablecoins returns the tracked stablecoin list with circulating amounts.
func (s *Sources) Stablecoins(ctx context.Context) (*StablecoinList, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.stablecoins")
	defer span.End()

	return cached(ctx, s, "stablecoins", longTTL, func(ctx context.Context) (*StablecoinList, error) {
		var out StablecoinList
		if err := s.getJSON(ctx, s.defillamaURL+"/stablecoins", &out); err != nil {
			return nil, fmt.Errorf("fetch stablecoins: %w", err)
		}
		return &out, nil
	})
}
