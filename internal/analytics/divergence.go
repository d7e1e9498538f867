package analytics

import (
	"math"

	"cryptolens/internal/domain"
)

// divergenceThreshold is the normalized gap beyond which sentiment and price
// action are considered contradictory.
const divergenceThreshold = 0.4

// SentimentDivergence flags contradictions between the fear & greed index and
// concurrent price action. The index value (0-100, 50 neutral) maps to
// [-1, +1]; the price change percentage is clamped to [-10, +10] and mapped to
// the same range. Their difference is the divergence score.
func SentimentDivergence(fngValue int, priceChangePct float64) domain.Divergence {
	fngNorm := float64(fngValue-50) / 50

	clamped := math.Max(-10, math.Min(10, priceChangePct))
	priceNorm := clamped / 10

	divergence := round3(fngNorm - priceNorm)

	var signal, desc string
	switch {
	case divergence > divergenceThreshold:
		signal = domain.SignalGreedyDespiteDrop
		desc = "Market sentiment is greedy while prices are falling - potential complacency"
	case divergence < -divergenceThreshold:
		signal = domain.SignalFearfulDespiteRise
		desc = "Market sentiment is fearful while prices are rising - potential opportunity"
	default:
		signal = domain.SignalAligned
		desc = "Sentiment and price action are broadly aligned"
	}

	return domain.Divergence{
		Signal:                signal,
		DivergenceScore:       divergence,
		Description:           desc,
		FearGreedNormalized:   round3(fngNorm),
		PriceActionNormalized: round3(priceNorm),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
