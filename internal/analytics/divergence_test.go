package analytics

import (
	"testing"

	"cryptolens/internal/domain"
)

func TestSentimentDivergenceNeutral(t *testing.T) {
	d := SentimentDivergence(50, 0)
	if d.DivergenceScore != 0 {
		t.Fatalf("expected divergence 0, got %v", d.DivergenceScore)
	}
	if d.Signal != domain.SignalAligned {
		t.Fatalf("expected aligned, got %s", d.Signal)
	}
}

func TestSentimentDivergenceGreedyDespiteDrop(t *testing.T) {
	d := SentimentDivergence(90, -8)
	if d.FearGreedNormalized != 0.8 {
		t.Fatalf("expected fng_norm 0.8, got %v", d.FearGreedNormalized)
	}
	if d.PriceActionNormalized != -0.8 {
		t.Fatalf("expected price_norm -0.8, got %v", d.PriceActionNormalized)
	}
	if d.DivergenceScore != 1.6 {
		t.Fatalf("expected divergence 1.6, got %v", d.DivergenceScore)
	}
	if d.Signal != domain.SignalGreedyDespiteDrop {
		t.Fatalf("unexpected signal: %s", d.Signal)
	}
}

func TestSentimentDivergenceFearfulDespiteRise(t *testing.T) {
	d := SentimentDivergence(10, 8)
	if d.DivergenceScore != -1.6 {
		t.Fatalf("expected divergence -1.6, got %v", d.DivergenceScore)
	}
	if d.Signal != domain.SignalFearfulDespiteRise {
		t.Fatalf("unexpected signal: %s", d.Signal)
	}
}

func TestSentimentDivergenceClampsPriceChange(t *testing.T) {
	d := SentimentDivergence(50, 50)
	if d.PriceActionNormalized != 1.0 {
		t.Fatalf("expected clamped price_norm 1.0, got %v", d.PriceActionNormalized)
	}
	d = SentimentDivergence(50, -37.5)
	if d.PriceActionNormalized != -1.0 {
		t.Fatalf("expected clamped price_norm -1.0, got %v", d.PriceActionNormalized)
	}
}

func TestSentimentDivergenceRounding(t *testing.T) {
	// 47 -> fng_norm -0.06; 1.234% -> price_norm 0.1234 rounded to 0.123
	d := SentimentDivergence(47, 1.234)
	if d.FearGreedNormalized != -0.06 {
		t.Fatalf("unexpected fng_norm: %v", d.FearGreedNormalized)
	}
	if d.PriceActionNormalized != 0.123 {
		t.Fatalf("unexpected price_norm: %v", d.PriceActionNormalized)
	}
	if d.DivergenceScore != -0.183 {
		t.Fatalf("unexpected divergence: %v", d.DivergenceScore)
	}
}
