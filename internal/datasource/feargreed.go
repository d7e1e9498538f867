package datasource

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cryptolens/internal/domain"
)

// FearGreed returns the latest fear & greed index reading. The upstream
// serializes the value as a string; it is normalized to an int here.
func (s *Sources) FearGreed(ctx context.Context) (domain.FearGreed, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.fear-greed")
	defer span.End()

	return cached(ctx, s, "fng", shortTTL, func(ctx context.Context) (domain.FearGreed, error) {
		var payload struct {
			Data []struct {
				Value          string `json:"value"`
				Classification string `json:"value_classification"`
				Timestamp      string `json:"timestamp"`
			} `json:"data"`
		}
		if err := s.getJSON(ctx, s.fearGreedURL+"/fng/?limit=1", &payload); err != nil {
			return domain.FearGreed{}, fmt.Errorf("fetch fear & greed: %w", err)
		}
		if len(payload.Data) == 0 {
			return domain.FearGreed{}, fmt.Errorf("fear & greed response has no rows")
		}

		row := payload.Data[0]
		value, err := strconv.Atoi(strings.TrimSpace(row.Value))
		if err != nil {
			return domain.FearGreed{}, fmt.Errorf("parse fear & greed value: %w", err)
		}
		label := row.Classification
		if label == "" {
			label = "unknown"
		}
		return domain.FearGreed{Value: value, Label: label, Timestamp: row.Timestamp}, nil
	})
}
