package strategies

import (
	"encoding/json"
	"math"

	"portfolio-tracker-go/internal/indicators"
)

// proximityBand is the radius within which a price counts as sitting on a
// pivot level, as a fraction of the level.
const proximityBand = 0.01

// PointPivotStrategy scores the close against the stored Camarilla levels:
// nearby supports pull the score up, nearby resistances pull it down.
// Longer windows and stronger levels weigh more. A positive total is a buy,
// negative a sell, zero a hold.
type PointPivotStrategy struct{}

func (s *PointPivotStrategy) Key() string { return "point_pivot" }

func (s *PointPivotStrategy) ComputeBatch(ctx Context, symbols []string) ([]Recommendation, error) {
	recommendations := make([]Recommendation, 0, len(symbols))

	for _, symbol := range symbols {
		indicator, err := latestIndicator(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if indicator == nil || indicator.PointPivot == nil {
			continue
		}

		close, ok, err := closeOn(ctx, symbol, indicator.Date)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		var windows indicators.PivotWindows
		if err := json.Unmarshal([]byte(*indicator.PointPivot), &windows); err != nil {
			continue
		}

		totalScore := windowScore(close, windows.Year, 3) +
			windowScore(close, windows.Month, 2) +
			windowScore(close, windows.Week, 1)

		var signal Signal
		switch {
		case totalScore > 0:
			signal = SignalBuy
		case totalScore < 0:
			signal = SignalSell
		default:
			signal = SignalHold
		}

		recommendations = append(recommendations, Recommendation{
			Symbol:  symbol,
			Verdict: Single(signal),
			Metadata: map[string]interface{}{
				"close":       close,
				"total_score": totalScore,
				"signal_type": string(signal),
				"date":        indicator.Date,
				"point_pivot": json.RawMessage(*indicator.PointPivot),
			},
		})
	}

	return recommendations, nil
}

// windowScore sums level proximity hits for one pivot window: supports score
// +levelWeight, resistances -levelWeight, both scaled by the window weight.
func windowScore(close float64, pivot *indicators.CamarillaPivot, windowWeight int) int {
	if pivot == nil {
		return 0
	}

	score := 0
	supports := []struct {
		level  float64
		weight int
	}{
		{pivot.S3, 3},
		{pivot.S2, 2},
		{pivot.S1, 1},
	}
	resistances := []struct {
		level  float64
		weight int
	}{
		{pivot.R3, 3},
		{pivot.R2, 2},
		{pivot.R1, 1},
	}

	for _, s := range supports {
		if isCloseToLevel(close, s.level) {
			score += windowWeight * s.weight
		}
	}
	for _, r := range resistances {
		if isCloseToLevel(close, r.level) {
			score -= windowWeight * r.weight
		}
	}

	return score
}

func isCloseToLevel(price, level float64) bool {
	return math.Abs(price-level) <= math.Abs(level)*proximityBand
}
