package strategies

import (
	"fmt"

	"go.uber.org/zap"
)

const calculationPeriodDays = 365

// MinMaxLastYear scores where the current price sits inside its trailing
// one-year [min, max] close range: near the bottom is a buy, near the top a
// sell.
type MinMaxLastYear struct{}

func (s *MinMaxLastYear) Key() string { return "min_max_last_year" }

// minMaxRow is the shape of the batch aggregate over price bars.
type minMaxRow struct {
	Symbol       string
	MinPrice     float64
	MaxPrice     float64
	CurrentPrice *float64
}

func (s *MinMaxLastYear) ComputeBatch(ctx Context, symbols []string) ([]Recommendation, error) {
	cutoff := ctx.AsOf.AddDate(0, 0, -calculationPeriodDays).Format(dateLayout)

	// One aggregate query across all symbols instead of a per-symbol scan.
	var rows []minMaxRow
	err := ctx.DB.Raw(`
		SELECT p.symbol AS symbol,
		       MIN(p.close) AS min_price,
		       MAX(p.close) AS max_price,
		       (SELECT p2.close FROM price_bars p2
		         WHERE p2.symbol = p.symbol
		         ORDER BY p2.date DESC LIMIT 1) AS current_price
		FROM price_bars p
		WHERE p.date >= ? AND p.symbol IN ?
		GROUP BY p.symbol`, cutoff, symbols).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("min/max aggregate query failed: %w", err)
	}

	recommendations := make([]Recommendation, 0, len(rows))
	for _, row := range rows {
		if row.CurrentPrice == nil || *row.CurrentPrice <= 0 {
			ctx.Logger.Warn("Skipping symbol, no current price", zap.String("symbol", row.Symbol))
			continue
		}
		if row.MaxPrice == row.MinPrice {
			ctx.Logger.Warn("Skipping symbol, no price variation", zap.String("symbol", row.Symbol))
			continue
		}

		percentage := (*row.CurrentPrice - row.MinPrice) / (row.MaxPrice - row.MinPrice) * 100

		recommendations = append(recommendations, Recommendation{
			Symbol:  row.Symbol,
			Verdict: Single(thresholdSignal(percentage)),
			Metadata: map[string]interface{}{
				"percentage":              fmt.Sprintf("%.2f", percentage),
				"min_price":               fmt.Sprintf("%.2f", row.MinPrice),
				"max_price":               fmt.Sprintf("%.2f", row.MaxPrice),
				"current_price":           fmt.Sprintf("%.2f", *row.CurrentPrice),
				"calculation_period_days": calculationPeriodDays,
				"buy_threshold":           buyThreshold,
				"sell_threshold":          sellThreshold,
			},
		})
	}

	return recommendations, nil
}
