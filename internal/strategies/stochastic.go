package strategies

// StochasticStrategy applies oversold/overbought thresholds to the latest
// slow stochastic value, with the same 20/80 bands as the RSI strategy.
type StochasticStrategy struct{}

func (s *StochasticStrategy) Key() string { return "stochastic" }

func (s *StochasticStrategy) ComputeBatch(ctx Context, symbols []string) ([]Recommendation, error) {
	recommendations := make([]Recommendation, 0, len(symbols))

	for _, symbol := range symbols {
		indicator, err := latestIndicator(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if indicator == nil || indicator.Stochastic14_7_7 == nil {
			continue
		}

		value := *indicator.Stochastic14_7_7
		signal := thresholdSignal(value)

		recommendations = append(recommendations, Recommendation{
			Symbol:  symbol,
			Verdict: Single(signal),
			Metadata: map[string]interface{}{
				"stochastic14_7_7": value,
				"date":             indicator.Date,
				"signal_type":      string(signal),
			},
		})
	}

	return recommendations, nil
}
