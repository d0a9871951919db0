package strategies

// RSIStrategy applies oversold/overbought thresholds to the latest RSI
// value: at or below 20 is a buy, at or above 80 a sell.
type RSIStrategy struct{}

func (s *RSIStrategy) Key() string { return "rsi" }

func (s *RSIStrategy) ComputeBatch(ctx Context, symbols []string) ([]Recommendation, error) {
	recommendations := make([]Recommendation, 0, len(symbols))

	for _, symbol := range symbols {
		indicator, err := latestIndicator(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if indicator == nil || indicator.Rsi25 == nil {
			continue
		}

		value := *indicator.Rsi25
		signal := thresholdSignal(value)

		recommendations = append(recommendations, Recommendation{
			Symbol:  symbol,
			Verdict: Single(signal),
			Metadata: map[string]interface{}{
				"rsi25":       value,
				"date":        indicator.Date,
				"signal_type": string(signal),
			},
		})
	}

	return recommendations, nil
}
