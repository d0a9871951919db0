package strategies

// EMAStrategy publishes three independent signals, one per EMA period:
// close above the EMA is a buy, below a sell, N/A while the EMA has no
// value yet. The verdict is the ordered signal list, not a single call.
type EMAStrategy struct{}

func (s *EMAStrategy) Key() string { return "ema" }

func (s *EMAStrategy) ComputeBatch(ctx Context, symbols []string) ([]Recommendation, error) {
	recommendations := make([]Recommendation, 0, len(symbols))

	for _, symbol := range symbols {
		indicator, err := latestIndicator(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if indicator == nil {
			continue
		}

		close, ok, err := closeOn(ctx, symbol, indicator.Date)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		signals := []Signal{
			emaSignal(close, indicator.Ema20),
			emaSignal(close, indicator.Ema50),
			emaSignal(close, indicator.Ema200),
		}

		recommendations = append(recommendations, Recommendation{
			Symbol:  symbol,
			Verdict: Multi(signals...),
			Metadata: map[string]interface{}{
				"close":   close,
				"ema20":   indicator.Ema20,
				"ema50":   indicator.Ema50,
				"ema200":  indicator.Ema200,
				"date":    indicator.Date,
				"signals": signals,
			},
		})
	}

	return recommendations, nil
}

func emaSignal(close float64, ema *float64) Signal {
	if ema == nil {
		return SignalNA
	}
	if close > *ema {
		return SignalBuy
	}
	return SignalSell
}
