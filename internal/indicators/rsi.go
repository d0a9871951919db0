package indicators

// RSI computes the relative strength index over a close series.
//
// The result is aligned 1:1 with closes. A value exists only once more than
// period prior observations are available; earlier slots stay nil. When the
// window shows no losses at all, RSI is exactly 100.
func RSI(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	for i := range closes {
		if i <= period {
			continue
		}
		v := rsiValue(closes[i-period:i+1], period)
		out[i] = &v
	}
	return out
}

func rsiValue(window []float64, period int) float64 {
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
