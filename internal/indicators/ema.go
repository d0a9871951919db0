package indicators

// EMA computes the exponential moving average over a close series.
//
// The seed is the simple average of the first period closes, published at
// index period-1; every later value is close*k + prev*(1-k) with
// k = 2/(period+1). Slots before the seed stay nil.
func EMA(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if len(closes) < period {
		return out
	}

	k := 2.0 / (float64(period) + 1.0)

	var sum float64
	for _, c := range closes[:period] {
		sum += c
	}
	prev := sum / float64(period)

	seed := prev
	out[period-1] = &seed

	for i := period; i < len(closes); i++ {
		v := closes[i]*k + prev*(1-k)
		prev = v
		val := v
		out[i] = &val
	}

	return out
}
