package indicators

import "math"

// Stochastic computes the slow stochastic %K oscillator: fast %K over a
// kPeriod-bar window, smoothed with a simple average of the last kSlowing
// fast %K values.
//
// The result is aligned 1:1 with bars; a value exists only from index
// kPeriod+kSlowing-1 onwards.
func Stochastic(bars []Bar, kPeriod, kSlowing int) []*float64 {
	out := make([]*float64, len(bars))
	minIdx := kPeriod + kSlowing - 1

	for i := range bars {
		if i < minIdx {
			continue
		}

		var sum float64
		for j := i - kSlowing + 1; j <= i; j++ {
			sum += fastK(bars[j-kPeriod+1 : j+1])
		}
		v := sum / float64(kSlowing)
		out[i] = &v
	}

	return out
}

// fastK = 100 * (close - lowestLow) / (highestHigh - lowestLow), and 0 when
// the window has no range at all.
func fastK(window []Bar) float64 {
	lowestLow := math.Inf(1)
	highestHigh := math.Inf(-1)
	for _, b := range window {
		lowestLow = math.Min(lowestLow, b.Low)
		highestHigh = math.Max(highestHigh, b.High)
	}

	r := highestHigh - lowestLow
	if r == 0 {
		return 0
	}
	return 100 * (window[len(window)-1].Close - lowestLow) / r
}
