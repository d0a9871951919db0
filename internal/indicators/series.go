package indicators

import "math"

// Bar is one daily OHLC observation, ordered oldest-first within a series.
type Bar struct {
	Date  string
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Closes projects the close prices out of a bar series.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
