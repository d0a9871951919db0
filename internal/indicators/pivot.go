package indicators

// CamarillaPivot is one support/resistance level set derived from a trailing
// window's OHLC extremes, rounded to 2 decimals.
type CamarillaPivot struct {
	Pivot float64 `json:"pivot"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	R3    float64 `json:"r3"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
	S3    float64 `json:"s3"`
}

// PivotWindows groups the Camarilla level sets computed over the week, month
// and year trailing windows. Windows without enough data are omitted.
type PivotWindows struct {
	Week  *CamarillaPivot `json:"week,omitempty"`
	Month *CamarillaPivot `json:"month,omitempty"`
	Year  *CamarillaPivot `json:"year,omitempty"`
}

// Trailing window sizes in bars and the minimum observations each needs.
const (
	weekWindow     = 7
	weekMinPoints  = 2
	monthWindow    = 30
	monthMinPoints = 5
	yearWindow     = 365
	yearMinPoints  = 30
)

// Pivots computes the pivot windows for every bar index. Slots where no
// window has enough data stay nil.
func Pivots(bars []Bar) []*PivotWindows {
	out := make([]*PivotWindows, len(bars))
	for i := range bars {
		week := windowPivot(bars, i, weekWindow, weekMinPoints)
		month := windowPivot(bars, i, monthWindow, monthMinPoints)
		year := windowPivot(bars, i, yearWindow, yearMinPoints)

		if week == nil && month == nil && year == nil {
			continue
		}
		out[i] = &PivotWindows{Week: week, Month: month, Year: year}
	}
	return out
}

// windowPivot derives the Camarilla levels from the trailing window ending at
// idx: max high, min low, first open, last close.
func windowPivot(bars []Bar, idx, windowSize, minPoints int) *CamarillaPivot {
	start := 0
	if idx >= windowSize {
		start = idx - windowSize + 1
	}
	window := bars[start : idx+1]

	if len(window) < minPoints {
		return nil
	}

	highMax := window[0].High
	lowMin := window[0].Low
	for _, b := range window[1:] {
		if b.High > highMax {
			highMax = b.High
		}
		if b.Low < lowMin {
			lowMin = b.Low
		}
	}

	return camarilla(highMax, lowMin, window[len(window)-1].Close, window[0].Open)
}

func camarilla(h, l, c, o float64) *CamarillaPivot {
	pivot := (h + l + c + o) / 4

	return &CamarillaPivot{
		Pivot: round2(pivot),
		R1:    round2(2*pivot - l),
		R2:    round2(pivot + (h - l)),
		R3:    round2(h + 2*(pivot-l)),
		S1:    round2(2*pivot - h),
		S2:    round2(pivot - (h - l)),
		S3:    round2(l - 2*(h-pivot)),
	}
}
