package models

// Indicator holds the computed technical indicators for one (symbol, date).
// Metric columns are nullable: a metric stays NULL until the symbol has
// enough history for it. Rows are upserted, recomputation overwrites values
// in place.
type Indicator struct {
	Symbol           string   `gorm:"primaryKey" json:"symbol"`
	Date             string   `gorm:"primaryKey" json:"date"` // "2006-01-02"
	Rsi25            *float64 `json:"rsi25"`
	Ema20            *float64 `json:"ema20"`
	Ema50            *float64 `json:"ema50"`
	Ema200           *float64 `json:"ema200"`
	Stochastic14_7_7 *float64 `gorm:"column:stochastic14_7_7" json:"stochastic14_7_7"`
	PointPivot       *string  `json:"point_pivot"` // nested JSON keyed by window name
}
