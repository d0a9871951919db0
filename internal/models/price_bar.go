package models

// PriceBar is one daily OHLCV bar for a symbol, immutable once ingested.
type PriceBar struct {
	Symbol string  `gorm:"primaryKey" json:"symbol"`
	Date   string  `gorm:"primaryKey" json:"date"` // "2006-01-02"
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}
