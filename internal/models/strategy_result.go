package models

import "gorm.io/gorm"

// StrategyResult holds the latest recommendation a strategy produced for a
// symbol. One logical row per (strategy key, symbol): recomputation
// overwrites the previous recommendation, no history is kept for the default
// strategies.
type StrategyResult struct {
	gorm.Model
	StrategyKey    string `gorm:"uniqueIndex:idx_strategy_symbol;not null" json:"strategy_key"`
	Symbol         string `gorm:"uniqueIndex:idx_strategy_symbol;not null" json:"symbol"`
	Date           string `json:"date"` // as-of date of the last computation
	Recommendation string `json:"recommendation"`
	Metadata       string `json:"metadata"` // JSON
}
