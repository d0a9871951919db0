package models

import "gorm.io/gorm"

// Instrument maps a tradable symbol to its company name and quote currency.
type Instrument struct {
	gorm.Model
	Symbol   string `gorm:"uniqueIndex;not null" json:"symbol"`
	Name     string `json:"name"`
	Currency string `gorm:"not null" json:"currency"`
	Active   bool   `gorm:"default:true" json:"active"`
}
