package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade represents a single buy or sell lot in the database.
//
// For BUY lots QuantityRemaining starts at Quantity and is decremented as
// later sells consume the lot. For SELL lots it is always zero: sells are
// settled immediately and never held as inventory. Lots are never deleted,
// they are the audit trail of the portfolio.
type Trade struct {
	gorm.Model
	UserID            uint            `gorm:"index:idx_trades_user_symbol;not null" json:"user_id"`
	Symbol            string          `gorm:"index:idx_trades_user_symbol;not null" json:"symbol"`
	Side              string          `gorm:"not null" json:"side"` // "BUY" or "SELL"
	Quantity          decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:numeric;not null" json:"unit_price"`
	TotalPrice        decimal.Decimal `gorm:"type:numeric;not null" json:"total_price"`
	TradeDate         string          `gorm:"not null" json:"trade_date"` // "2006-01-02"
	QuantityRemaining decimal.Decimal `gorm:"type:numeric;not null" json:"quantity_remaining"`
}
