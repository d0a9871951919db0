package models

import "github.com/shopspring/decimal"

// ClosedTrade records one matched (buy-lot fragment, sell) pair produced by
// FIFO settlement. A single sell may generate several of these when it drains
// several buy lots. Rows are immutable once created: this table is the
// append-only ledger of realized performance.
type ClosedTrade struct {
	ID          string          `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index;not null" json:"user_id"`
	Symbol      string          `gorm:"index;not null" json:"symbol"`
	BuyDate     string          `json:"buy_date"`
	BuyPrice    decimal.Decimal `gorm:"type:numeric" json:"buy_price"`
	SellDate    string          `json:"sell_date"`
	SellPrice   decimal.Decimal `gorm:"type:numeric" json:"sell_price"`
	Quantity    decimal.Decimal `gorm:"type:numeric" json:"quantity"`
	PctGain     int64           `json:"pct_gain"`
	DollarGain  decimal.Decimal `gorm:"type:numeric" json:"dollar_gain"`
	HoldingDays int             `json:"holding_days"`
	BuyTradeID  uint            `json:"buy_trade_id"`
	SellTradeID uint            `json:"sell_trade_id"`
}
