package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ActionDeposit  = "deposit"
	ActionWithdraw = "withdraw"
	ActionGain     = "gain"
	ActionLoss     = "loss"
)

// ValidActions lists the accepted ledger entry actions.
var ValidActions = []string{ActionDeposit, ActionWithdraw, ActionGain, ActionLoss}

// ValidCurrencies lists the currencies the cash ledger supports.
var ValidCurrencies = []string{"CAD", "USD", "EUR"}

// LedgerEntry is one append-only cash movement in a user's multi-currency
// ledger. Balances are always derived by folding entries, never stored.
type LedgerEntry struct {
	gorm.Model
	UserID   uint            `gorm:"index;not null" json:"user_id"`
	Date     string          `gorm:"not null" json:"date"` // "2006-01-02"
	Action   string          `gorm:"not null" json:"action"`
	Symbol   string          `json:"symbol,omitempty"` // empty for deposit/withdraw
	Amount   decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Currency string          `gorm:"not null" json:"currency"`
}
