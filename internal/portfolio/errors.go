package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports invalid trade or ledger input. It is always
// returned before any mutation happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NotFoundError reports an unknown symbol or instrument.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// InsufficientFundsError is returned when a buy order exceeds the treasury
// available in the instrument's currency.
type InsufficientFundsError struct {
	Currency  string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s %s available, %s %s required (shortage: %s %s)",
		e.Available, e.Currency, e.Required, e.Currency, e.Required.Sub(e.Available), e.Currency)
}

// ShortSellError is returned when a sell exceeds the quantity held across
// open buy lots. The settlement transaction rolls back, so no lot is left
// partially consumed.
type ShortSellError struct {
	Symbol    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *ShortSellError) Error() string {
	return fmt.Sprintf("attempted to sell %s units of %s but only had enough buy positions to cover %s units, short selling is not supported",
		e.Requested, e.Symbol, e.Available)
}
