package portfolio

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"portfolio-tracker-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CurrencyBalance is the derived cash position in one currency.
type CurrencyBalance struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`    // deposits + gains - losses - withdrawals
	Invested decimal.Decimal `json:"invested"` // capital tied up in open buy lots
	Treasury decimal.Decimal `json:"treasury"` // total - invested
}

// CalculateBalances folds the user's ledger entries and open buy lots into
// per-currency balances. A currency present on only one side still appears,
// with the other side at zero.
func (s *Service) CalculateBalances(userID uint) ([]CurrencyBalance, error) {
	totals, err := s.ledgerTotals(userID)
	if err != nil {
		return nil, err
	}

	invested, err := s.investedAmounts(userID)
	if err != nil {
		return nil, err
	}

	currencies := make(map[string]struct{})
	for c := range totals {
		currencies[c] = struct{}{}
	}
	for c := range invested {
		currencies[c] = struct{}{}
	}

	balances := make([]CurrencyBalance, 0, len(currencies))
	for currency := range currencies {
		total := totals[currency]
		inv := invested[currency]
		balances = append(balances, CurrencyBalance{
			Currency: currency,
			Total:    total,
			Invested: inv,
			Treasury: total.Sub(inv),
		})
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Currency < balances[j].Currency
	})

	return balances, nil
}

// TreasuryFor returns the treasury available in one currency, zero when the
// currency has no ledger entries or open positions.
func (s *Service) TreasuryFor(userID uint, currency string) (decimal.Decimal, error) {
	balances, err := s.CalculateBalances(userID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, b := range balances {
		if b.Currency == currency {
			return b.Treasury, nil
		}
	}
	return decimal.Zero, nil
}

// HasSufficientFunds reports whether the user's treasury in a currency covers
// the given amount.
func (s *Service) HasSufficientFunds(userID uint, currency string, amount decimal.Decimal) (bool, error) {
	treasury, err := s.TreasuryFor(userID, currency)
	if err != nil {
		return false, err
	}
	return treasury.GreaterThanOrEqual(amount), nil
}

// ledgerTotals folds ledger entries into a signed per-currency total.
func (s *Service) ledgerTotals(userID uint) (map[string]decimal.Decimal, error) {
	var entries []models.LedgerEntry
	if err := s.db.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		switch entry.Action {
		case models.ActionDeposit, models.ActionGain:
			totals[entry.Currency] = totals[entry.Currency].Add(entry.Amount)
		case models.ActionWithdraw, models.ActionLoss:
			totals[entry.Currency] = totals[entry.Currency].Sub(entry.Amount)
		}
	}
	return totals, nil
}

// investedAmounts sums quantity_remaining * unit_price over open buy lots,
// grouped by the instrument's currency. Sells are not subtracted here: their
// effect already reduced quantity_remaining on the matched buy lots.
func (s *Service) investedAmounts(userID uint) (map[string]decimal.Decimal, error) {
	var lots []models.Trade
	err := s.db.Where("user_id = ? AND side = ?", userID, models.SideBuy).Find(&lots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load buy lots: %w", err)
	}

	currencies, err := s.instrumentCurrencies()
	if err != nil {
		return nil, err
	}

	invested := make(map[string]decimal.Decimal)
	for _, lot := range lots {
		currency, ok := currencies[lot.Symbol]
		if !ok {
			s.log.Warn("Instrument not found for symbol, defaulting currency",
				zap.String("symbol", lot.Symbol),
				zap.String("fallback", s.fallbackCurrency))
			currency = s.fallbackCurrency
		}
		invested[currency] = invested[currency].Add(lot.QuantityRemaining.Mul(lot.UnitPrice))
	}
	return invested, nil
}

func (s *Service) instrumentCurrencies() (map[string]string, error) {
	var instruments []models.Instrument
	if err := s.db.Find(&instruments).Error; err != nil {
		return nil, fmt.Errorf("failed to load instruments: %w", err)
	}
	currencies := make(map[string]string, len(instruments))
	for _, instrument := range instruments {
		currencies[instrument.Symbol] = instrument.Currency
	}
	return currencies, nil
}

// LedgerEntryInput is the caller-facing shape of a ledger entry submission.
type LedgerEntryInput struct {
	Date     string          `json:"date"`
	Action   string          `json:"action"`
	Symbol   string          `json:"symbol,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// AddLedgerEntry validates and appends one cash movement to the ledger.
func (s *Service) AddLedgerEntry(userID uint, in LedgerEntryInput) (*models.LedgerEntry, error) {
	if !slices.Contains(models.ValidActions, in.Action) {
		return nil, &ValidationError{Reason: fmt.Sprintf("action must be one of %v", models.ValidActions)}
	}
	if !slices.Contains(models.ValidCurrencies, in.Currency) {
		return nil, &ValidationError{Reason: fmt.Sprintf("currency must be one of %v", models.ValidCurrencies)}
	}
	if !in.Amount.IsPositive() {
		return nil, &ValidationError{Reason: "amount must be greater than 0"}
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return nil, &ValidationError{Reason: "date must be formatted as YYYY-MM-DD"}
	}

	entry := &models.LedgerEntry{
		UserID:   userID,
		Date:     in.Date,
		Action:   in.Action,
		Symbol:   in.Symbol,
		Amount:   in.Amount,
		Currency: in.Currency,
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	s.log.Info("Ledger entry recorded",
		zap.Uint("user_id", userID),
		zap.String("action", entry.Action),
		zap.String("amount", entry.Amount.String()),
		zap.String("currency", entry.Currency))

	return entry, nil
}

// LedgerHistory returns the user's ledger entries, most recent first.
func (s *Service) LedgerHistory(userID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.
		Where("user_id = ?", userID).
		Order("date desc, id desc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger history: %w", err)
	}
	return entries, nil
}
