package portfolio

import (
	"fmt"
	"sort"

	"portfolio-tracker-go/internal/models"

	"github.com/shopspring/decimal"
)

// OpenPosition is the weighted-average-cost aggregation of a user's trades
// for one symbol. It is recomputed from the raw trade list on every call,
// never stored.
type OpenPosition struct {
	Symbol        string          `json:"symbol"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	AveragePrice  decimal.Decimal `json:"average_price"`
}

// OpenPositions folds the user's trades date-ascending into per-symbol open
// positions. Buys blend into the weighted average cost, sells only reduce
// quantity.
func (s *Service) OpenPositions(userID uint) ([]OpenPosition, error) {
	var trades []models.Trade
	err := s.db.
		Where("user_id = ?", userID).
		Order("trade_date asc, id asc").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	type accum struct {
		quantity decimal.Decimal
		avgPrice decimal.Decimal
	}
	positions := make(map[string]*accum)

	for _, t := range trades {
		entry, ok := positions[t.Symbol]
		if !ok {
			entry = &accum{quantity: decimal.Zero, avgPrice: decimal.Zero}
			positions[t.Symbol] = entry
		}

		switch t.Side {
		case models.SideBuy:
			totalCost := entry.quantity.Mul(entry.avgPrice)
			newCost := t.Quantity.Mul(t.UnitPrice)
			entry.quantity = entry.quantity.Add(t.Quantity)
			if entry.quantity.IsPositive() {
				entry.avgPrice = totalCost.Add(newCost).Div(entry.quantity)
			} else {
				entry.avgPrice = decimal.Zero
			}
		case models.SideSell:
			entry.quantity = entry.quantity.Sub(t.Quantity)
		}
	}

	result := make([]OpenPosition, 0, len(positions))
	for symbol, entry := range positions {
		if !entry.quantity.IsPositive() {
			continue
		}
		result = append(result, OpenPosition{
			Symbol:        symbol,
			TotalQuantity: entry.quantity,
			AveragePrice:  entry.avgPrice,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result, nil
}
