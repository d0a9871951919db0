package portfolio

import (
	"testing"

	"portfolio-tracker-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPositions_BuysBlendAverageCost(t *testing.T) {
	_, svc := setupTest(t)
	deposit(t, svc, 1, 10000, "CAD")

	buy(t, svc, 1, "SHOP.TO", 10, 50, "2024-01-01")
	buy(t, svc, 1, "SHOP.TO", 5, 55, "2024-01-03")

	positions, err := svc.OpenPositions(1)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	p := positions[0]
	assert.Equal(t, "SHOP.TO", p.Symbol)
	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(15)))
	// (500 + 275) / 15
	assert.True(t, p.AveragePrice.Round(2).Equal(decimal.NewFromFloat(51.67)))
}

func TestOpenPositions_SellReducesQuantityNotAverage(t *testing.T) {
	_, svc := setupTest(t)
	deposit(t, svc, 1, 10000, "CAD")

	buy(t, svc, 1, "SHOP.TO", 10, 50, "2024-01-01")

	_, err := svc.CreateTrade(1, CreateTradeInput{
		Symbol:    "SHOP.TO",
		Side:      models.SideSell,
		Quantity:  decimal.NewFromInt(4),
		UnitPrice: decimal.NewFromInt(80),
		Date:      "2024-01-05",
	})
	require.NoError(t, err)

	positions, err := svc.OpenPositions(1)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].TotalQuantity.Equal(decimal.NewFromInt(6)))
	assert.True(t, positions[0].AveragePrice.Equal(decimal.NewFromInt(50)))
}

func TestOpenPositions_ClosedPositionDisappears(t *testing.T) {
	_, svc := setupTest(t)
	deposit(t, svc, 1, 10000, "CAD")

	buy(t, svc, 1, "SHOP.TO", 5, 50, "2024-01-01")

	_, err := svc.CreateTrade(1, CreateTradeInput{
		Symbol:    "SHOP.TO",
		Side:      models.SideSell,
		Quantity:  decimal.NewFromInt(5),
		UnitPrice: decimal.NewFromInt(60),
		Date:      "2024-01-05",
	})
	require.NoError(t, err)

	positions, err := svc.OpenPositions(1)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestOpenPositions_SortedBySymbol(t *testing.T) {
	_, svc := setupTest(t)
	deposit(t, svc, 1, 10000, "CAD")
	deposit(t, svc, 1, 10000, "USD")

	buy(t, svc, 1, "SHOP.TO", 2, 50, "2024-01-01")
	buy(t, svc, 1, "AAPL", 3, 100, "2024-01-02")

	positions, err := svc.OpenPositions(1)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.Equal(t, "SHOP.TO", positions[1].Symbol)
}
