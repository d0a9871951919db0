package indicators

import (
	"math"
	"testing"
	"time"

	"portfolio-tracker-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupEngineTest creates an isolated in-memory database for engine runs.
func setupEngineTest(t *testing.T) (*gorm.DB, *Engine) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.PriceBar{}, &models.Indicator{})
	require.NoError(t, err)

	return db, NewEngine(db, zap.NewNop())
}

// seedBars inserts count sequential daily bars for a symbol starting at the
// given date and returns the last date written.
func seedBars(t *testing.T, db *gorm.DB, symbol, startDate string, count int) string {
	start, err := time.Parse("2006-01-02", startDate)
	require.NoError(t, err)

	var last string
	for i := 0; i < count; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		v := 100 + float64(i)
		require.NoError(t, db.Create(&models.PriceBar{
			Symbol: symbol,
			Date:   date,
			Open:   v,
			High:   v + 2,
			Low:    v - 2,
			Close:  v + 1,
			Volume: 1000,
		}).Error)
		last = date
	}
	return last
}

func TestComputeAll_NewSymbolBackfill(t *testing.T) {
	db, engine := setupEngineTest(t)
	seedBars(t, db, "AAPL", "2024-01-01", 40)

	result, err := engine.ComputeAll([]string{"AAPL"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Skipped)
	// The first bar yields no metric at all; every later bar has at least
	// the week pivot.
	assert.Equal(t, 39, result.Rows)

	var rows []models.Indicator
	require.NoError(t, db.Order("date asc").Find(&rows).Error)
	require.Len(t, rows, 39)

	// Second trading day: only the pivot exists yet.
	first := rows[0]
	assert.Equal(t, "2024-01-02", first.Date)
	assert.Nil(t, first.Rsi25)
	assert.Nil(t, first.Ema20)
	assert.Nil(t, first.Stochastic14_7_7)
	assert.NotNil(t, first.PointPivot)
	assert.Contains(t, *first.PointPivot, `"week"`)
	assert.NotContains(t, *first.PointPivot, `"year"`)

	// Last row: RSI(25) and EMA(20) have warmed up, EMA(200) has not.
	last := rows[len(rows)-1]
	assert.NotNil(t, last.Rsi25)
	assert.NotNil(t, last.Ema20)
	assert.Nil(t, last.Ema200)
	assert.NotNil(t, last.Stochastic14_7_7)

	// Monotonic close series: every move is a gain.
	assert.Equal(t, 100.0, *last.Rsi25)
}

func TestComputeAll_NoPriceHistoryIsSkipped(t *testing.T) {
	_, engine := setupEngineTest(t)

	result, err := engine.ComputeAll([]string{"GHOST"})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Rows)
}

func TestComputeAll_IncrementalWritesOnlyNewDates(t *testing.T) {
	db, engine := setupEngineTest(t)
	watermark := seedBars(t, db, "AAPL", "2024-01-01", 40)

	_, err := engine.ComputeAll([]string{"AAPL"})
	require.NoError(t, err)

	// Three more trading days arrive.
	next, err := time.Parse("2006-01-02", watermark)
	require.NoError(t, err)
	seedBars(t, db, "AAPL", next.AddDate(0, 0, 1).Format("2006-01-02"), 3)

	result, err := engine.ComputeAll([]string{"AAPL"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 3, result.Rows)

	var count int64
	db.Model(&models.Indicator{}).Count(&count)
	assert.Equal(t, int64(42), count)

	// No duplicate (symbol, date) rows.
	var perDate int64
	db.Model(&models.Indicator{}).Where("symbol = ? AND date = ?", "AAPL", watermark).Count(&perDate)
	assert.Equal(t, int64(1), perDate)
}

func TestComputeAll_RerunWithoutNewBarsIsIdempotent(t *testing.T) {
	db, engine := setupEngineTest(t)
	seedBars(t, db, "AAPL", "2024-01-01", 40)

	_, err := engine.ComputeAll([]string{"AAPL"})
	require.NoError(t, err)

	result, err := engine.ComputeAll([]string{"AAPL"})
	require.NoError(t, err)

	// Everything is at or behind the watermark: nothing to write.
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Rows)

	var count int64
	db.Model(&models.Indicator{}).Count(&count)
	assert.Equal(t, int64(39), count)
}

func TestComputeAll_MixedNewAndExistingSymbols(t *testing.T) {
	db, engine := setupEngineTest(t)
	seedBars(t, db, "AAPL", "2024-01-01", 40)

	_, err := engine.ComputeAll([]string{"AAPL"})
	require.NoError(t, err)

	// A brand-new symbol with bars covering the same range plus newer dates.
	seedBars(t, db, "MSFT", "2024-01-01", 43)

	result, err := engine.ComputeAll([]string{"AAPL", "MSFT"})
	require.NoError(t, err)

	// AAPL has nothing new; MSFT backfills in full.
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 42, result.Rows)

	var symbols []string
	require.NoError(t, db.Model(&models.Indicator{}).Distinct().Pluck("symbol", &symbols).Error)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestComputeAll_EmptySymbolList(t *testing.T) {
	_, engine := setupEngineTest(t)

	result, err := engine.ComputeAll(nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{}, result)
}

func TestComputeAll_ValuesRoundedForStorage(t *testing.T) {
	db, engine := setupEngineTest(t)

	// Closes engineered so the stochastic smoothing produces a long fraction.
	start, err := time.Parse("2006-01-02", "2024-01-01")
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		v := 100 + float64(i)*1.37
		require.NoError(t, db.Create(&models.PriceBar{
			Symbol: "AAPL",
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   v,
			High:   v + 3.11,
			Low:    v - 2.07,
			Close:  v + 0.53,
			Volume: 500,
		}).Error)
	}

	_, err = engine.ComputeAll([]string{"AAPL"})
	require.NoError(t, err)

	var rows []models.Indicator
	require.NoError(t, db.Where("stochastic14_7_7 IS NOT NULL").Find(&rows).Error)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		v := *row.Stochastic14_7_7
		assert.Equal(t, math.Round(v*100)/100, v,
			"stored value %v should carry at most 2 decimals", v)
	}
}
