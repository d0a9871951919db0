package indicators

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"portfolio-tracker-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	rsiPeriod     = 25
	stochKPeriod  = 14
	stochKSlowing = 7

	// trailingContextDays bounds the history re-read for symbols that are
	// already caught up: enough bars behind the watermark to warm up every
	// calculator, including the year pivot window.
	trailingContextDays = 365

	dateLayout = "2006-01-02"
)

var emaPeriods = []int{20, 50, 200}

// Engine computes indicator rows from stored price bars and persists them
// per (symbol, date).
type Engine struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewEngine creates a new indicator engine.
func NewEngine(db *gorm.DB, log *zap.Logger) *Engine {
	return &Engine{db: db, log: log}
}

// BatchResult summarizes one batch computation run.
type BatchResult struct {
	Processed int `json:"processed"` // symbols committed
	Skipped   int `json:"skipped"`   // symbols that failed or had no data
	Rows      int `json:"rows"`      // indicator rows written
}

// ComputeAll computes and persists indicators for the given symbols.
//
// Symbols already present in the indicators table take the incremental path:
// only dates newer than the global watermark are recomputed, using a trailing
// history window as context. Symbols never seen before get a full backfill.
// Each symbol commits in its own transaction, so one failure does not roll
// back the others.
func (e *Engine) ComputeAll(symbols []string) (BatchResult, error) {
	var result BatchResult
	if len(symbols) == 0 {
		return result, nil
	}

	known, err := e.existingSymbols()
	if err != nil {
		return result, err
	}

	var existing, fresh []string
	for _, symbol := range symbols {
		if _, ok := known[symbol]; ok {
			existing = append(existing, symbol)
		} else {
			fresh = append(fresh, symbol)
		}
	}

	e.log.Info("Starting indicator batch",
		zap.Int("existing_symbols", len(existing)),
		zap.Int("new_symbols", len(fresh)))

	if len(existing) > 0 {
		if err := e.processExisting(existing, &result); err != nil {
			return result, err
		}
	}
	if len(fresh) > 0 {
		if err := e.processNew(fresh, &result); err != nil {
			return result, err
		}
	}

	e.log.Info("Indicator batch complete",
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("rows", result.Rows))

	return result, nil
}

// processExisting is the incremental path: recompute only dates newer than
// the watermark, with trailingContextDays of history as warm-up.
func (e *Engine) processExisting(symbols []string, result *BatchResult) error {
	watermark, err := e.watermark()
	if err != nil {
		return err
	}
	if watermark == "" {
		return nil
	}

	watermarkDate, err := time.Parse(dateLayout, watermark)
	if err != nil {
		return fmt.Errorf("invalid watermark date %q: %w", watermark, err)
	}
	cutoff := watermarkDate.AddDate(0, 0, -trailingContextDays).Format(dateLayout)

	e.log.Info("Incremental indicator pass",
		zap.String("watermark", watermark),
		zap.String("cutoff", cutoff))

	var bars []models.PriceBar
	err = e.db.
		Where("symbol IN ? AND date > ?", symbols, cutoff).
		Order("symbol asc, date asc").
		Find(&bars).Error
	if err != nil {
		return fmt.Errorf("failed to fetch price bars: %w", err)
	}

	grouped := groupBySymbol(bars)
	for _, symbol := range sortedSymbols(grouped) {
		rows := filterAfter(e.computeSeries(symbol, grouped[symbol]), watermark)
		if len(rows) == 0 {
			continue
		}
		if err := e.upsertRows(rows); err != nil {
			e.log.Error("Skipping symbol, failed to upsert indicator rows",
				zap.String("symbol", symbol), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Processed++
		result.Rows += len(rows)
	}

	return nil
}

// processNew is the full backfill path for symbols with no indicator rows yet.
func (e *Engine) processNew(symbols []string, result *BatchResult) error {
	var bars []models.PriceBar
	err := e.db.
		Where("symbol IN ?", symbols).
		Order("symbol asc, date asc").
		Find(&bars).Error
	if err != nil {
		return fmt.Errorf("failed to fetch price bars: %w", err)
	}

	grouped := groupBySymbol(bars)
	for _, symbol := range symbols {
		series, ok := grouped[symbol]
		if !ok {
			e.log.Warn("Skipping symbol, no price history", zap.String("symbol", symbol))
			result.Skipped++
			continue
		}
		rows := e.computeSeries(symbol, series)
		if len(rows) == 0 {
			result.Skipped++
			continue
		}
		if err := e.insertRows(rows); err != nil {
			e.log.Error("Skipping symbol, failed to insert indicator rows",
				zap.String("symbol", symbol), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Processed++
		result.Rows += len(rows)
	}

	return nil
}

// computeSeries runs every calculator over one symbol's bar series and
// assembles the rows worth persisting (at least one non-null metric).
func (e *Engine) computeSeries(symbol string, bars []Bar) []models.Indicator {
	closes := Closes(bars)

	rsi := RSI(closes, rsiPeriod)
	stoch := Stochastic(bars, stochKPeriod, stochKSlowing)
	pivots := Pivots(bars)

	emas := make(map[int][]*float64, len(emaPeriods))
	for _, period := range emaPeriods {
		emas[period] = EMA(closes, period)
	}

	rows := make([]models.Indicator, 0, len(bars))
	for i, bar := range bars {
		row := models.Indicator{
			Symbol:           symbol,
			Date:             bar.Date,
			Rsi25:            rounded(rsi[i]),
			Ema20:            rounded(emas[20][i]),
			Ema50:            rounded(emas[50][i]),
			Ema200:           rounded(emas[200][i]),
			Stochastic14_7_7: rounded(stoch[i]),
			PointPivot:       pivotJSON(pivots[i]),
		}
		if row.Rsi25 == nil && row.Ema20 == nil && row.Ema50 == nil &&
			row.Ema200 == nil && row.Stochastic14_7_7 == nil && row.PointPivot == nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// upsertRows writes one symbol's rows in a single transaction, updating rows
// that already exist for the (symbol, date).
func (e *Engine) upsertRows(rows []models.Indicator) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			var existing models.Indicator
			err := tx.Where("symbol = ? AND date = ?", row.Symbol, row.Date).First(&existing).Error
			switch {
			case err == nil:
				err = tx.Model(&models.Indicator{}).
					Where("symbol = ? AND date = ?", row.Symbol, row.Date).
					Updates(map[string]interface{}{
						"rsi25":            row.Rsi25,
						"ema20":            row.Ema20,
						"ema50":            row.Ema50,
						"ema200":           row.Ema200,
						"stochastic14_7_7": row.Stochastic14_7_7,
						"point_pivot":      row.PointPivot,
					}).Error
				if err != nil {
					return fmt.Errorf("failed to update indicator row %s/%s: %w", row.Symbol, row.Date, err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("failed to insert indicator row %s/%s: %w", row.Symbol, row.Date, err)
				}
			default:
				return fmt.Errorf("failed to query indicator row %s/%s: %w", row.Symbol, row.Date, err)
			}
		}
		return nil
	})
}

// insertRows writes one new symbol's rows in a single transaction.
func (e *Engine) insertRows(rows []models.Indicator) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 200).Error
	})
}

// existingSymbols returns the set of symbols already present in the
// indicators table.
func (e *Engine) existingSymbols() (map[string]struct{}, error) {
	var symbols []string
	err := e.db.Model(&models.Indicator{}).Distinct().Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list existing symbols: %w", err)
	}
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	return set, nil
}

// watermark returns the latest globally computed indicator date, empty when
// the table is empty.
func (e *Engine) watermark() (string, error) {
	var maxDate *string
	err := e.db.Model(&models.Indicator{}).Select("MAX(date)").Scan(&maxDate).Error
	if err != nil {
		return "", fmt.Errorf("failed to read indicator watermark: %w", err)
	}
	if maxDate == nil {
		return "", nil
	}
	return *maxDate, nil
}

func groupBySymbol(bars []models.PriceBar) map[string][]Bar {
	grouped := make(map[string][]Bar)
	for _, b := range bars {
		grouped[b.Symbol] = append(grouped[b.Symbol], Bar{
			Date:  b.Date,
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		})
	}
	return grouped
}

func sortedSymbols(grouped map[string][]Bar) []string {
	symbols := make([]string, 0, len(grouped))
	for s := range grouped {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

func filterAfter(rows []models.Indicator, watermark string) []models.Indicator {
	filtered := rows[:0]
	for _, row := range rows {
		if row.Date > watermark {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func rounded(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}

func pivotJSON(p *PivotWindows) *string {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}
