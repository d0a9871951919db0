package marketdata

import (
	"context"
	"fmt"

	"portfolio-tracker-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ingestor pulls daily bars from the feed and persists them. Bars are
// immutable once ingested: existing (symbol, date) rows are left untouched.
type Ingestor struct {
	db     *gorm.DB
	log    *zap.Logger
	client FeedClientInterface
}

// NewIngestor creates a new price bar ingestor.
func NewIngestor(db *gorm.DB, log *zap.Logger, client FeedClientInterface) *Ingestor {
	return &Ingestor{db: db, log: log, client: client}
}

// SyncResult summarizes one ingestion run.
type SyncResult struct {
	Symbols  int `json:"symbols"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"` // symbols the feed had no data for
}

// SyncSymbols fetches and persists the daily series of every symbol. A
// symbol failing at the feed is logged and skipped, it does not abort the
// run.
func (in *Ingestor) SyncSymbols(ctx context.Context, symbols []string) (SyncResult, error) {
	var result SyncResult

	for _, symbol := range symbols {
		bars, err := in.client.FetchDailyBars(ctx, symbol)
		if err != nil {
			in.log.Warn("Skipping symbol, feed fetch failed",
				zap.String("symbol", symbol), zap.Error(err))
			result.Skipped++
			continue
		}

		inserted, err := in.persistBars(bars)
		if err != nil {
			return result, fmt.Errorf("failed to persist bars for %s: %w", symbol, err)
		}

		result.Symbols++
		result.Inserted += inserted
		in.log.Info("Symbol synced",
			zap.String("symbol", symbol),
			zap.Int("new_bars", inserted))
	}

	return result, nil
}

func (in *Ingestor) persistBars(bars []models.PriceBar) (int, error) {
	inserted := 0
	err := in.db.Transaction(func(tx *gorm.DB) error {
		for _, bar := range bars {
			var existing models.PriceBar
			err := tx.Where("symbol = ? AND date = ?", bar.Symbol, bar.Date).
				Limit(1).Find(&existing).Error
			if err != nil {
				return err
			}
			if existing.Symbol != "" {
				continue
			}
			if err := tx.Create(&bar).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	return inserted, err
}
