package strategies

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portfolio-tracker-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service runs the default strategies and persists their latest result per
// (strategy key, symbol).
type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	strategies []Strategy
}

// NewService creates a strategy service with the default strategy set.
func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log, strategies: Defaults()}
}

// RunResult summarizes one strategies run.
type RunResult struct {
	Saved   map[string]int `json:"saved"`   // recommendations saved per strategy key
	Skipped int            `json:"skipped"` // strategies that failed entirely
}

// RunDefaults executes every default strategy over the given symbols as of
// the given date and upserts the results. A strategy failing does not abort
// the others; the counts report what went through.
func (s *Service) RunDefaults(asOf time.Time, symbols []string) (RunResult, error) {
	ctx := Context{DB: s.db, Logger: s.log, AsOf: asOf}
	result := RunResult{Saved: make(map[string]int)}

	for _, strategy := range s.strategies {
		recommendations, err := strategy.ComputeBatch(ctx, symbols)
		if err != nil {
			s.log.Error("Strategy failed, skipping",
				zap.String("strategy", strategy.Key()), zap.Error(err))
			result.Skipped++
			continue
		}

		saved := 0
		for _, rec := range recommendations {
			if err := s.saveResult(strategy.Key(), asOf, rec); err != nil {
				s.log.Error("Failed to save recommendation",
					zap.String("strategy", strategy.Key()),
					zap.String("symbol", rec.Symbol),
					zap.Error(err))
				continue
			}
			saved++
		}
		result.Saved[strategy.Key()] = saved

		s.log.Info("Strategy run complete",
			zap.String("strategy", strategy.Key()),
			zap.Int("recommendations", saved))
	}

	return result, nil
}

// saveResult upserts one recommendation keyed by (strategy key, symbol),
// overwriting any previous recommendation. The results table keeps only the
// latest call per symbol per strategy.
func (s *Service) saveResult(key string, asOf time.Time, rec Recommendation) error {
	verdictJSON, err := json.Marshal(rec.Verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	date := asOf.Format(dateLayout)

	var existing models.StrategyResult
	findErr := s.db.
		Where("strategy_key = ? AND symbol = ?", key, rec.Symbol).
		First(&existing).Error

	switch {
	case findErr == nil:
		return s.db.Model(&existing).Updates(map[string]interface{}{
			"date":           date,
			"recommendation": string(verdictJSON),
			"metadata":       string(metadataJSON),
		}).Error
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		return s.db.Create(&models.StrategyResult{
			StrategyKey:    key,
			Symbol:         rec.Symbol,
			Date:           date,
			Recommendation: string(verdictJSON),
			Metadata:       string(metadataJSON),
		}).Error
	default:
		return fmt.Errorf("failed to query existing result: %w", findErr)
	}
}

// Results returns the stored latest recommendations for a symbol across all
// strategies.
func (s *Service) Results(symbol string) ([]models.StrategyResult, error) {
	var results []models.StrategyResult
	err := s.db.
		Where("symbol = ?", symbol).
		Order("strategy_key asc").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy results: %w", err)
	}
	return results, nil
}
