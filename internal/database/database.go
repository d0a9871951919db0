package database

import (
	"fmt"

	"portfolio-tracker-go/internal/config"
	"portfolio-tracker-go/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase creates a new database connection and performs auto-migration.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema and seeds the configured instruments.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	err := db.AutoMigrate(
		&models.Instrument{},
		&models.Trade{},
		&models.ClosedTrade{},
		&models.LedgerEntry{},
		&models.PriceBar{},
		&models.Indicator{},
		&models.StrategyResult{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Populate the instruments table from the config
	for _, sym := range cfg.Symbols {
		instrument := models.Instrument{
			Symbol:   sym.Symbol,
			Name:     sym.Name,
			Currency: sym.Currency,
			Active:   true,
		}
		if err := db.FirstOrCreate(&instrument, models.Instrument{Symbol: sym.Symbol}).Error; err != nil {
			return fmt.Errorf("failed to seed instrument '%s': %w", sym.Symbol, err)
		}
	}

	return nil
}
