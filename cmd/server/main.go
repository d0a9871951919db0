package main

import (
	"fmt"
	"net/http"
	"os"

	"portfolio-tracker-go/internal/config"
	"portfolio-tracker-go/internal/database"
	"portfolio-tracker-go/internal/indicators"
	"portfolio-tracker-go/internal/logger"
	"portfolio-tracker-go/internal/marketdata"
	"portfolio-tracker-go/internal/portfolio"
	"portfolio-tracker-go/internal/strategies"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Connect to the database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize the price feed client
	feedClient := marketdata.NewFeedClient(&cfg.Feed, log)

	// Wire the core services
	portfolioSvc := portfolio.NewService(db, log, cfg.Portfolio.FallbackCurrency)
	indicatorEngine := indicators.NewEngine(db, log)
	strategySvc := strategies.NewService(db, log)
	ingestor := marketdata.NewIngestor(db, log, feedClient)

	// Setup HTTP server
	mux := http.NewServeMux()
	apiHandler := NewAPIHandler(log, db, portfolioSvc, indicatorEngine, strategySvc, ingestor)

	mux.HandleFunc("/api/trades", apiHandler.TradesHandler)
	mux.HandleFunc("/api/trades/closed", apiHandler.ClosedTradesHandler)
	mux.HandleFunc("/api/positions", apiHandler.OpenPositionsHandler)
	mux.HandleFunc("/api/ledger", apiHandler.LedgerHandler)
	mux.HandleFunc("/api/balances", apiHandler.BalancesHandler)
	mux.HandleFunc("/api/admin/sync", apiHandler.SyncHandler)
	mux.HandleFunc("/api/admin/recompute", apiHandler.RecomputeHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting API server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("API server failed", zap.Error(err))
	}
}
