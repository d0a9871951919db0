package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"portfolio-tracker-go/internal/indicators"
	"portfolio-tracker-go/internal/marketdata"
	"portfolio-tracker-go/internal/portfolio"
	"portfolio-tracker-go/internal/strategies"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log        *zap.Logger
	db         *gorm.DB
	portfolio  *portfolio.Service
	indicators *indicators.Engine
	strategies *strategies.Service
	ingestor   *marketdata.Ingestor
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(
	log *zap.Logger,
	db *gorm.DB,
	portfolioSvc *portfolio.Service,
	indicatorEngine *indicators.Engine,
	strategySvc *strategies.Service,
	ingestor *marketdata.Ingestor,
) *APIHandler {
	return &APIHandler{
		log:        log,
		db:         db,
		portfolio:  portfolioSvc,
		indicators: indicatorEngine,
		strategies: strategySvc,
		ingestor:   ingestor,
	}
}

// userID extracts the authenticated user id set by the fronting auth layer.
func userID(r *http.Request) (uint, bool) {
	raw := r.Header.Get("X-User-ID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeDomainError maps the portfolio error taxonomy onto HTTP statuses and
// the structured message the caller sees.
func (h *APIHandler) writeDomainError(w http.ResponseWriter, err error) {
	var validation *portfolio.ValidationError
	var notFound *portfolio.NotFoundError
	var insufficient *portfolio.InsufficientFundsError
	var shortSell *portfolio.ShortSellError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &insufficient), errors.As(err, &shortSell):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.log.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// TradesHandler lists a user's trades (GET) or submits a new one (POST).
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid X-User-ID"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		trades, err := h.portfolio.Trades(uid)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, trades)

	case http.MethodPost:
		var input portfolio.CreateTradeInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		trade, err := h.portfolio.CreateTrade(uid, input)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, trade)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ClosedTradesHandler lists a user's realized trades.
func (h *APIHandler) ClosedTradesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid X-User-ID"})
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	closed, err := h.portfolio.ClosedTrades(uid)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closed)
}

// OpenPositionsHandler returns the user's FIFO-aggregated open positions.
func (h *APIHandler) OpenPositionsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid X-User-ID"})
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	positions, err := h.portfolio.OpenPositions(uid)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// LedgerHandler lists a user's cash ledger (GET) or appends an entry (POST).
func (h *APIHandler) LedgerHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid X-User-ID"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		entries, err := h.portfolio.LedgerHistory(uid)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)

	case http.MethodPost:
		var input portfolio.LedgerEntryInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		entry, err := h.portfolio.AddLedgerEntry(uid, input)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// BalancesHandler returns per-currency total/invested/treasury balances.
func (h *APIHandler) BalancesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid X-User-ID"})
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	balances, err := h.portfolio.CalculateBalances(uid)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

type symbolsRequest struct {
	Symbols []string `json:"symbols"`
}

// SyncHandler ingests daily price bars for the given symbols.
func (h *APIHandler) SyncHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req symbolsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Symbols) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbols list is required"})
		return
	}

	result, err := h.ingestor.SyncSymbols(r.Context(), req.Symbols)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecomputeHandler runs the indicator pipeline and then the default
// strategies for the given symbols, returning the counts of both stages.
func (h *APIHandler) RecomputeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req symbolsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Symbols) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbols list is required"})
		return
	}

	indicatorResult, err := h.indicators.ComputeAll(req.Symbols)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	strategyResult, err := h.strategies.RunDefaults(time.Now(), req.Symbols)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"indicators": indicatorResult,
		"strategies": strategyResult,
	})
}
