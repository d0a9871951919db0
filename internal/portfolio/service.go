package portfolio

import (
	"errors"
	"fmt"
	"time"

	"portfolio-tracker-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Service implements trade settlement and the cash ledger on top of the
// persistence store.
type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	fallbackCurrency string
}

// NewService creates a new portfolio service.
func NewService(db *gorm.DB, log *zap.Logger, fallbackCurrency string) *Service {
	if fallbackCurrency == "" {
		fallbackCurrency = "CAD"
	}
	return &Service{db: db, log: log, fallbackCurrency: fallbackCurrency}
}

// CreateTradeInput is the caller-facing shape of a trade submission.
type CreateTradeInput struct {
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Date      string          `json:"date"`
}

// CreateTrade validates and records a buy or sell trade.
//
// Buys are gated on the treasury available in the instrument's currency.
// Sells immediately settle against open buy lots FIFO; the settlement runs
// inside one transaction, so an oversized sell is rejected whole and leaves
// no lot mutated.
func (s *Service) CreateTrade(userID uint, in CreateTradeInput) (*models.Trade, error) {
	if err := validateTradeInput(in); err != nil {
		return nil, err
	}

	instrument, err := s.findInstrument(in.Symbol)
	if err != nil {
		return nil, err
	}

	totalPrice := in.Quantity.Mul(in.UnitPrice)

	if in.Side == models.SideBuy {
		treasury, err := s.TreasuryFor(userID, instrument.Currency)
		if err != nil {
			return nil, err
		}
		if treasury.LessThan(totalPrice) {
			return nil, &InsufficientFundsError{
				Currency:  instrument.Currency,
				Required:  totalPrice,
				Available: treasury,
			}
		}
	}

	quantityRemaining := decimal.Zero
	if in.Side == models.SideBuy {
		quantityRemaining = in.Quantity
	}

	trade := &models.Trade{
		UserID:            userID,
		Symbol:            in.Symbol,
		Side:              in.Side,
		Quantity:          in.Quantity,
		UnitPrice:         in.UnitPrice,
		TotalPrice:        totalPrice,
		TradeDate:         in.Date,
		QuantityRemaining: quantityRemaining,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
		if trade.Side == models.SideSell {
			return s.settleSell(tx, userID, trade)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Trade recorded",
		zap.Uint("user_id", userID),
		zap.String("symbol", trade.Symbol),
		zap.String("side", trade.Side),
		zap.String("quantity", trade.Quantity.String()),
		zap.String("unit_price", trade.UnitPrice.String()))

	return trade, nil
}

// settleSell consumes open buy lots oldest-first until the sell quantity is
// covered, emitting one closed-trade record per consumed fragment.
//
// Availability is summed before any lot is touched: if the sell cannot be
// fully covered the transaction is aborted with ShortSellError.
func (s *Service) settleSell(tx *gorm.DB, userID uint, sell *models.Trade) error {
	var buyLots []models.Trade
	err := tx.
		Where("user_id = ? AND symbol = ? AND side = ? AND quantity_remaining > 0",
			userID, sell.Symbol, models.SideBuy).
		Order("trade_date asc, id asc").
		Find(&buyLots).Error
	if err != nil {
		return fmt.Errorf("failed to load open buy lots: %w", err)
	}

	available := decimal.Zero
	for _, lot := range buyLots {
		available = available.Add(lot.QuantityRemaining)
	}
	if available.LessThan(sell.Quantity) {
		return &ShortSellError{
			Symbol:    sell.Symbol,
			Requested: sell.Quantity,
			Available: available,
		}
	}

	remaining := sell.Quantity
	for i := range buyLots {
		if !remaining.IsPositive() {
			break
		}
		lot := &buyLots[i]

		consumed := decimal.Min(remaining, lot.QuantityRemaining)

		closed := buildClosedTrade(userID, lot, sell, consumed)
		if err := tx.Create(&closed).Error; err != nil {
			return fmt.Errorf("failed to insert closed trade: %w", err)
		}

		lot.QuantityRemaining = lot.QuantityRemaining.Sub(consumed)
		err := tx.Model(&models.Trade{}).
			Where("id = ?", lot.ID).
			Update("quantity_remaining", lot.QuantityRemaining).Error
		if err != nil {
			return fmt.Errorf("failed to update buy lot %d: %w", lot.ID, err)
		}

		remaining = remaining.Sub(consumed)
	}

	return nil
}

// buildClosedTrade computes realized performance for one matched fragment.
func buildClosedTrade(userID uint, buy *models.Trade, sell *models.Trade, quantity decimal.Decimal) models.ClosedTrade {
	diff := sell.UnitPrice.Sub(buy.UnitPrice)
	gain := diff.Mul(quantity)
	pctGain := diff.Div(buy.UnitPrice).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	return models.ClosedTrade{
		ID:          fmt.Sprintf("%d_%d_%d_%d", userID, buy.ID, sell.ID, time.Now().UnixMilli()),
		UserID:      userID,
		Symbol:      buy.Symbol,
		BuyDate:     buy.TradeDate,
		BuyPrice:    buy.UnitPrice,
		SellDate:    sell.TradeDate,
		SellPrice:   sell.UnitPrice,
		Quantity:    quantity,
		PctGain:     pctGain,
		DollarGain:  gain,
		HoldingDays: holdingDays(buy.TradeDate, sell.TradeDate),
		BuyTradeID:  buy.ID,
		SellTradeID: sell.ID,
	}
}

// holdingDays returns the calendar days between two trade dates, 0 when
// either date fails to parse.
func holdingDays(buyDate, sellDate string) int {
	buy, err1 := time.Parse(dateLayout, buyDate)
	sell, err2 := time.Parse(dateLayout, sellDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(sell.Sub(buy).Hours() / 24)
}

// AvailableQuantity returns the total quantity of a symbol still held across
// open buy lots.
func (s *Service) AvailableQuantity(userID uint, symbol string) (decimal.Decimal, error) {
	var buyLots []models.Trade
	err := s.db.
		Where("user_id = ? AND symbol = ? AND side = ? AND quantity_remaining > 0",
			userID, symbol, models.SideBuy).
		Find(&buyLots).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load open buy lots: %w", err)
	}

	total := decimal.Zero
	for _, lot := range buyLots {
		total = total.Add(lot.QuantityRemaining)
	}
	return total, nil
}

// Trades returns every trade of a user, most recent first.
func (s *Service) Trades(userID uint) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.
		Where("user_id = ?", userID).
		Order("trade_date desc, id desc").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return trades, nil
}

// ClosedTrades returns the realized-performance ledger of a user, most
// recent sells first.
func (s *Service) ClosedTrades(userID uint) ([]models.ClosedTrade, error) {
	var closed []models.ClosedTrade
	err := s.db.
		Where("user_id = ?", userID).
		Order("sell_date desc, id desc").
		Find(&closed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load closed trades: %w", err)
	}
	return closed, nil
}

func (s *Service) findInstrument(symbol string) (*models.Instrument, error) {
	var instrument models.Instrument
	err := s.db.Where("symbol = ?", symbol).First(&instrument).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "instrument", Key: symbol}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up instrument %s: %w", symbol, err)
	}
	return &instrument, nil
}

func validateTradeInput(in CreateTradeInput) error {
	if in.Symbol == "" {
		return &ValidationError{Reason: "symbol is required"}
	}
	if in.Side != models.SideBuy && in.Side != models.SideSell {
		return &ValidationError{Reason: fmt.Sprintf("side must be %s or %s", models.SideBuy, models.SideSell)}
	}
	if !in.Quantity.IsPositive() {
		return &ValidationError{Reason: "quantity must be greater than 0"}
	}
	if !in.UnitPrice.IsPositive() {
		return &ValidationError{Reason: "unit price must be greater than 0"}
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return &ValidationError{Reason: "date must be formatted as YYYY-MM-DD"}
	}
	return nil
}
