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

const dateLayout = "2006-01-02"

// Signal is one trading signal.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
	SignalNA   Signal = "N/A"
)

// Oscillator thresholds shared by the MinMax, RSI and Stochastic strategies.
const (
	buyThreshold  = 20.0
	sellThreshold = 80.0
)

// Verdict is a closed sum: either a single signal, or an ordered list of
// signals for strategies that publish one signal per metric (EMA emits one
// per period).
type Verdict struct {
	signals []Signal
	multi   bool
}

// Single wraps one signal into a verdict.
func Single(s Signal) Verdict {
	return Verdict{signals: []Signal{s}}
}

// Multi wraps an ordered signal list into a verdict.
func Multi(signals ...Signal) Verdict {
	return Verdict{signals: signals, multi: true}
}

// Signals returns the ordered signals of the verdict.
func (v Verdict) Signals() []Signal {
	return v.signals
}

// IsMulti reports whether the verdict carries a signal list.
func (v Verdict) IsMulti() bool {
	return v.multi
}

// MarshalJSON encodes a single verdict as a bare string and a multi verdict
// as an array.
func (v Verdict) MarshalJSON() ([]byte, error) {
	if v.multi {
		return json.Marshal(v.signals)
	}
	if len(v.signals) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(v.signals[0])
}

// Recommendation is one strategy's output for one symbol.
type Recommendation struct {
	Symbol   string                 `json:"symbol"`
	Verdict  Verdict                `json:"recommendation"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Context carries the shared dependencies and the explicit as-of date into a
// strategy run. Strategies never consult the clock themselves.
type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger
	AsOf   time.Time
}

// Strategy is one recommendation engine over the stored indicator and price
// rows. Each implementation is free to batch its reads however it wants.
type Strategy interface {
	// Key returns the stable identifier results are stored under.
	Key() string

	// ComputeBatch emits one recommendation per symbol it can evaluate;
	// symbols it cannot evaluate are silently skipped.
	ComputeBatch(ctx Context, symbols []string) ([]Recommendation, error)
}

// Defaults returns the built-in strategies, in their run order.
func Defaults() []Strategy {
	return []Strategy{
		&MinMaxLastYear{},
		&RSIStrategy{},
		&StochasticStrategy{},
		&EMAStrategy{},
		&PointPivotStrategy{},
	}
}

// thresholdSignal maps an oscillator-style value in [0, 100] to a signal.
func thresholdSignal(value float64) Signal {
	switch {
	case value <= buyThreshold:
		return SignalBuy
	case value >= sellThreshold:
		return SignalSell
	default:
		return SignalHold
	}
}

// latestIndicator returns the most recent indicator row for a symbol, nil
// when the symbol has none.
func latestIndicator(ctx Context, symbol string) (*models.Indicator, error) {
	var row models.Indicator
	err := ctx.DB.
		Where("symbol = ?", symbol).
		Order("date desc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch indicator for %s: %w", symbol, err)
	}
	return &row, nil
}

// closeOn returns the close price of a symbol on a given date, false when no
// bar exists.
func closeOn(ctx Context, symbol, date string) (float64, bool, error) {
	var bar models.PriceBar
	err := ctx.DB.
		Where("symbol = ? AND date = ?", symbol, date).
		First(&bar).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch price bar for %s/%s: %w", symbol, date, err)
	}
	return bar.Close, true, nil
}
