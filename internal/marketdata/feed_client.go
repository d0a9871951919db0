package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"portfolio-tracker-go/internal/config"
	"portfolio-tracker-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FeedClientInterface defines the interface for the daily price feed client.
type FeedClientInterface interface {
	FetchDailyBars(ctx context.Context, symbol string) ([]models.PriceBar, error)
}

// FeedClient fetches daily OHLCV bars from an Alpha Vantage style JSON API.
// It implements the FeedClientInterface.
type FeedClient struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure FeedClient implements the interface
var _ FeedClientInterface = (*FeedClient)(nil)

// NewFeedClient creates a new price feed client.
func NewFeedClient(cfg *config.Feed, logger *zap.Logger) *FeedClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &FeedClient{
		client:  client,
		apiKey:  cfg.ApiKey,
		logger:  logger,
		limiter: limiter,
	}
}

// dailySeriesResponse mirrors the feed's TIME_SERIES_DAILY payload.
type dailySeriesResponse struct {
	MetaData struct {
		Symbol string `json:"2. Symbol"`
	} `json:"Meta Data"`
	Series map[string]map[string]string `json:"Time Series (Daily)"`
}

// FetchDailyBars fetches the full daily series for one symbol, oldest first.
func (c *FeedClient) FetchDailyBars(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	req := c.client.R().
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_DAILY",
			"symbol":     symbol,
			"outputsize": "full",
			"apikey":     c.apiKey,
		}).
		SetResult(&dailySeriesResponse{})

	resp, err := c.doRequest(ctx, req, "/query")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily series for %s: %w", symbol, err)
	}

	result := resp.Result().(*dailySeriesResponse)
	if len(result.Series) == 0 {
		return nil, fmt.Errorf("empty daily series for %s", symbol)
	}

	bars := make([]models.PriceBar, 0, len(result.Series))
	for date, fields := range result.Series {
		bar, err := parseBar(symbol, date, fields)
		if err != nil {
			c.logger.Warn("Skipping unparsable bar",
				zap.String("symbol", symbol),
				zap.String("date", date),
				zap.Error(err))
			continue
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *FeedClient) doRequest(ctx context.Context, req *resty.Request, url string) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, err = req.SetContext(ctx).Get(url)
		if err == nil && resp.IsSuccess() {
			return resp, nil
		}

		if err == nil {
			err = fmt.Errorf("feed returned status %d", resp.StatusCode())
		}
		c.logger.Warn("Feed request failed, retrying",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	return nil, err
}

func parseBar(symbol, date string, fields map[string]string) (models.PriceBar, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return models.PriceBar{}, fmt.Errorf("bad date %q: %w", date, err)
	}

	open, err := strconv.ParseFloat(fields["1. open"], 64)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad open: %w", err)
	}
	high, err := strconv.ParseFloat(fields["2. high"], 64)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad high: %w", err)
	}
	low, err := strconv.ParseFloat(fields["3. low"], 64)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad low: %w", err)
	}
	close, err := strconv.ParseFloat(fields["4. close"], 64)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad close: %w", err)
	}

	// Volume is optional in some payloads.
	volume, _ := strconv.ParseInt(fields["5. volume"], 10, 64)

	return models.PriceBar{
		Symbol: symbol,
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}, nil
}
