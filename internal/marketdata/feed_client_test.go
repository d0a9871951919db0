package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a FeedClient configured to use it.
func setupTestServer(handler http.Handler) (*FeedClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	fc := &FeedClient{
		client:  resty.New().SetBaseURL(server.URL),
		apiKey:  "test_api_key",
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return fc, server
}

const dailySeriesFixture = `{
	"Meta Data": {
		"2. Symbol": "AAPL"
	},
	"Time Series (Daily)": {
		"2024-05-02": {
			"1. open": "101.50",
			"2. high": "103.00",
			"3. low": "100.25",
			"4. close": "102.75",
			"5. volume": "1200"
		},
		"2024-05-01": {
			"1. open": "100.00",
			"2. high": "101.00",
			"3. low": "99.00",
			"4. close": "100.50",
			"5. volume": "1000"
		},
		"2024-05-03": {
			"1. open": "bogus",
			"2. high": "104.00",
			"3. low": "101.00",
			"4. close": "103.00",
			"5. volume": "900"
		}
	}
}`

func TestFetchDailyBars(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/query", r.URL.Path)
			assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			assert.Equal(t, "full", r.URL.Query().Get("outputsize"))
			assert.Equal(t, "test_api_key", r.URL.Query().Get("apikey"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(dailySeriesFixture))
		})

		fc, server := setupTestServer(handler)
		defer server.Close()

		// Act
		bars, err := fc.FetchDailyBars(context.Background(), "AAPL")

		// Assert
		require.NoError(t, err)
		// The bar with the unparsable open is dropped, the rest come back
		// oldest first.
		require.Len(t, bars, 2)
		assert.Equal(t, "2024-05-01", bars[0].Date)
		assert.Equal(t, "2024-05-02", bars[1].Date)
		assert.Equal(t, 100.0, bars[0].Open)
		assert.Equal(t, 101.0, bars[0].High)
		assert.Equal(t, 99.0, bars[0].Low)
		assert.Equal(t, 100.5, bars[0].Close)
		assert.Equal(t, int64(1000), bars[0].Volume)
		assert.Equal(t, "AAPL", bars[0].Symbol)
	})

	t.Run("EmptySeries", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"Meta Data": {"2. Symbol": "AAPL"}, "Time Series (Daily)": {}}`))
		})

		fc, server := setupTestServer(handler)
		defer server.Close()

		// Act
		bars, err := fc.FetchDailyBars(context.Background(), "AAPL")

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "empty daily series")
		assert.Nil(t, bars)
	})
}

func TestParseBar(t *testing.T) {
	t.Run("MissingVolumeDefaultsToZero", func(t *testing.T) {
		bar, err := parseBar("AAPL", "2024-05-01", map[string]string{
			"1. open":  "100.00",
			"2. high":  "101.00",
			"3. low":   "99.00",
			"4. close": "100.50",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), bar.Volume)
	})

	t.Run("BadDateRejected", func(t *testing.T) {
		_, err := parseBar("AAPL", "05/01/2024", map[string]string{
			"1. open":  "100.00",
			"2. high":  "101.00",
			"3. low":   "99.00",
			"4. close": "100.50",
		})
		assert.Error(t, err)
	})
}
