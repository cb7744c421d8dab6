package datafetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yahooChartBody = `{
  "chart": {
    "result": [{
      "meta": {
        "regularMarketPrice": 150.25,
        "regularMarketVolume": 52000000,
        "chartPreviousClose": 148.50
      },
      "indicators": {
        "quote": [{
          "close": [149.1, null, 150.25],
          "volume": [100, null, 52000000]
        }]
      }
    }],
    "error": null
  }
}`

const alphaVantageBody = `{
  "Global Quote": {
    "01. symbol": "AAPL",
    "05. price": "150.2500",
    "06. volume": "52000000",
    "10. change percent": "1.1784%"
  }
}`

func testFetcher(yahooURL, alphaURL, alphaKey string) *Fetcher {
	f := NewFetcher(alphaKey)
	f.yahooBaseURL = yahooURL
	f.alphaVantageBaseURL = alphaURL
	return f
}

func TestFetchQuoteFromYahoo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/AAPL")
		w.Write([]byte(yahooChartBody))
	}))
	defer server.Close()

	f := testFetcher(server.URL, "", "")
	quote, err := f.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.True(t, quote.Price.Equal(decimal.NewFromFloat(150.25)), "price = %s", quote.Price)
	assert.EqualValues(t, 52000000, quote.Volume)
	require.True(t, quote.ChangePercent.Valid)
	change, _ := quote.ChangePercent.Decimal.Float64()
	assert.InDelta(t, 1.178, change, 0.01)
	assert.False(t, quote.Timestamp.IsZero())
}

func TestFetchQuoteFallsBackToAlphaVantage(t *testing.T) {
	yahoo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer yahoo.Close()

	alpha := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(alphaVantageBody))
	}))
	defer alpha.Close()

	f := testFetcher(yahoo.URL, alpha.URL, "test-key")
	quote, err := f.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.True(t, quote.Price.Equal(decimal.NewFromFloat(150.25)), "price = %s", quote.Price)
	assert.EqualValues(t, 52000000, quote.Volume)
	require.True(t, quote.ChangePercent.Valid)
	assert.True(t, quote.ChangePercent.Decimal.Equal(decimal.NewFromFloat(1.1784)))
}

func TestFetchQuoteUnavailableWhenAllProvidersFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := testFetcher(server.URL, server.URL, "test-key")
	_, err := f.FetchQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchQuoteUnavailableWithoutFallbackKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found","description":"No data"}}}`))
	}))
	defer server.Close()

	f := testFetcher(server.URL, "", "")
	_, err := f.FetchQuote(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchDailyClosesSkipsNullBars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(`{
		  "chart": {
		    "result": [{
		      "meta": {},
		      "indicators": {"quote": [{"close": [100.0, null, 101.5, 102.25]}]}
		    }],
		    "error": null
		  }
		}`))
	}))
	defer server.Close()

	f := testFetcher(server.URL, "", "")
	closes, err := f.FetchDailyCloses(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []float64{100.0, 101.5, 102.25}, closes)
}

func TestFetchQuoteHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := testFetcher(server.URL, "", "")
	_, err := f.FetchQuote(ctx, "AAPL")
	require.Error(t, err)
}
