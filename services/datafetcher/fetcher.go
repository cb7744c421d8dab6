// Package datafetcher pulls quotes from external market-data providers.
// Yahoo Finance is tried first, Alpha Vantage second when a key is
// configured; callers only ever see a quote or ErrUnavailable.
package datafetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockstream/models"
)

// ErrUnavailable means no provider could produce a quote for the symbol
// right now. Transient; callers skip the symbol for the cycle.
var ErrUnavailable = errors.New("quote unavailable")

const (
	defaultYahooBaseURL        = "https://query1.finance.yahoo.com"
	defaultAlphaVantageBaseURL = "https://www.alphavantage.co"
)

// Fetcher fetches quotes with provider fallback. Every request is bound by
// the caller's context.
type Fetcher struct {
	httpClient *http.Client

	yahooBaseURL        string
	alphaVantageBaseURL string
	alphaVantageAPIKey  string
}

// NewFetcher creates a fetcher. An empty alphaVantageAPIKey disables the
// fallback provider.
func NewFetcher(alphaVantageAPIKey string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		yahooBaseURL:        defaultYahooBaseURL,
		alphaVantageBaseURL: defaultAlphaVantageBaseURL,
		alphaVantageAPIKey:  alphaVantageAPIKey,
	}
}

// yahooChartResponse mirrors the Yahoo Finance chart API.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// alphaVantageQuoteResponse mirrors the GLOBAL_QUOTE endpoint. Alpha
// Vantage returns every field as a string.
type alphaVantageQuoteResponse struct {
	GlobalQuote struct {
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// FetchQuote fetches a quote for symbol, falling back across providers.
// Returns an error wrapping ErrUnavailable when every provider fails.
func (f *Fetcher) FetchQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	quote, yahooErr := f.fetchYahoo(ctx, symbol)
	if yahooErr == nil {
		return quote, nil
	}

	if f.alphaVantageAPIKey != "" {
		quote, avErr := f.fetchAlphaVantage(ctx, symbol)
		if avErr == nil {
			return quote, nil
		}
		log.Printf("Alpha Vantage fallback failed for %s: %v", symbol, avErr)
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, symbol, yahooErr)
}

// FetchDailyCloses returns up to one year of daily closing prices for
// symbol, oldest first. Used as predictor training data.
func (f *Fetcher) FetchDailyCloses(ctx context.Context, symbol string) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1y",
		f.yahooBaseURL, url.PathEscape(symbol))

	var response yahooChartResponse
	if err := f.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("%w: history for %s: %v", ErrUnavailable, symbol, err)
	}
	if response.Chart.Error != nil || len(response.Chart.Result) == 0 ||
		len(response.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no history for %s", ErrUnavailable, symbol)
	}

	series := response.Chart.Result[0].Indicators.Quote[0].Close
	closes := make([]float64, 0, len(series))
	for _, c := range series {
		if c != nil {
			closes = append(closes, *c)
		}
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("%w: empty history for %s", ErrUnavailable, symbol)
	}
	return closes, nil
}

func (f *Fetcher) fetchYahoo(ctx context.Context, symbol string) (*models.StockQuote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d",
		f.yahooBaseURL, url.PathEscape(symbol))

	var response yahooChartResponse
	if err := f.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	if response.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo returned no result for %s", symbol)
	}

	result := response.Chart.Result[0]
	price := result.Meta.RegularMarketPrice
	volume := result.Meta.RegularMarketVolume

	// Fall back to the last populated bar when the meta block is thin.
	if len(result.Indicators.Quote) > 0 {
		bars := result.Indicators.Quote[0]
		for i := len(bars.Close) - 1; i >= 0; i-- {
			if bars.Close[i] == nil {
				continue
			}
			if price <= 0 {
				price = *bars.Close[i]
			}
			if volume == 0 && i < len(bars.Volume) && bars.Volume[i] != nil {
				volume = *bars.Volume[i]
			}
			break
		}
	}
	if price <= 0 {
		return nil, fmt.Errorf("yahoo returned no price for %s", symbol)
	}

	quote := models.NewStockQuote(symbol, decimal.NewFromFloat(price), volume)
	if prev := result.Meta.ChartPreviousClose; prev > 0 {
		change := decimal.NewFromFloat((price - prev) / prev * 100)
		quote.ChangePercent = decimal.NullDecimal{Decimal: change, Valid: true}
	}
	return quote, nil
}

func (f *Fetcher) fetchAlphaVantage(ctx context.Context, symbol string) (*models.StockQuote, error) {
	endpoint := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		f.alphaVantageBaseURL, url.QueryEscape(symbol), url.QueryEscape(f.alphaVantageAPIKey))

	var response alphaVantageQuoteResponse
	if err := f.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	if response.GlobalQuote.Price == "" {
		return nil, fmt.Errorf("alpha vantage returned no quote for %s", symbol)
	}

	price, err := decimal.NewFromString(response.GlobalQuote.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price %q: %w", response.GlobalQuote.Price, err)
	}

	volume, _ := strconv.ParseInt(response.GlobalQuote.Volume, 10, 64)
	quote := models.NewStockQuote(symbol, price, volume)

	raw := strings.TrimSuffix(response.GlobalQuote.ChangePercent, "%")
	if change, err := decimal.NewFromString(raw); err == nil {
		quote.ChangePercent = decimal.NullDecimal{Decimal: change, Valid: true}
	}
	return quote, nil
}

func (f *Fetcher) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "stockstream/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
