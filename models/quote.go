package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockQuote is a single priced observation of a symbol. Quotes are
// immutable once constructed by the data fetcher.
type StockQuote struct {
	Symbol        string              `json:"symbol" bson:"symbol"`
	Price         decimal.Decimal     `json:"price" bson:"price"`
	Volume        int64               `json:"volume" bson:"volume"`
	ChangePercent decimal.NullDecimal `json:"change_percent" bson:"change_percent"`
	Timestamp     time.Time           `json:"timestamp" bson:"timestamp"`
}

// NewStockQuote builds a quote stamped with the current time.
func NewStockQuote(symbol string, price decimal.Decimal, volume int64) *StockQuote {
	return &StockQuote{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		Timestamp: time.Now().UTC(),
	}
}
