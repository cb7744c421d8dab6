package datafetcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockstream/models"
)

func TestStoreKeepsLatestQuotePerSymbol(t *testing.T) {
	store := NewStore()
	assert.Empty(t, store.All())
	assert.Nil(t, store.Get("AAPL"))

	store.Upsert(models.NewStockQuote("AAPL", decimal.NewFromFloat(150), 100))
	store.Upsert(models.NewStockQuote("GOOGL", decimal.NewFromFloat(2750), 200))
	store.Upsert(models.NewStockQuote("AAPL", decimal.NewFromFloat(151), 300))

	require.NotNil(t, store.Get("AAPL"))
	assert.Equal(t, "151", store.Get("AAPL").Price.String())

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "AAPL", all[0].Symbol)
	assert.Equal(t, "GOOGL", all[1].Symbol)
}
