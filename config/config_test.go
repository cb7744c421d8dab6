package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN"}, cfg.Symbols)
	assert.Equal(t, 60*time.Second, cfg.QuoteInterval)
	assert.Equal(t, 300*time.Second, cfg.PredictionInterval)
	assert.Equal(t, 50, cfg.MaxAlertsPerUser)
	assert.Equal(t, []int{9, 12, 16}, cfg.AnnounceHours)
	assert.Equal(t, 10*time.Second, cfg.SendTimeout)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STOCK_SYMBOLS", "nvda, amd ,intc")
	t.Setenv("DATA_UPDATE_INTERVAL", "15")
	t.Setenv("ANNOUNCE_HOURS", "8,20")
	t.Setenv("MAX_ALERTS_PER_USER", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"NVDA", "AMD", "INTC"}, cfg.Symbols)
	assert.Equal(t, 15*time.Second, cfg.QuoteInterval)
	assert.Equal(t, []int{8, 20}, cfg.AnnounceHours)
	assert.Equal(t, 3, cfg.MaxAlertsPerUser)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("DATA_UPDATE_INTERVAL", "zero")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsInvalidHours(t *testing.T) {
	t.Setenv("ANNOUNCE_HOURS", "9,25")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsEmptySymbolList(t *testing.T) {
	t.Setenv("STOCK_SYMBOLS", " , ")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestAnnounceAt(t *testing.T) {
	cfg := &Config{AnnounceHours: []int{9, 12, 16}}
	assert.True(t, cfg.AnnounceAt(9))
	assert.True(t, cfg.AnnounceAt(16))
	assert.False(t, cfg.AnnounceAt(10))

	empty := &Config{}
	assert.False(t, empty.AnnounceAt(9))
}
