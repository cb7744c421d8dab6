package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all recognized settings. Everything has a default; invalid
// values (not missing ones) fail startup.
type Config struct {
	Port        string
	Environment string

	// Tracked symbols and refresh cadence.
	Symbols            []string
	QuoteInterval      time.Duration
	PredictionInterval time.Duration
	FetchConcurrency   int

	// Alerting.
	MaxAlertsPerUser int
	AnnounceHours    []int

	// Subscriber fan-out.
	MaxClients  int
	SendTimeout time.Duration

	// External endpoints and credentials.
	AlphaVantageAPIKey string
	TelegramBotToken   string
	TelegramChatID     string
	MongoURI           string
	RedisURL           string
}

// LoadConfig loads settings from the environment, reading a .env file first
// when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8000"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:     getEnv("TELEGRAM_CHAT_ID", ""),
		MongoURI:           getEnv("MONGODB_URI", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
	}

	cfg.Symbols = splitList(getEnv("STOCK_SYMBOLS", "AAPL,GOOGL,MSFT,TSLA,AMZN"))
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("STOCK_SYMBOLS must list at least one symbol")
	}

	var err error
	if cfg.QuoteInterval, err = getSeconds("DATA_UPDATE_INTERVAL", 60); err != nil {
		return nil, err
	}
	if cfg.PredictionInterval, err = getSeconds("PREDICTION_INTERVAL", 300); err != nil {
		return nil, err
	}
	if cfg.SendTimeout, err = getSeconds("SEND_TIMEOUT", 10); err != nil {
		return nil, err
	}

	if cfg.FetchConcurrency, err = getPositiveInt("FETCH_CONCURRENCY", 5); err != nil {
		return nil, err
	}
	if cfg.MaxAlertsPerUser, err = getPositiveInt("MAX_ALERTS_PER_USER", 50); err != nil {
		return nil, err
	}
	if cfg.MaxClients, err = getPositiveInt("MAX_WEBSOCKET_CONNECTIONS", 1000); err != nil {
		return nil, err
	}

	if cfg.AnnounceHours, err = parseHours(getEnv("ANNOUNCE_HOURS", "9,12,16")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AnnounceAt reports whether hour is inside a configured announce window.
func (c *Config) AnnounceAt(hour int) bool {
	for _, h := range c.AnnounceHours {
		if h == hour {
			return true
		}
	}
	return false
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseHours(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	hours := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		h, err := strconv.Atoi(p)
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("ANNOUNCE_HOURS contains invalid hour %q", p)
		}
		hours = append(hours, h)
	}
	return hours, nil
}

func getSeconds(key string, def int) (time.Duration, error) {
	n, err := getPositiveInt(key, def)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func getPositiveInt(key string, def int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
