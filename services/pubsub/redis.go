// Package pubsub publishes quote and prediction events to a Redis channel
// so services outside this process can consume the same stream. Delivery
// toward the broker is at-least-once per item and best-effort per cycle.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"stockstream/models"
)

const (
	// QuoteChannel carries one message per broadcast quote.
	QuoteChannel = "stock_updates"

	// PredictionChannel carries one message per prediction batch.
	PredictionChannel = "prediction_updates"
)

// Publisher publishes events to Redis channels.
type Publisher struct {
	client *redis.Client
}

// Connect creates a publisher from a redis:// URL and verifies the
// connection. An empty URL returns (nil, nil): publishing is disabled.
func Connect(ctx context.Context, rawURL string) (*Publisher, error) {
	if rawURL == "" {
		log.Println("REDIS_URL not set, broker publishing disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Println("Connected to Redis")
	return &Publisher{client: client}, nil
}

// Ping verifies the connection is still alive.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// PublishQuote publishes a single quote event.
func (p *Publisher) PublishQuote(ctx context.Context, quote *models.StockQuote) error {
	return p.publish(ctx, QuoteChannel, quote)
}

// PublishPredictions publishes a prediction batch.
func (p *Publisher) PublishPredictions(ctx context.Context, predictions []models.Prediction) error {
	return p.publish(ctx, PredictionChannel, predictions)
}

func (p *Publisher) publish(ctx context.Context, channel string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", channel, err)
	}
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Close releases the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
