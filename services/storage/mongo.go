// Package storage archives quotes, triggered alerts and prediction batches
// in MongoDB. The archive is best-effort: the streaming core never depends
// on a write succeeding.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockstream/models"
)

const (
	databaseName          = "stockstream"
	quotesCollection      = "quotes"
	alertLogCollection    = "triggered_alerts"
	predictionsCollection = "predictions"
)

// Archive wraps the MongoDB connection and collections.
type Archive struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect establishes the MongoDB connection and verifies it with a ping.
// An empty URI returns (nil, nil): the archive is simply disabled.
func Connect(ctx context.Context, uri string) (*Archive, error) {
	if uri == "" {
		log.Println("MONGODB_URI not set, archive disabled")
		return nil, nil
	}

	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	log.Println("Connected to MongoDB")
	return &Archive{
		client:   client,
		database: client.Database(databaseName),
	}, nil
}

// Ping verifies the connection is still alive.
func (a *Archive) Ping(ctx context.Context) error {
	return a.client.Ping(ctx, nil)
}

// SaveQuote appends a quote to the history collection. Prices are stored as
// strings to keep their exact decimal representation.
func (a *Archive) SaveQuote(ctx context.Context, quote *models.StockQuote) error {
	doc := bson.M{
		"symbol":    quote.Symbol,
		"price":     quote.Price.String(),
		"volume":    quote.Volume,
		"timestamp": quote.Timestamp,
	}
	if quote.ChangePercent.Valid {
		doc["change_percent"] = quote.ChangePercent.Decimal.String()
	}
	_, err := a.database.Collection(quotesCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save quote for %s: %w", quote.Symbol, err)
	}
	return nil
}

// SaveTriggeredAlert logs a trigger event together with the price that
// caused it.
func (a *Archive) SaveTriggeredAlert(ctx context.Context, alert models.PriceAlert, quote *models.StockQuote) error {
	doc := bson.M{
		"symbol":        alert.Symbol,
		"target_price":  alert.TargetPrice.String(),
		"condition":     string(alert.Condition),
		"user_id":       alert.UserID,
		"created_at":    alert.CreatedAt,
		"trigger_price": quote.Price.String(),
		"triggered_at":  quote.Timestamp,
	}
	_, err := a.database.Collection(alertLogCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log triggered alert for %s: %w", alert.Symbol, err)
	}
	return nil
}

// SavePredictions replaces the stored latest prediction batch.
func (a *Archive) SavePredictions(ctx context.Context, predictions []models.Prediction) error {
	docs := make([]bson.M, 0, len(predictions))
	for _, p := range predictions {
		docs = append(docs, bson.M{
			"symbol":          p.Symbol,
			"predicted_price": p.PredictedPrice.String(),
			"confidence":      p.Confidence,
			"horizon":         p.PredictionHorizon,
			"timestamp":       p.Timestamp,
		})
	}
	doc := bson.M{
		"_id":         "latest",
		"updated_at":  time.Now().UTC(),
		"count":       len(docs),
		"predictions": docs,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := a.database.Collection(predictionsCollection).
		ReplaceOne(ctx, bson.M{"_id": "latest"}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save predictions: %w", err)
	}
	return nil
}

// DeleteQuotesBefore drops archived quotes older than the cutoff and
// returns how many were removed.
func (a *Archive) DeleteQuotesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := a.database.Collection(quotesCollection).
		DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old quotes: %w", err)
	}
	return result.DeletedCount, nil
}

// Disconnect closes the connection.
func (a *Archive) Disconnect(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
