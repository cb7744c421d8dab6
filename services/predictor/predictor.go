// Package predictor wraps the price-prediction model. Models are trained
// lazily per symbol from daily closing history; anything that goes wrong
// during training or inference degrades to ErrUnavailable, never a fatal
// error.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"stockstream/models"
)

// ErrUnavailable means no prediction could be produced for the symbol.
var ErrUnavailable = errors.New("prediction unavailable")

const (
	// Minimum daily closes required before a model is trained.
	minHistory = 50

	// Closes used for the volatility-based confidence estimate.
	confidenceWindow = 10

	// Trained models are reused for this long before retraining.
	modelTTL = time.Hour

	horizonOneDay = "1d"
)

// HistorySource provides training data, usually the data fetcher.
type HistorySource interface {
	FetchDailyCloses(ctx context.Context, symbol string) ([]float64, error)
}

// trainedModel is a least-squares fit over a symbol's daily closes.
type trainedModel struct {
	slope      float64
	intercept  float64
	samples    int
	confidence float64
	trainedAt  time.Time
}

// Predictor trains and queries per-symbol models.
type Predictor struct {
	source HistorySource

	mu     sync.Mutex
	models map[string]*trainedModel
}

// NewPredictor creates a predictor backed by source.
func NewPredictor(source HistorySource) *Predictor {
	return &Predictor{
		source: source,
		models: make(map[string]*trainedModel),
	}
}

// Predict returns a one-day-ahead prediction for symbol, training a model
// first if none is cached. Returns an error wrapping ErrUnavailable when
// training data cannot be obtained or is too thin.
func (p *Predictor) Predict(ctx context.Context, symbol string) (*models.Prediction, error) {
	model := p.cached(symbol)
	if model == nil {
		var err error
		model, err = p.train(ctx, symbol)
		if err != nil {
			return nil, err
		}
	}

	// The model was fit over X = 0..samples-1, so the next trading day
	// sits at X = samples.
	predicted := model.slope*float64(model.samples) + model.intercept
	if predicted <= 0 {
		return nil, fmt.Errorf("%w: model for %s predicted non-positive price", ErrUnavailable, symbol)
	}

	return &models.Prediction{
		Symbol:            symbol,
		PredictedPrice:    decimal.NewFromFloat(predicted),
		Confidence:        model.confidence,
		PredictionHorizon: horizonOneDay,
		Timestamp:         time.Now().UTC(),
	}, nil
}

// Reset drops every trained model, forcing retraining on fresh history.
func (p *Predictor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.models = make(map[string]*trainedModel)
	log.Println("Predictor models reset")
}

func (p *Predictor) cached(symbol string) *trainedModel {
	p.mu.Lock()
	defer p.mu.Unlock()

	model, ok := p.models[symbol]
	if !ok || time.Since(model.trainedAt) > modelTTL {
		return nil
	}
	return model
}

// train fetches history and fits a model. The network call happens outside
// the predictor lock; a duplicate concurrent train is harmless.
func (p *Predictor) train(ctx context.Context, symbol string) (*trainedModel, error) {
	closes, err := p.source.FetchDailyCloses(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: training data for %s: %v", ErrUnavailable, symbol, err)
	}
	if len(closes) < minHistory {
		return nil, fmt.Errorf("%w: only %d closes for %s, need %d",
			ErrUnavailable, len(closes), symbol, minHistory)
	}

	model, err := fit(closes)
	if err != nil {
		return nil, fmt.Errorf("%w: fitting %s: %v", ErrUnavailable, symbol, err)
	}

	p.mu.Lock()
	p.models[symbol] = model
	p.mu.Unlock()

	log.Printf("Model trained for %s over %d closes (confidence %.2f)",
		symbol, model.samples, model.confidence)
	return model, nil
}

func fit(closes []float64) (*trainedModel, error) {
	series := make(stats.Series, len(closes))
	for i, c := range closes {
		series[i] = stats.Coordinate{X: float64(i), Y: c}
	}

	line, err := stats.LinearRegression(series)
	if err != nil {
		return nil, err
	}

	n := len(line)
	slope := (line[n-1].Y - line[0].Y) / (line[n-1].X - line[0].X)
	intercept := line[0].Y

	return &trainedModel{
		slope:      slope,
		intercept:  intercept,
		samples:    len(closes),
		confidence: confidenceFor(closes),
		trainedAt:  time.Now(),
	}, nil
}

// confidenceFor derives confidence from recent volatility: the steadier the
// last closes, the higher the confidence. Clamped to [0.5, 0.99].
func confidenceFor(closes []float64) float64 {
	recent := closes
	if len(recent) > confidenceWindow {
		recent = recent[len(recent)-confidenceWindow:]
	}

	mean, err := stats.Mean(recent)
	if err != nil || mean == 0 {
		return 0.5
	}
	deviation, err := stats.StandardDeviation(recent)
	if err != nil {
		return 0.5
	}

	confidence := 1.0 - deviation/mean
	if confidence < 0.5 {
		return 0.5
	}
	if confidence > 0.99 {
		return 0.99
	}
	return confidence
}
