package predictor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	mu     sync.Mutex
	closes map[string][]float64
	err    error
	calls  int
}

func (f *fakeHistory) FetchDailyCloses(ctx context.Context, symbol string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.closes[symbol], nil
}

func (f *fakeHistory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// rising returns n closes climbing steadily from 100.
func rising(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	return closes
}

func TestPredictTrainsLazilyAndExtrapolatesTrend(t *testing.T) {
	source := &fakeHistory{closes: map[string][]float64{"AAPL": rising(100)}}
	p := NewPredictor(source)

	prediction, err := p.Predict(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", prediction.Symbol)
	assert.Equal(t, "1d", prediction.PredictionHorizon)
	assert.False(t, prediction.Timestamp.IsZero())

	// A steadily rising series must predict above its last close.
	last := rising(100)[99]
	predicted, _ := prediction.PredictedPrice.Float64()
	assert.Greater(t, predicted, last)

	assert.GreaterOrEqual(t, prediction.Confidence, 0.5)
	assert.LessOrEqual(t, prediction.Confidence, 0.99)
}

func TestPredictReusesTrainedModel(t *testing.T) {
	source := &fakeHistory{closes: map[string][]float64{"AAPL": rising(100)}}
	p := NewPredictor(source)

	_, err := p.Predict(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = p.Predict(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 1, source.callCount())
}

func TestResetForcesRetraining(t *testing.T) {
	source := &fakeHistory{closes: map[string][]float64{"AAPL": rising(100)}}
	p := NewPredictor(source)

	_, err := p.Predict(context.Background(), "AAPL")
	require.NoError(t, err)

	p.Reset()

	_, err = p.Predict(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, source.callCount())
}

func TestPredictUnavailableOnThinHistory(t *testing.T) {
	source := &fakeHistory{closes: map[string][]float64{"AAPL": rising(minHistory - 1)}}
	p := NewPredictor(source)

	_, err := p.Predict(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPredictUnavailableOnSourceError(t *testing.T) {
	source := &fakeHistory{err: errors.New("network down")}
	p := NewPredictor(source)

	_, err := p.Predict(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestConfidenceForVolatileSeriesIsFloored(t *testing.T) {
	// Wildly swinging closes should bottom out at 0.5, never below.
	volatile := []float64{100, 10, 200, 5, 300, 1, 250, 2, 180, 4}
	assert.Equal(t, 0.5, confidenceFor(volatile))

	// A flat series is maximally confident but capped.
	flat := []float64{100, 100, 100, 100, 100}
	assert.Equal(t, 0.99, confidenceFor(flat))
}
