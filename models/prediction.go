package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prediction is a model output for a symbol: the predicted price, how
// confident the model is in it, and the horizon it applies to.
type Prediction struct {
	Symbol            string          `json:"symbol" bson:"symbol"`
	PredictedPrice    decimal.Decimal `json:"predicted_price" bson:"predicted_price"`
	Confidence        float64         `json:"confidence" bson:"confidence"`
	PredictionHorizon string          `json:"prediction_horizon" bson:"prediction_horizon"`
	Timestamp         time.Time       `json:"timestamp" bson:"timestamp"`
}
