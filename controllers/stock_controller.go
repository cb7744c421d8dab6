package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockstream/models"
	"stockstream/services/datafetcher"
)

// PredictionSource exposes the latest prediction batch, usually the
// scheduler.
type PredictionSource interface {
	LatestPredictions() []models.Prediction
}

// StockController serves quote and prediction snapshots.
type StockController struct {
	quotes      *datafetcher.Store
	predictions PredictionSource
}

// NewStockController creates a new stock controller.
func NewStockController(quotes *datafetcher.Store, predictions PredictionSource) *StockController {
	return &StockController{
		quotes:      quotes,
		predictions: predictions,
	}
}

// GetStocks returns the latest known quote for every tracked symbol.
// GET /api/stocks
func (sc *StockController) GetStocks(c *gin.Context) {
	c.JSON(http.StatusOK, sc.quotes.All())
}

// GetPredictions returns the latest prediction batch.
// GET /api/predictions
func (sc *StockController) GetPredictions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"predictions": sc.predictions.LatestPredictions(),
	})
}
