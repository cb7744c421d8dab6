package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockstream/models"
	"stockstream/services/alerts"
)

// AlertController handles alert management requests.
type AlertController struct {
	engine *alerts.Engine
}

// NewAlertController creates a new alert controller.
func NewAlertController(engine *alerts.Engine) *AlertController {
	return &AlertController{engine: engine}
}

// CreateAlert creates a new price alert.
// POST /api/alerts
func (ac *AlertController) CreateAlert(c *gin.Context) {
	var alert models.PriceAlert
	if err := c.ShouldBindJSON(&alert); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := alert.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ac.engine.Add(&alert); err != nil {
		if errors.Is(err, alerts.ErrCapacityExceeded) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Alert created successfully",
		"alert":   alert,
	})
}

// GetUserAlerts returns all active alerts for a user.
// GET /api/alerts/:user_id
func (ac *AlertController) GetUserAlerts(c *gin.Context) {
	userID := c.Param("user_id")
	c.JSON(http.StatusOK, gin.H{
		"alerts": ac.engine.Active(userID),
	})
}

// DeleteAlerts removes all alerts for a symbol and user.
// DELETE /api/alerts/:symbol/:user_id
func (ac *AlertController) DeleteAlerts(c *gin.Context) {
	symbol := c.Param("symbol")
	userID := c.Param("user_id")

	removed := ac.engine.Remove(symbol, userID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Alerts removed for " + symbol,
		"removed": removed,
	})
}
