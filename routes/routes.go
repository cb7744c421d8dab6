package routes

import (
	"github.com/gin-gonic/gin"

	"stockstream/controllers"
	"stockstream/services/alerts"
	"stockstream/services/datafetcher"
	"stockstream/services/realtime"
)

// SetupRoutes sets up the API and websocket routes.
func SetupRoutes(router *gin.Engine, hub *realtime.Hub, engine *alerts.Engine,
	quotes *datafetcher.Store, predictions controllers.PredictionSource) {

	alertController := controllers.NewAlertController(engine)
	stockController := controllers.NewStockController(quotes, predictions)

	api := router.Group("/api")
	{
		alertRoutes := api.Group("/alerts")
		{
			alertRoutes.POST("", alertController.CreateAlert)
			alertRoutes.GET("/:user_id", alertController.GetUserAlerts)
			alertRoutes.DELETE("/:symbol/:user_id", alertController.DeleteAlerts)
		}

		api.GET("/stocks", stockController.GetStocks)
		api.GET("/predictions", stockController.GetPredictions)
	}

	router.GET("/ws", func(c *gin.Context) {
		hub.HandleWebSocket(c.Writer, c.Request)
	})

	router.Static("/static", "./static")
	router.GET("/dashboard", func(c *gin.Context) {
		c.File("./static/dashboard.html")
	})
}
