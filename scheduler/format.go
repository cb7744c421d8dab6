package scheduler

import (
	"fmt"
	"strings"

	"stockstream/models"
)

// formatAlertText builds the notification body for a triggered alert.
func formatAlertText(alert models.PriceAlert, quote *models.StockQuote) string {
	var b strings.Builder
	b.WriteString("*PRICE ALERT TRIGGERED*\n\n")
	fmt.Fprintf(&b, "Symbol: %s\n", alert.Symbol)
	fmt.Fprintf(&b, "Target Price: $%s\n", alert.TargetPrice.StringFixed(2))
	fmt.Fprintf(&b, "Current Price: $%s\n", quote.Price.StringFixed(2))
	fmt.Fprintf(&b, "Condition: %s\n", strings.ToUpper(string(alert.Condition)))
	fmt.Fprintf(&b, "Time: %s\n\n", quote.Timestamp.Format("2006-01-02 15:04:05"))
	b.WriteString("Alert has been deactivated.")
	return b.String()
}

// formatDigest builds the market-summary body for a prediction batch.
func formatDigest(predictions []models.Prediction) string {
	var b strings.Builder
	b.WriteString("*Market Predictions*\n\n")
	for _, p := range predictions {
		fmt.Fprintf(&b, "*%s*\n", p.Symbol)
		fmt.Fprintf(&b, "  Predicted: $%s\n", p.PredictedPrice.StringFixed(2))
		fmt.Fprintf(&b, "  Confidence: %.1f%%\n", p.Confidence*100)
		fmt.Fprintf(&b, "  Horizon: %s\n\n", p.PredictionHorizon)
	}
	fmt.Fprintf(&b, "Generated at: %s",
		predictions[0].Timestamp.Format("2006-01-02 15:04:05"))
	return b.String()
}
