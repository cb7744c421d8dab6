package models

// Event types carried on the websocket and broker channels.
const (
	EventQuoteUpdate = "quote_update"
	EventPredictions = "predictions"
	EventEcho        = "echo"
)

// WSMessage is the envelope for every event delivered to subscribers.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
