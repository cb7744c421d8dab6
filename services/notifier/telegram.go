// Package notifier delivers outbound notifications through the Telegram
// Bot API. Callers get delivered-or-failed and nothing else; retry policy,
// if ever needed, belongs here and not in the core.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured means no bot token was supplied; sends are skipped.
var ErrNotConfigured = errors.New("telegram bot not configured")

const defaultTelegramBaseURL = "https://api.telegram.org"

// Telegram sends messages through the Bot API.
type Telegram struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewTelegram creates a notifier. An empty token yields a notifier whose
// sends fail with ErrNotConfigured.
func NewTelegram(token string) *Telegram {
	return &Telegram{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: defaultTelegramBaseURL,
		token:   token,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends text to the recipient chat. Failures are returned, never
// retried here.
func (t *Telegram) Notify(ctx context.Context, recipient, text string) error {
	if t.token == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    recipient,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}
	return nil
}
