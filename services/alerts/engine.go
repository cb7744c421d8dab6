// Package alerts holds the active price alerts and evaluates incoming
// quotes against them. Triggering an alert and deactivating it happen
// atomically under one lock, so the same alert can never fire twice even
// when two quotes for its symbol are evaluated concurrently.
package alerts

import (
	"errors"
	"log"
	"sync"
	"time"

	"stockstream/models"
)

// ErrCapacityExceeded is returned by Add when the owner already holds the
// configured maximum number of alerts.
var ErrCapacityExceeded = errors.New("alert capacity exceeded for user")

// Engine manages the alert collection. All mutation goes through the engine
// mutex; reads hand out copies.
type Engine struct {
	mu         sync.Mutex
	store      store
	maxPerUser int
}

// NewEngine creates an engine enforcing maxPerUser alerts per owner.
func NewEngine(maxPerUser int) *Engine {
	return &Engine{
		store:      newListStore(),
		maxPerUser: maxPerUser,
	}
}

// Add appends a new alert to the active collection. Fails only with
// ErrCapacityExceeded; capacity rejections are the caller's problem, not an
// engine error.
func (e *Engine) Add(alert *models.PriceAlert) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store.countForUser(alert.UserID) >= e.maxPerUser {
		return ErrCapacityExceeded
	}

	alert.IsActive = true
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	e.store.add(alert)
	log.Printf("Alert added: %s %s %s for user %s",
		alert.Symbol, alert.Condition, alert.TargetPrice.String(), alert.UserID)
	return nil
}

// Remove deletes every alert matching symbol and user, active or not, and
// returns how many were deleted. Zero matches is not an error.
func (e *Engine) Remove(symbol, userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.store.removeMatching(symbol, userID)
	if removed > 0 {
		log.Printf("Removed %d alerts for %s (user %s)", removed, symbol, userID)
	}
	return removed
}

// Evaluate scans active alerts for the quote's symbol and returns the ones
// whose condition the price satisfies. Every returned alert is already
// inactive by the time Evaluate returns; a concurrent or later evaluation
// cannot trigger it again. Returned values are copies.
func (e *Engine) Evaluate(quote *models.StockQuote) []models.PriceAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var triggered []models.PriceAlert
	for _, alert := range e.store.activeForSymbol(quote.Symbol) {
		if alert.Matches(quote.Price) {
			alert.IsActive = false
			triggered = append(triggered, *alert)
		}
	}
	return triggered
}

// Active returns a snapshot of active alerts, filtered by owner when userID
// is non-empty.
func (e *Engine) Active(userID string) []models.PriceAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	alerts := e.store.active(userID)
	out := make([]models.PriceAlert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, *a)
	}
	return out
}

// PruneInactive deletes inactive alerts created before the cutoff and
// returns how many were dropped.
func (e *Engine) PruneInactive(before time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.pruneInactive(before)
}
