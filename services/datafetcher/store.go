package datafetcher

import (
	"sort"
	"sync"

	"stockstream/models"
)

// Store keeps the most recent quote per symbol in memory, backing the
// snapshot API endpoint.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]*models.StockQuote
}

// NewStore creates an empty quote store.
func NewStore() *Store {
	return &Store{
		quotes: make(map[string]*models.StockQuote),
	}
}

// Upsert records the latest quote for its symbol.
func (s *Store) Upsert(quote *models.StockQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[quote.Symbol] = quote
}

// Get returns the latest quote for symbol, or nil when none is known.
func (s *Store) Get(symbol string) *models.StockQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes[symbol]
}

// All returns every known quote, sorted by symbol.
func (s *Store) All() []models.StockQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.StockQuote, 0, len(s.quotes))
	for _, q := range s.quotes {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
