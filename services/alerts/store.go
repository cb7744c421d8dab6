package alerts

import (
	"time"

	"stockstream/models"
)

// store abstracts how alerts are held and scanned. The list implementation
// is O(alerts) per quote, which is fine at tens of symbols; a symbol-indexed
// store can replace it without touching the engine's callers. The store is
// not safe for concurrent use on its own; the engine serializes access.
type store interface {
	add(alert *models.PriceAlert)
	removeMatching(symbol, userID string) int
	activeForSymbol(symbol string) []*models.PriceAlert
	active(userID string) []*models.PriceAlert
	countForUser(userID string) int
	pruneInactive(before time.Time) int
}

type listStore struct {
	alerts []*models.PriceAlert
}

func newListStore() *listStore {
	return &listStore{}
}

func (s *listStore) add(alert *models.PriceAlert) {
	s.alerts = append(s.alerts, alert)
}

func (s *listStore) removeMatching(symbol, userID string) int {
	kept := s.alerts[:0]
	removed := 0
	for _, a := range s.alerts {
		if a.Symbol == symbol && a.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
	return removed
}

func (s *listStore) activeForSymbol(symbol string) []*models.PriceAlert {
	var out []*models.PriceAlert
	for _, a := range s.alerts {
		if a.IsActive && a.Symbol == symbol {
			out = append(out, a)
		}
	}
	return out
}

func (s *listStore) active(userID string) []*models.PriceAlert {
	var out []*models.PriceAlert
	for _, a := range s.alerts {
		if !a.IsActive {
			continue
		}
		if userID != "" && a.UserID != userID {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (s *listStore) countForUser(userID string) int {
	count := 0
	for _, a := range s.alerts {
		if a.UserID == userID {
			count++
		}
	}
	return count
}

func (s *listStore) pruneInactive(before time.Time) int {
	kept := s.alerts[:0]
	pruned := 0
	for _, a := range s.alerts {
		if !a.IsActive && a.CreatedAt.Before(before) {
			pruned++
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
	return pruned
}
