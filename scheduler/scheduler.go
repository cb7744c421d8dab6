// Package scheduler drives the two periodic refresh loops: quote updates
// (fetch, broadcast, alert evaluation, notification) and predictions
// (generate, broadcast, announce-window digest). Each loop is its own
// goroutine, recovers from anything a cycle throws at it, and backs off
// briefly before the next cycle instead of dying. Calendar maintenance jobs
// run on gocron.
package scheduler

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"stockstream/config"
	"stockstream/models"
	"stockstream/services/alerts"
	"stockstream/services/datafetcher"
	"stockstream/services/pubsub"
	"stockstream/services/storage"
)

const (
	// Sleep after a cycle that panicked, instead of the full interval.
	quoteCycleBackoff      = 5 * time.Second
	predictionCycleBackoff = time.Minute

	notifyTimeout  = 15 * time.Second
	archiveTimeout = 10 * time.Second

	// Archived quotes older than this are swept by maintenance.
	quoteRetention = 90 * 24 * time.Hour

	// Inactive alerts older than this are pruned by maintenance.
	inactiveAlertRetention = 30 * 24 * time.Hour
)

// QuoteFetcher is the quote source adapter seen by the scheduler.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
}

// Predictor is the prediction model adapter seen by the scheduler.
type Predictor interface {
	Predict(ctx context.Context, symbol string) (*models.Prediction, error)
	Reset()
}

// Notifier delivers outbound notifications.
type Notifier interface {
	Notify(ctx context.Context, recipient, text string) error
}

// Broadcaster fans an event out to live subscribers.
type Broadcaster interface {
	Broadcast(message models.WSMessage) (delivered, dropped int)
}

// Options wires the scheduler to its collaborators. Archive and Broker may
// be nil; everything else is required.
type Options struct {
	Config    *config.Config
	Hub       Broadcaster
	Engine    *alerts.Engine
	Quotes    *datafetcher.Store
	Fetcher   QuoteFetcher
	Predictor Predictor
	Notifier  Notifier
	Archive   *storage.Archive
	Broker    *pubsub.Publisher
}

// Scheduler owns the refresh loops and maintenance jobs.
type Scheduler struct {
	cfg       *config.Config
	hub       Broadcaster
	engine    *alerts.Engine
	quotes    *datafetcher.Store
	fetcher   QuoteFetcher
	predictor Predictor
	notifier  Notifier
	archive   *storage.Archive
	broker    *pubsub.Publisher

	maintenance *gocron.Scheduler

	predMu            sync.RWMutex
	latestPredictions []models.Prediction

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup

	now func() time.Time
}

// NewScheduler creates a scheduler; Start must be called to run it.
func NewScheduler(opts Options) *Scheduler {
	return &Scheduler{
		cfg:         opts.Config,
		hub:         opts.Hub,
		engine:      opts.Engine,
		quotes:      opts.Quotes,
		fetcher:     opts.Fetcher,
		predictor:   opts.Predictor,
		notifier:    opts.Notifier,
		archive:     opts.Archive,
		broker:      opts.Broker,
		maintenance: gocron.NewScheduler(time.UTC),
		stop:        make(chan struct{}),
		now:         time.Now,
	}
}

// Start launches both refresh loops and the maintenance jobs.
func (s *Scheduler) Start() {
	log.Printf("Scheduler starting: %d symbols, quotes every %s, predictions every %s",
		len(s.cfg.Symbols), s.cfg.QuoteInterval, s.cfg.PredictionInterval)

	s.wg.Add(2)
	go s.quoteLoop()
	go s.predictionLoop()
	s.startMaintenance()
}

// Stop halts both loops and the maintenance jobs, then waits for in-flight
// cycles to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.maintenance.Stop()
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

// LatestPredictions returns the most recent prediction batch.
func (s *Scheduler) LatestPredictions() []models.Prediction {
	s.predMu.RLock()
	defer s.predMu.RUnlock()
	out := make([]models.Prediction, len(s.latestPredictions))
	copy(out, s.latestPredictions)
	return out
}

// quoteLoop runs quote refresh cycles forever. The loop itself is the unit
// of restart: a bad cycle is logged and followed by a short backoff, never
// a dead loop.
func (s *Scheduler) quoteLoop() {
	defer s.wg.Done()

	for {
		delay := s.cfg.QuoteInterval
		if !s.runGuarded("quote cycle", s.runQuoteCycle) {
			delay = quoteCycleBackoff
		}
		select {
		case <-s.stop:
			return
		case <-time.After(delay):
		}
	}
}

func (s *Scheduler) predictionLoop() {
	defer s.wg.Done()

	for {
		delay := s.cfg.PredictionInterval
		if !s.runGuarded("prediction cycle", s.runPredictionCycle) {
			delay = predictionCycleBackoff
		}
		select {
		case <-s.stop:
			return
		case <-time.After(delay):
		}
	}
}

// runGuarded runs one cycle, converting a panic into a logged failure.
func (s *Scheduler) runGuarded(name string, cycle func(ctx context.Context)) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in %s: %v", name, r)
			ok = false
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	cycle(ctx)
	return true
}

// runQuoteCycle fetches every tracked symbol with bounded parallelism. A
// failing symbol is skipped for the cycle; it never aborts the others.
func (s *Scheduler) runQuoteCycle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.QuoteInterval)
	defer cancel()

	sem := make(chan struct{}, s.cfg.FetchConcurrency)
	var wg sync.WaitGroup

	for _, symbol := range s.cfg.Symbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			s.refreshSymbol(ctx, symbol)
		}(symbol)
	}
	wg.Wait()
}

func (s *Scheduler) refreshSymbol(ctx context.Context, symbol string) {
	quote, err := s.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		log.Printf("Skipping %s this cycle: %v", symbol, err)
		return
	}

	s.quotes.Upsert(quote)
	s.hub.Broadcast(models.WSMessage{Type: models.EventQuoteUpdate, Data: quote})

	if s.broker != nil {
		if err := s.broker.PublishQuote(ctx, quote); err != nil {
			log.Printf("Broker publish failed for %s: %v", symbol, err)
		}
	}
	if s.archive != nil {
		actx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		if err := s.archive.SaveQuote(actx, quote); err != nil {
			log.Printf("Archive write failed for %s: %v", symbol, err)
		}
		cancel()
	}

	for _, alert := range s.engine.Evaluate(quote) {
		s.deliverAlert(alert, quote)
	}
}

// deliverAlert notifies the alert's owner. The alert is already inactive;
// a failed send is logged and dropped, not retried.
func (s *Scheduler) deliverAlert(alert models.PriceAlert, quote *models.StockQuote) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, alert.UserID, formatAlertText(alert, quote)); err != nil {
		log.Printf("Alert notification failed for %s (user %s): %v",
			alert.Symbol, alert.UserID, err)
		return
	}
	log.Printf("Alert notification sent for %s (user %s)", alert.Symbol, alert.UserID)

	if s.archive != nil {
		actx, acancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer acancel()
		if err := s.archive.SaveTriggeredAlert(actx, alert, quote); err != nil {
			log.Printf("Failed to log triggered alert for %s: %v", alert.Symbol, err)
		}
	}
}

// runPredictionCycle generates predictions for every tracked symbol,
// broadcasts the batch, and sends a digest inside announce windows.
func (s *Scheduler) runPredictionCycle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PredictionInterval)
	defer cancel()

	sem := make(chan struct{}, s.cfg.FetchConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var predictions []models.Prediction

	for _, symbol := range s.cfg.Symbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			prediction, err := s.predictor.Predict(ctx, symbol)
			if err != nil {
				log.Printf("No prediction for %s this cycle: %v", symbol, err)
				return
			}
			mu.Lock()
			predictions = append(predictions, *prediction)
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	if len(predictions) == 0 {
		log.Println("Prediction cycle produced no predictions")
		return
	}
	sort.Slice(predictions, func(i, j int) bool {
		return predictions[i].Symbol < predictions[j].Symbol
	})

	s.predMu.Lock()
	s.latestPredictions = predictions
	s.predMu.Unlock()

	s.hub.Broadcast(models.WSMessage{Type: models.EventPredictions, Data: predictions})

	if s.broker != nil {
		if err := s.broker.PublishPredictions(ctx, predictions); err != nil {
			log.Printf("Broker publish failed for predictions: %v", err)
		}
	}
	if s.archive != nil {
		actx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		if err := s.archive.SavePredictions(actx, predictions); err != nil {
			log.Printf("Archive write failed for predictions: %v", err)
		}
		cancel()
	}

	s.announce(predictions)
}

// announce sends one digest notification to the broadcast chat, only
// inside configured announce hours.
func (s *Scheduler) announce(predictions []models.Prediction) {
	if s.cfg.TelegramChatID == "" || !s.cfg.AnnounceAt(s.now().Hour()) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, s.cfg.TelegramChatID, formatDigest(predictions)); err != nil {
		log.Printf("Prediction digest failed: %v", err)
		return
	}
	log.Printf("Prediction digest sent for %d symbols", len(predictions))
}

// startMaintenance registers the calendar jobs: archive retention, alert
// pruning and model retraining.
func (s *Scheduler) startMaintenance() {
	s.maintenance.Every(1).Day().At("02:00").Do(func() {
		if s.archive == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		deleted, err := s.archive.DeleteQuotesBefore(ctx, s.now().Add(-quoteRetention))
		if err != nil {
			log.Printf("Quote retention sweep failed: %v", err)
			return
		}
		log.Printf("Quote retention sweep removed %d quotes", deleted)
	})

	s.maintenance.Every(1).Day().At("03:00").Do(func() {
		pruned := s.engine.PruneInactive(s.now().Add(-inactiveAlertRetention))
		log.Printf("Pruned %d inactive alerts", pruned)
	})

	s.maintenance.Every(1).Day().At("04:00").Do(func() {
		s.predictor.Reset()
	})

	s.maintenance.StartAsync()
}
