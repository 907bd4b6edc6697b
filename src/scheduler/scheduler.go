package scheduler

import (
	"context"
	"errors"
	"time"

	"signal-tracker/src/interfaces"
	"signal-tracker/src/logger"
	"signal-tracker/src/metrics"
	"signal-tracker/src/models"
	"signal-tracker/src/store"
)

// Timeout for a single provider quote call; one slow ticker must not eat
// into the next ticker's refresh.
const quoteTimeout = 15 * time.Second

// -----------------------------------------------------------------------------

// UpdateScheduler is the single background loop that refreshes every
// tracked ticker on the sampling interval. Provider failures for one
// ticker are logged and do not abort the cycle for the rest.
type UpdateScheduler struct {
	Store     *store.TickerStore
	Provider  interfaces.IMarketProvider
	DB        interfaces.IDatabase       // optional
	Publisher interfaces.IPointPublisher // optional
	Markets   interfaces.IMarketGate     // optional open-hours gate
	Metrics   *metrics.Recorder          // optional
	Interval  time.Duration
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

// Run blocks until ctx is cancelled, firing one refresh cycle per
// interval.
func (s *UpdateScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Logger.Info("update scheduler running every %s", s.Interval)
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("update scheduler stopped")
			return
		case <-ticker.C:
			if s.Markets != nil {
				// The tracked set changes at runtime; the gate must judge
				// the live symbols, not the ones known at startup.
				s.Markets.UpdateSymbols(s.Store.Symbols())
				if !s.Markets.AnyMarketOpen() {
					s.Logger.Debug("all tracked markets closed, skipping cycle")
					continue
				}
			}
			s.RunCycle(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// RunCycle refreshes every currently tracked ticker once. The tracked
// set is a snapshot; tickers added or removed mid-cycle are picked up
// next time.
func (s *UpdateScheduler) RunCycle(ctx context.Context) {
	for _, symbol := range s.Store.Symbols() {
		if ctx.Err() != nil {
			return
		}
		s.refreshOne(ctx, symbol)
	}
}

// -----------------------------------------------------------------------------

func (s *UpdateScheduler) refreshOne(ctx context.Context, symbol string) {
	qctx, cancel := context.WithTimeout(ctx, quoteTimeout)
	defer cancel()

	quote, err := s.Provider.FetchLatestQuote(qctx, symbol)
	if err != nil {
		s.Logger.Warning("quote fetch failed for %s: %v", symbol, err)
		if s.Metrics != nil {
			s.Metrics.RecordProviderError("quote")
		}
		return
	}

	pt, err := s.Store.AppendQuote(symbol, quote.Timestamp, quote.Price)
	switch {
	case errors.Is(err, store.ErrStaleQuote):
		// Off-hours and weekend quotes repeat their timestamp.
		s.Logger.Debug("stale quote for %s at %d", symbol, quote.Timestamp)
		return
	case store.IsNotFound(err):
		// Deleted between the snapshot and the append.
		return
	case err != nil:
		s.Logger.Warning("append failed for %s: %v", symbol, err)
		return
	}

	if s.Metrics != nil {
		s.Metrics.RecordQuoteAppended(symbol, pt.Price)
	}
	if s.DB != nil {
		if err := s.DB.SavePricePoints(symbol, []models.MPricePoint{pt}); err != nil {
			s.Logger.Warning("persist failed for %s: %v", symbol, err)
		}
	}
	if s.Publisher != nil {
		s.Publisher.PublishPoint(symbol, pt)
	}
	s.Logger.Debug("appended %s @ %d = %v (signal %s)", symbol, pt.Timestamp, pt.Price, pt.Signal)
}
