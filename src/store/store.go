package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"signal-tracker/src/analysis"
	"signal-tracker/src/interfaces"
	"signal-tracker/src/logger"
	"signal-tracker/src/models"
)

// -----------------------------------------------------------------------------
// TickerStore
// -----------------------------------------------------------------------------

// TickerStore owns the symbol -> PriceSeries mapping. The coarse lock is
// held only for map reads and pointer swaps, never across a provider
// round trip, so structural changes (add, delete, whole-store replace)
// are atomic from a reader's point of view: a query sees a ticker either
// absent or with its full series, never half-populated.
type TickerStore struct {
	mu       sync.RWMutex
	series   map[string]*PriceSeries
	engine   *analysis.Engine
	provider interfaces.IMarketProvider
	logger   *logger.Logger
}

// -----------------------------------------------------------------------------

// NewTickerStore creates an empty store. window is the fixed per-series
// rolling window size.
func NewTickerStore(window int, provider interfaces.IMarketProvider, log *logger.Logger) *TickerStore {
	return &TickerStore{
		series:   make(map[string]*PriceSeries),
		engine:   analysis.NewEngine(window),
		provider: provider,
		logger:   log,
	}
}

// -----------------------------------------------------------------------------

// Normalize case-normalizes a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// -----------------------------------------------------------------------------

// AddTicker starts tracking a symbol: it fetches the full history from
// the provider, batch-computes the series out-of-place and installs it
// atomically. On any failure the store is unchanged.
func (ts *TickerStore) AddTicker(ctx context.Context, symbol string) error {
	symbol = Normalize(symbol)
	if symbol == "" {
		return ErrInvalidTicker
	}

	ts.mu.RLock()
	_, exists := ts.series[symbol]
	ts.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTicker, symbol)
	}

	// Provider round trip happens with no lock held.
	history, err := ts.provider.FetchHistory(ctx, symbol)
	if err != nil {
		return err
	}
	series := NewPriceSeries(symbol, ts.engine, history)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.series[symbol]; exists {
		// Lost the race against a concurrent add of the same symbol.
		return fmt.Errorf("%w: %s", ErrDuplicateTicker, symbol)
	}
	ts.series[symbol] = series
	ts.logger.Info("tracking %s (%d points)", symbol, series.Len())
	return nil
}

// -----------------------------------------------------------------------------

// InstallHistory installs a series built from an already available
// history (the reload source) without touching the provider. Same
// atomicity as AddTicker.
func (ts *TickerStore) InstallHistory(symbol string, history []models.MQuote) error {
	symbol = Normalize(symbol)
	if symbol == "" {
		return ErrInvalidTicker
	}
	series := NewPriceSeries(symbol, ts.engine, history)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.series[symbol]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTicker, symbol)
	}
	ts.series[symbol] = series
	return nil
}

// -----------------------------------------------------------------------------

// DeleteTicker stops tracking a symbol and drops its series atomically.
func (ts *TickerStore) DeleteTicker(symbol string) error {
	symbol = Normalize(symbol)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.series[symbol]; !exists {
		return fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}
	delete(ts.series, symbol)
	ts.logger.Info("stopped tracking %s", symbol)
	return nil
}

// -----------------------------------------------------------------------------

// AppendQuote appends one quote to a tracked symbol's series via the
// incremental path.
func (ts *TickerStore) AppendQuote(symbol string, timestamp int64, price float64) (models.MPricePoint, error) {
	symbol = Normalize(symbol)

	ts.mu.RLock()
	series, exists := ts.series[symbol]
	ts.mu.RUnlock()
	if !exists {
		return models.MPricePoint{}, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}
	return series.Append(timestamp, price)
}

// -----------------------------------------------------------------------------

// LatestAsOf returns the most recent point for symbol with timestamp <= t.
// hasData is false when no point satisfies the filter; err is non-nil
// only when the symbol is not tracked at all.
func (ts *TickerStore) LatestAsOf(symbol string, t int64) (pt models.MPricePoint, hasData bool, err error) {
	symbol = Normalize(symbol)

	ts.mu.RLock()
	series, exists := ts.series[symbol]
	ts.mu.RUnlock()
	if !exists {
		return models.MPricePoint{}, false, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}
	pt, hasData = series.LatestAsOf(t)
	return pt, hasData, nil
}

// -----------------------------------------------------------------------------

// Symbols returns a sorted snapshot of the tracked ticker set. Callers
// iterating tickers must use this rather than holding the store lock.
func (ts *TickerStore) Symbols() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	out := make([]string, 0, len(ts.series))
	for sym := range ts.series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// -----------------------------------------------------------------------------

// Series returns the series for a symbol, if tracked.
func (ts *TickerStore) Series(symbol string) (*PriceSeries, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	s, ok := ts.series[Normalize(symbol)]
	return s, ok
}

// -----------------------------------------------------------------------------

// Reset refetches the full history for every tracked ticker into a new
// map and swaps it in atomically. All-or-nothing: the first provider
// failure aborts the whole reset and the live store stays untouched.
func (ts *TickerStore) Reset(ctx context.Context) error {
	symbols := ts.Symbols()

	fresh := make(map[string]*PriceSeries, len(symbols))
	for _, sym := range symbols {
		history, err := ts.provider.FetchHistory(ctx, sym)
		if err != nil {
			return fmt.Errorf("reset %s: %w", sym, err)
		}
		fresh[sym] = NewPriceSeries(sym, ts.engine, history)
	}

	ts.mu.Lock()
	ts.series = fresh
	ts.mu.Unlock()
	ts.logger.Info("reset complete (%d tickers)", len(fresh))
	return nil
}

// -----------------------------------------------------------------------------

// IsNotFound reports whether err is the untracked-symbol error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTickerNotFound)
}
