package utils

import (
	"sync"
	"time"

	"signal-tracker/src/logger"
)

// MarketScheduler tracks which exchange calendars apply to the tracked
// tickers, so refresh cycles can be skipped while everything is closed.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.UpdateSymbols(symbols)
	return ms
}

// -----------------------------------------------------------------------------

// UpdateSymbols rebuilds the symbol -> calendar mapping.
func (ms *MarketScheduler) UpdateSymbols(symbols []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.Calendars = make(map[string]*TradingCalendar)
	for _, symbol := range symbols {
		if cal := GetCalendar(symbol); cal != nil {
			ms.Calendars[symbol] = cal
		}
	}
	ms.Logger.Debug("mapped %d symbols to calendars", len(symbols))
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if ANY tracked market is currently open. With no
// tracked symbols it returns false.
func (ms *MarketScheduler) AnyMarketOpen() bool {
	now := time.Now().UTC()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, cal := range ms.Calendars {
		if cal.IsOpenAt(now) {
			return true
		}
	}
	return false
}
