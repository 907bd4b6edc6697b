package store

import (
	"sync"

	"signal-tracker/src/analysis"
	"signal-tracker/src/models"
)

// -----------------------------------------------------------------------------
// PriceSeries
// -----------------------------------------------------------------------------

// PriceSeries is the append-only, time-ordered point sequence for one
// ticker. Timestamps are strictly increasing. Readers run concurrently
// with each other; a writer excludes everything on this series only, so
// one slow ticker never blocks queries for another.
type PriceSeries struct {
	mu     sync.RWMutex
	symbol string
	engine *analysis.Engine
	points []models.MPricePoint
}

// -----------------------------------------------------------------------------

// NewPriceSeries builds a fully computed series from an ordered history.
// The window size is fixed here and never changes afterwards.
func NewPriceSeries(symbol string, engine *analysis.Engine, history []models.MQuote) *PriceSeries {
	return &PriceSeries{
		symbol: symbol,
		engine: engine,
		points: engine.Batch(history),
	}
}

// -----------------------------------------------------------------------------

// Append computes and appends a point for one new quote via the
// incremental path. The timestamp must be strictly greater than the
// series' last; anything else is rejected as a stale quote.
func (s *PriceSeries) Append(timestamp int64, price float64) (models.MPricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.points); n > 0 && timestamp <= s.points[n-1].Timestamp {
		return models.MPricePoint{}, ErrStaleQuote
	}

	pt := s.engine.Next(s.points, timestamp, price)
	s.points = append(s.points, pt)
	return pt, nil
}

// -----------------------------------------------------------------------------

// LatestAsOf returns the most recent point with timestamp <= t. The
// second return is false when no point satisfies the filter ("no data",
// which is a legitimate result rather than an error).
func (s *PriceSeries) LatestAsOf(t int64) (models.MPricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.points) - 1; i >= 0; i-- {
		if s.points[i].Timestamp <= t {
			return s.points[i], true
		}
	}
	return models.MPricePoint{}, false
}

// -----------------------------------------------------------------------------

// Latest returns the newest point, if any.
func (s *PriceSeries) Latest() (models.MPricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.points) == 0 {
		return models.MPricePoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// -----------------------------------------------------------------------------

// Len returns the number of points.
func (s *PriceSeries) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// -----------------------------------------------------------------------------

// Snapshot copies all points, for persistence and tests.
func (s *PriceSeries) Snapshot() []models.MPricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MPricePoint, len(s.points))
	copy(out, s.points)
	return out
}
