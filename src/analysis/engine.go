package analysis

import (
	"signal-tracker/src/analysis/core"
	"signal-tracker/src/models"
)

// -----------------------------------------------------------------------------
// Position
// -----------------------------------------------------------------------------

// Position is the raw band classification for a single observation,
// before the carry-forward rule is applied.
type Position int8

const (
	PositionUndetermined Position = 0
	PositionLong         Position = 1
	PositionShort        Position = -1
)

// -----------------------------------------------------------------------------

// ComputePosition classifies a price against the rolling band: Long above
// avg+std, Short below avg-std, Undetermined inside the band.
func ComputePosition(price, avg, std float64) Position {
	if price > avg+std {
		return PositionLong
	}
	if price < avg-std {
		return PositionShort
	}
	return PositionUndetermined
}

// -----------------------------------------------------------------------------
// Engine
// -----------------------------------------------------------------------------

// Engine computes rolling statistics, the positional signal and PnL for
// a price series. It is pure: it retains no state between calls, so the
// same inputs always produce the same points.
//
// Batch is a fold over Next, which makes the batch and incremental paths
// agree field-for-field by construction.
type Engine struct {
	window int
}

// -----------------------------------------------------------------------------

// NewEngine creates an engine with a fixed rolling window of w
// observations. The window never changes for the lifetime of a series.
func NewEngine(w int) *Engine {
	if w < 1 {
		w = 1
	}
	return &Engine{window: w}
}

// -----------------------------------------------------------------------------

// Window returns the configured window size.
func (e *Engine) Window() int {
	return e.window
}

// -----------------------------------------------------------------------------

// WindowStats computes the mean and population standard deviation over
// the trailing window ending at index idx of prices, inclusive. ok is
// false while fewer than the window's worth of observations exist; the
// returned zeros must then not be used as statistics.
func (e *Engine) WindowStats(prices []float64, idx int) (avg, std float64, ok bool) {
	if idx < 0 || idx >= len(prices) || idx+1 < e.window {
		return 0, 0, false
	}
	avg, std = core.CalculateMeanStd(prices[idx+1-e.window : idx+1])
	return avg, std, true
}

// -----------------------------------------------------------------------------

// Next computes the point for one new observation appended after prev.
// prev must already be fully computed (e.g. by Batch or earlier Next
// calls). The carry-forward rule repeats the previous point's signal
// when the observation falls inside the band, and SignalNone stands in
// while no determined signal has ever been emitted. PnL prices the step
// with the previous point's signal, not the current one.
func (e *Engine) Next(prev []models.MPricePoint, timestamp int64, price float64) models.MPricePoint {
	pt := models.MPricePoint{
		Timestamp: timestamp,
		Price:     price,
		Signal:    models.SignalNone,
	}

	var last *models.MPricePoint
	if len(prev) > 0 {
		last = &prev[len(prev)-1]
	}

	// Trailing window of prices, ending at the new observation.
	n := len(prev) + 1
	if n >= e.window {
		window := make([]float64, 0, e.window)
		for _, p := range prev[len(prev)-(e.window-1):] {
			window = append(window, p.Price)
		}
		window = append(window, price)
		pt.RollingAvg, pt.RollingStd = core.CalculateMeanStd(window)
		pt.HasStats = true

		switch pos := ComputePosition(price, pt.RollingAvg, pt.RollingStd); pos {
		case PositionLong:
			pt.Signal = models.SignalLong
		case PositionShort:
			pt.Signal = models.SignalShort
		default:
			// Inside the band: carry the previous signal forward.
			if last != nil {
				pt.Signal = last.Signal
			}
		}
	}

	if last != nil {
		pt.PrevPrice = last.Price
		pt.PnL = last.Signal.Value() * (price - last.Price)
		pt.CumulativePnL = last.CumulativePnL + pt.PnL
	}

	return pt
}

// -----------------------------------------------------------------------------

// Batch computes the full point sequence for an ordered price history.
func (e *Engine) Batch(quotes []models.MQuote) []models.MPricePoint {
	points := make([]models.MPricePoint, 0, len(quotes))
	for _, q := range quotes {
		points = append(points, e.Next(points, q.Timestamp, q.Price))
	}
	return points
}
