package models

// -----------------------------------------------------------------------------
// Signal
// -----------------------------------------------------------------------------

// Signal is the discrete position held through a price step.
type Signal int8

const (
	SignalNone  Signal = 0
	SignalLong  Signal = 1
	SignalShort Signal = -1
)

// -----------------------------------------------------------------------------

func (s Signal) String() string {
	switch s {
	case SignalLong:
		return "long"
	case SignalShort:
		return "short"
	default:
		return "none"
	}
}

// -----------------------------------------------------------------------------

// Value returns the multiplier used for PnL attribution.
func (s Signal) Value() float64 {
	return float64(s)
}

// -----------------------------------------------------------------------------
// MQuote
// -----------------------------------------------------------------------------

// MQuote is a single (timestamp, price) observation from a provider.
type MQuote struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// -----------------------------------------------------------------------------
// MPricePoint
// -----------------------------------------------------------------------------

// MPricePoint is one fully computed observation in a price series.
// All derived fields are fixed at insertion time and never revised.
// HasStats is false for the first W-1 points of a series, where the
// rolling window is not yet filled and RollingAvg/RollingStd are
// meaningless rather than zero.
type MPricePoint struct {
	Timestamp     int64   `json:"timestamp"`
	Price         float64 `json:"price"`
	RollingAvg    float64 `json:"rolling_avg"`
	RollingStd    float64 `json:"rolling_std"`
	HasStats      bool    `json:"has_stats"`
	Signal        Signal  `json:"signal"`
	PrevPrice     float64 `json:"prev_price"`
	PnL           float64 `json:"pnl"`
	CumulativePnL float64 `json:"cumulative_pnl"`
}

// -----------------------------------------------------------------------------
// MPointUpdate
// -----------------------------------------------------------------------------

// MPointUpdate is the payload broadcast to websocket subscribers when a
// new point is appended to a series.
type MPointUpdate struct {
	Type   string      `json:"type"` // "INITIAL" or "UPDATE"
	Symbol string      `json:"symbol"`
	Point  MPricePoint `json:"point"`
}
