package store

import "errors"

// -----------------------------------------------------------------------------
// Error taxonomy. NoData and the unfilled rolling window are states, not
// errors, and are reported through return values instead.
// -----------------------------------------------------------------------------

var (
	// ErrInvalidTicker: the provider rejected the symbol.
	ErrInvalidTicker = errors.New("invalid ticker")

	// ErrDuplicateTicker: add on an already tracked symbol.
	ErrDuplicateTicker = errors.New("duplicate ticker")

	// ErrTickerNotFound: delete or append on an untracked symbol.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrProviderUnavailable: network failure or timeout to the provider.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrStaleQuote: append with a timestamp not after the series' last.
	ErrStaleQuote = errors.New("stale quote")
)
