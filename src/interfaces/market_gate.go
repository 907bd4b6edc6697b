package interfaces

// -----------------------------------------------------------------------------
// IMarketGate answers whether any tracked market is currently open.
// -----------------------------------------------------------------------------

type IMarketGate interface {

	// UpdateSymbols rebuilds the symbol -> exchange calendar mapping from
	// the currently tracked set.
	UpdateSymbols(symbols []string)

	// -----------------------------------------------------------------------------

	// AnyMarketOpen reports whether at least one tracked market is open
	// right now. False with no tracked symbols.
	AnyMarketOpen() bool
}
