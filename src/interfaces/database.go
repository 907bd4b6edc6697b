package interfaces

import "signal-tracker/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SavePricePoints inserts (or replaces) a batch of computed points for
	// a symbol.
	SavePricePoints(symbol string, points []models.MPricePoint) error

	// -----------------------------------------------------------------------------

	// LoadHistory returns the stored (timestamp, price) observations for a
	// symbol, ordered by ascending timestamp. Derived fields are not
	// returned; callers recompute them.
	LoadHistory(symbol string) ([]models.MQuote, error)

	// -----------------------------------------------------------------------------

	// DeleteSymbol removes all stored points for a symbol.
	DeleteSymbol(symbol string) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
