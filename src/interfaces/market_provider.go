package interfaces

import (
	"context"

	"signal-tracker/src/models"
)

// -----------------------------------------------------------------------------
// IMarketProvider is the external market-data collaborator.
// -----------------------------------------------------------------------------

type IMarketProvider interface {

	// FetchHistory retrieves the full intraday price history for a symbol
	// at the configured sampling interval, ordered by ascending timestamp.
	FetchHistory(ctx context.Context, symbol string) ([]models.MQuote, error)

	// -----------------------------------------------------------------------------

	// FetchLatestQuote retrieves the most recent quote for a symbol.
	FetchLatestQuote(ctx context.Context, symbol string) (models.MQuote, error)
}
