package finnhub

import (
	"context"
	"encoding/json"
	"fmt"

	"signal-tracker/src/interfaces"
	"signal-tracker/src/logger"
	"signal-tracker/src/models"
	"signal-tracker/src/store"
)

const baseURL = "https://finnhub.io/api/v1/quote"

// -----------------------------------------------------------------------------

// Client fetches real-time quotes from the Finnhub quote endpoint.
type Client struct {
	Token   string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewClient(token string, netMgr interfaces.INetworkManager, log *logger.Logger) *Client {
	return &Client{Token: token, Network: netMgr, Logger: log}
}

// -----------------------------------------------------------------------------

type quoteResponse struct {
	Current   float64 `json:"c"`
	Timestamp int64   `json:"t"`
}

// -----------------------------------------------------------------------------

// FetchLatestQuote returns the most recent quote for symbol.
func (c *Client) FetchLatestQuote(ctx context.Context, symbol string) (models.MQuote, error) {
	body, err := c.Network.Get(ctx, baseURL, map[string]string{
		"symbol": symbol,
		"token":  c.Token,
	})
	if err != nil {
		return models.MQuote{}, fmt.Errorf("%w: %v", store.ErrProviderUnavailable, err)
	}

	var q quoteResponse
	if err := json.Unmarshal(body, &q); err != nil {
		return models.MQuote{}, fmt.Errorf("%w: malformed quote: %v", store.ErrProviderUnavailable, err)
	}
	// Finnhub answers unknown symbols with an all-zero quote.
	if q.Timestamp == 0 {
		return models.MQuote{}, fmt.Errorf("%w: no quote for %s", store.ErrProviderUnavailable, symbol)
	}

	return models.MQuote{Symbol: symbol, Timestamp: q.Timestamp, Price: q.Current}, nil
}
