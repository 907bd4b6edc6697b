package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"signal-tracker/src/interfaces"
	"signal-tracker/src/logger"
	"signal-tracker/src/models"
	"signal-tracker/src/store"
)

const baseURL = "https://www.alphavantage.co/query"

// Intraday timestamps from Alpha Vantage are US/Eastern wall-clock.
const timeLayout = "2006-01-02 15:04:05"

// -----------------------------------------------------------------------------

// Client fetches full intraday price history from the Alpha Vantage
// TIME_SERIES_INTRADAY endpoint.
type Client struct {
	Token           string
	IntervalMinutes int
	Network         interfaces.INetworkManager
	Logger          *logger.Logger
	location        *time.Location
}

// -----------------------------------------------------------------------------

func NewClient(token string, intervalMinutes int, netMgr interfaces.INetworkManager, log *logger.Logger) *Client {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Warning("failed to load America/New_York, falling back to UTC: %v", err)
		loc = time.UTC
	}
	return &Client{
		Token:           token,
		IntervalMinutes: intervalMinutes,
		Network:         netMgr,
		Logger:          log,
		location:        loc,
	}
}

// -----------------------------------------------------------------------------

type intradayBar struct {
	Close string `json:"4. close"`
}

// -----------------------------------------------------------------------------

// FetchHistory returns the symbol's full intraday history, ordered by
// ascending timestamp, using closing prices.
func (c *Client) FetchHistory(ctx context.Context, symbol string) ([]models.MQuote, error) {
	body, err := c.Network.Get(ctx, baseURL, map[string]string{
		"function":   "TIME_SERIES_INTRADAY",
		"symbol":     symbol,
		"interval":   fmt.Sprintf("%dmin", c.IntervalMinutes),
		"outputsize": "full",
		"apikey":     c.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrProviderUnavailable, err)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", store.ErrProviderUnavailable, err)
	}
	if _, found := envelope["Error Message"]; found {
		return nil, fmt.Errorf("%w: %s", store.ErrInvalidTicker, symbol)
	}

	seriesKey := fmt.Sprintf("Time Series (%dmin)", c.IntervalMinutes)
	raw, found := envelope[seriesKey]
	if !found {
		return nil, fmt.Errorf("%w: response missing %q", store.ErrProviderUnavailable, seriesKey)
	}

	var bars map[string]intradayBar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, fmt.Errorf("%w: malformed time series: %v", store.ErrProviderUnavailable, err)
	}

	quotes := make([]models.MQuote, 0, len(bars))
	for stamp, bar := range bars {
		ts, err := time.ParseInLocation(timeLayout, stamp, c.location)
		if err != nil {
			c.Logger.Warning("%s: skipping bar with bad timestamp %q", symbol, stamp)
			continue
		}
		price, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			c.Logger.Warning("%s: skipping bar with bad close %q", symbol, bar.Close)
			continue
		}
		quotes = append(quotes, models.MQuote{
			Symbol:    symbol,
			Timestamp: ts.Unix(),
			Price:     price,
		})
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Timestamp < quotes[j].Timestamp })

	c.Logger.Debug("%s: fetched %d historical bars", symbol, len(quotes))
	return quotes, nil
}
