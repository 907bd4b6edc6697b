package datasource

import (
	"context"

	"signal-tracker/src/data_source/alphavantage"
	"signal-tracker/src/data_source/finnhub"
	"signal-tracker/src/interfaces"
	"signal-tracker/src/logger"
	"signal-tracker/src/models"
)

// -----------------------------------------------------------------------------

// Provider implements IMarketProvider by composing the two upstreams:
// Alpha Vantage for intraday history and Finnhub for live quotes.
type Provider struct {
	History *alphavantage.Client
	Quotes  *finnhub.Client
}

// -----------------------------------------------------------------------------

// Credentials for the upstream APIs, supplied via the environment.
type Credentials struct {
	AlphaVantageToken string `envconfig:"AV_TOKEN" required:"true"`
	FinnhubToken      string `envconfig:"FH_TOKEN" required:"true"`
}

// -----------------------------------------------------------------------------

func NewProvider(creds Credentials, intervalMinutes int, netMgr interfaces.INetworkManager, log *logger.Logger) *Provider {
	return &Provider{
		History: alphavantage.NewClient(creds.AlphaVantageToken, intervalMinutes, netMgr, log.Named("alphavantage")),
		Quotes:  finnhub.NewClient(creds.FinnhubToken, netMgr, log.Named("finnhub")),
	}
}

// -----------------------------------------------------------------------------

func (p *Provider) FetchHistory(ctx context.Context, symbol string) ([]models.MQuote, error) {
	return p.History.FetchHistory(ctx, symbol)
}

// -----------------------------------------------------------------------------

func (p *Provider) FetchLatestQuote(ctx context.Context, symbol string) (models.MQuote, error) {
	return p.Quotes.FetchLatestQuote(ctx, symbol)
}
