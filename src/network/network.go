package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"signal-tracker/src/logger"
	"signal-tracker/src/models"
)

// -----------------------------------------------------------------------------

// Manager performs outbound HTTP requests with a bounded timeout and
// simple retry with backoff. Provider calls go through here so a slow
// upstream suspends only the calling goroutine.
type Manager struct {
	Config *models.MConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewManager(cfg *models.MConfig, log *logger.Logger) *Manager {
	timeout := cfg.Network.RequestTimeout
	if timeout <= 0 {
		timeout = 10
	}
	return &Manager{
		Config: cfg,
		Logger: log,
		Client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and returns the response body.
func (m *Manager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()

	attempts := m.Config.Network.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := m.getOnce(ctx, reqURL.String())
		if err == nil {
			return body, nil
		}
		lastErr = err
		m.Logger.Warning("GET %s attempt %d/%d failed: %v", reqURL.Host, attempt+1, attempts, err)
	}
	return nil, lastErr
}

// -----------------------------------------------------------------------------

func (m *Manager) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if ua := m.Config.Network.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
