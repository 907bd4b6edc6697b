package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager performs outbound HTTP requests with retries.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// Get performs a GET request and returns the response body.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}
