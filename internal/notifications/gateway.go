package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	pkgerrors "storefront-backend/pkg/errors"
)

// gatewayClient posts JSON payloads to an external messaging gateway with
// bounded retries. Client errors are terminal; 5xx and transport errors
// are retried.
type gatewayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

func newGatewayClient(baseURL, apiKey string, attempts int, backoff time.Duration) *gatewayClient {
	if attempts <= 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return &gatewayClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		attempts:   attempts,
		backoff:    backoff,
	}
}

func (g *gatewayClient) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(uint64(g.attempts-1), retry.NewConstant(g.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if g.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+g.apiKey)
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("gateway returned %d", resp.StatusCode))
		default:
			return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway rejected message with %d", resp.StatusCode))
		}
	})
}
