package market

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// transport wraps the HTTP client with rate limiting and retries.
type transport struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxRetry      time.Duration
	retryInterval time.Duration
}

// TransportOptions holds options for the underlying HTTP transport.
type TransportOptions struct {
	Timeout              time.Duration
	RequestsPerSec       int
	MaxRetryTimeout      time.Duration
	RetryInitialInterval time.Duration
}

func newTransport(opts TransportOptions) *transport {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}
	if opts.RetryInitialInterval == 0 {
		opts.RetryInitialInterval = backoff.DefaultInitialInterval
	}
	// An initial interval at or above the retry budget would stop the
	// backoff before the first retry fires.
	if opts.RetryInitialInterval >= opts.MaxRetryTimeout {
		opts.RetryInitialInterval = opts.MaxRetryTimeout / 2
	}

	return &transport{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:       rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		maxRetry:      opts.MaxRetryTimeout,
		retryInterval: opts.RetryInitialInterval,
	}
}

// doRequest performs an HTTP request with rate limiting and exponential
// backoff on failures and non-200 responses.
func (t *transport) doRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = t.httpClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return &HTTPStatusError{StatusCode: resp.StatusCode}
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = t.retryInterval
	backoffStrategy.MaxElapsedTime = t.maxRetry

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, err
	}

	return resp, nil
}

// HTTPStatusError represents an error due to a non-200 HTTP status code.
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return "non-200 status code: " + http.StatusText(e.StatusCode)
}
