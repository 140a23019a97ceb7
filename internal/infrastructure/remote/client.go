// Package remote implements the HTTP client for the external evaluation
// service.  Every call is bounded by a timeout and retried with exponential
// backoff on transient failures; the supplier pipeline never hangs on a
// slow or absent remote.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/VendorIQ-Intelligence/internal/config"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// Invoker is the call surface the registry sources depend on.
type Invoker interface {
	Invoke(ctx context.Context, endpoint string, payload any) (json.RawMessage, error)
}

// Client calls the remote evaluation service over HTTP with bounded
// timeouts and exponential-backoff retries.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxAttempts int
	backoffBase time.Duration
	metrics     *prometheus.AppMetrics
	logger      logging.Logger

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client from the remote section of the configuration.
func NewClient(cfg config.RemoteConfig, metrics *prometheus.AppMetrics, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultRemoteTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = config.DefaultRemoteMaxAttempts
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = config.DefaultRemoteBackoffBase
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		metrics:     metrics,
		logger:      logger.Named("remote"),
		sleep:       sleepContext,
	}
}

// Invoke POSTs the payload to baseURL+endpoint and returns the raw response
// body.  Timeouts, connection errors, HTTP 5xx and 429 are retried up to the
// configured attempt budget with exponential backoff; any other 4xx fails
// immediately.  The returned error carries RemoteUnavailable after the
// budget is exhausted.
func (c *Client) Invoke(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode remote request")
	}

	correlationID := uuid.NewString()
	timer := prometheus.NewTimer(c.metrics.RemoteDuration.WithLabelValues())
	defer timer.ObserveDuration()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.backoffBase * time.Duration(1<<uint(attempt-1))
			c.metrics.RemoteRetriesTotal.WithLabelValues(retryReason(lastErr)).Inc()
			c.logger.Warn("retrying remote call",
				logging.String("correlation_id", correlationID),
				logging.String("endpoint", endpoint),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff),
				logging.Err(lastErr))
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeRemoteUnavailable, "remote call cancelled during backoff")
			}
		}

		attemptStart := time.Now()
		raw, retryable, err := c.doOnce(ctx, endpoint, body, correlationID)
		if err == nil {
			c.logger.Debug("remote call succeeded",
				logging.String("correlation_id", correlationID),
				logging.String("endpoint", endpoint),
				logging.Int("attempt", attempt),
				logging.Duration("elapsed", time.Since(attemptStart)))
			c.metrics.RemoteRequestsTotal.WithLabelValues("success").Inc()
			return raw, nil
		}
		c.logger.Debug("remote call attempt failed",
			logging.String("correlation_id", correlationID),
			logging.String("endpoint", endpoint),
			logging.Int("attempt", attempt),
			logging.Duration("elapsed", time.Since(attemptStart)),
			logging.Err(err))
		if !retryable {
			c.metrics.RemoteRequestsTotal.WithLabelValues("rejected").Inc()
			return nil, err
		}
		lastErr = err
	}

	c.metrics.RemoteRequestsTotal.WithLabelValues("exhausted").Inc()
	return nil, errors.Wrap(lastErr, errors.ErrCodeRemoteUnavailable,
		fmt.Sprintf("remote call failed after %d attempts", c.maxAttempts))
}

// doOnce performs a single attempt.  The bool reports whether the failure
// is retryable.
func (c *Client) doOnce(ctx context.Context, endpoint string, body []byte, correlationID string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeInternal, "failed to build remote request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection errors are transient.
		return nil, true, errors.Wrap(err, errors.ErrCodeRemoteUnavailable, "remote request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.Wrap(err, errors.ErrCodeRemoteInvalidAnswer, "failed to read remote response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if !json.Valid(raw) {
			return nil, false, errors.New(errors.ErrCodeRemoteInvalidAnswer, "remote response is not valid JSON").
				WithDetail("correlation_id=" + correlationID)
		}
		return raw, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, errors.New(errors.ErrCodeRemoteUnavailable,
			fmt.Sprintf("remote returned HTTP %d", resp.StatusCode))
	default:
		// Other 4xx means the request itself is wrong; retrying cannot help.
		return nil, false, errors.New(errors.ErrCodeRemoteRejected,
			fmt.Sprintf("remote rejected request with HTTP %d", resp.StatusCode)).
			WithDetail("correlation_id=" + correlationID)
	}
}

func retryReason(err error) string {
	if err == nil {
		return "unknown"
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.GetCode(err) == errors.ErrCodeRemoteUnavailable {
		return "unavailable"
	}
	return "error"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
