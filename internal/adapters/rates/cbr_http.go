package rates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// statusError is a non-2xx answer from the rate feed.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("rate feed answered %d: %s", e.code, e.body)
}

// retryable reports whether another attempt may succeed: network failures,
// throttling and upstream 5xx. Anything else is final.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func (c *CBRRateSource) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
}

// fetch makes up to maxAttempts requests, doubling the pause after each
// retryable failure. Cancelling ctx aborts the wait.
func (c *CBRRateSource) fetch(ctx context.Context) (*http.Response, error) {
	wait := c.backoff

	for attempt := 1; ; attempt++ {
		resp, err := c.get(ctx)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= c.maxAttempts || !retryable(err) {
			return nil, fmt.Errorf("attempt %d/%d: %w", attempt, c.maxAttempts, err)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}
