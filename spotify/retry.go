// ABOUTME: Retry with exponential backoff for throttled or failing API requests
// ABOUTME: Non-idempotent requests are only resent after a 429, which the API answers before doing any work

package spotify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// doRequestWithRetry sends req, waiting on the rate limiter before every attempt.
//
// GET and other idempotent requests are retried on transport errors, 429 and 5xx.
// POST and PATCH are retried on 429 only: after a 5xx or a dropped connection
// the server may already have created the playlist or appended the tracks.
// A response that is not retried is returned as is for the caller to check.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	if err := bufferBody(req); err != nil {
		return nil, err
	}

	ctx := req.Context()

	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("request canceled: %w", err)
			}
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("reset request body: %w", err)
			}

			req.Body = body
		}

		resp, err := c.httpClient.Do(req)

		delay, retry := retryDelay(req.Method, resp, err)
		if !retry {
			return resp, err
		}

		failure := err
		if resp != nil {
			failure = &APIError{Status: resp.StatusCode, Endpoint: req.URL.Path}
			_ = resp.Body.Close()
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("request canceled: %w", ctx.Err())
		}

		if attempt == attempts {
			return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, failure)
		}

		if delay == 0 {
			delay = c.backoff(attempt)
		}

		c.logger.Warn("retrying request",
			"method", req.Method,
			"path", req.URL.Path,
			"attempt", attempt,
			"max", attempts,
			"delay", delay,
			"error", failure)

		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// backoff doubles the base delay for every failed attempt
func (c *Client) backoff(attempt int) time.Duration {
	base := c.baseBackoff
	if base <= 0 {
		base = defaultBackoff
	}

	return base << (attempt - 1)
}

// bufferBody makes the request body replayable for later attempts
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()

	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	return nil
}

// idempotent reports whether resending method cannot duplicate a side effect
func idempotent(method string) bool {
	return method != http.MethodPost && method != http.MethodPatch
}

// retryDelay reports whether an attempt should be repeated, and the delay the server asked for
func retryDelay(method string, resp *http.Response, err error) (time.Duration, bool) {
	switch {
	case err != nil:
		return 0, idempotent(method)
	case resp == nil:
		return 0, false
	case resp.StatusCode == http.StatusTooManyRequests:
		return parseRetryAfter(resp), true
	case resp.StatusCode >= http.StatusInternalServerError:
		return parseRetryAfter(resp), idempotent(method)
	default:
		return 0, false
	}
}

// parseRetryAfter reads Retry-After as seconds or an HTTP date, 0 when absent or past
func parseRetryAfter(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return max(0, time.Duration(seconds)*time.Second)
	}

	if when, err := http.ParseTime(value); err == nil {
		return max(0, time.Until(when))
	}

	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
