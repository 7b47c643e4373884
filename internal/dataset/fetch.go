package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

// FetchOptions controls HTTP retrieval of remote datasets.
type FetchOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.Timeout <= 0 {
		o.Timeout = 120 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 500 * time.Millisecond
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// fetch GETs url and returns the response body. Network errors, 429 and 5xx
// responses are retried with exponential backoff; Retry-After is honoured.
func fetch(ctx context.Context, url string, opt FetchOptions) (io.ReadCloser, error) {
	opt = opt.withDefaults()
	backoff := opt.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= opt.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "musicdash")

		resp, err := opt.Client.Do(req)
		if err != nil {
			if !isRetryableNetErr(err) || attempt == opt.MaxAttempts {
				return nil, fmt.Errorf("http request: %w", err)
			}
			lastErr = err
			if err := sleepWithContext(ctx, capDelay(withJitter(backoff), opt.MaxDelay)); err != nil {
				return nil, err
			}
			backoff *= 2
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp.Body, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if !retryable || attempt == opt.MaxAttempts {
			return nil, httpErr
		}
		lastErr = httpErr
		sleep := capDelay(withJitter(backoff), opt.MaxDelay)
		if ra := parseRetryAfter(resp.Header.Get("Retry-After")); ra > 0 {
			sleep = capDelay(ra, opt.MaxDelay)
		}
		if err := sleepWithContext(ctx, sleep); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", opt.MaxAttempts, lastErr)
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfter interprets a Retry-After header as seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	// +/- 10%
	j := time.Duration(rand.Int63n(int64(d)/5+1)) - d/10
	return d + j
}

func capDelay(d, limit time.Duration) time.Duration {
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
