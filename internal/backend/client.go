// Package backend checks that the tournament runner's HTTP dashboard is
// reachable before the websocket link is opened.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
	userAgent      string
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

// WithRetry sets the total number of attempts.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 4},
		defaultTimeout: 5 * time.Second,
		retryMax:       3,
		userAgent:      "arena-console",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProbeResult describes the last attempt of a probe.
type ProbeResult struct {
	URL      string
	Status   int
	Attempts int
	Latency  time.Duration
	Server   string
}

var ErrUnhealthy = errors.New("backend: unhealthy")

// Probe GETs the dashboard root. Transport errors and 5xx answers are
// retried with backoff; other non-2xx answers fail at once.
func (c *Client) Probe(ctx context.Context) (ProbeResult, error) {
	res := ProbeResult{URL: c.baseURL + "/"}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(res.URL)
	req.Header.SetUserAgent(c.userAgent)

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res.Attempts = attempt
		started := time.Now()
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		res.Latency = time.Since(started)
		if err != nil {
			lastErr = fmt.Errorf("backend: request failed: %w", err)
			if attempt == attempts {
				return res, lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return res, lastErr
			}
			continue
		}

		res.Status = resp.StatusCode()
		res.Server = string(resp.Header.Peek(fasthttp.HeaderServer))
		if res.Status >= 200 && res.Status < 300 {
			return res, nil
		}
		lastErr = fmt.Errorf("%w: status=%d body=%s", ErrUnhealthy, res.Status, truncate(string(resp.Body()), 256))
		if attempt == attempts || !shouldRetryStatus(res.Status) {
			return res, lastErr
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return res, lastErr
		}
	}
	return res, lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// 100ms, 200ms, ... capped at 3.2s
func backoffDuration(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
