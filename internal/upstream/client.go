// Package upstream is the HTTP plumbing shared by every data-source client:
// a per-provider circuit breaker, a token-bucket rate limit, a request
// timeout and Prometheus fetch metrics.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/web3-frozen/near-dashboard/internal/metrics"
)

// maxBody caps a single response; DefiLlama protocol payloads run to tens of MB.
const maxBody = 128 << 20

// ErrStatus matches any non-2xx upstream response via errors.Is.
var ErrStatus = errors.New("unexpected upstream status")

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Provider         string
	Timeout          time.Duration
	RPS              float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Header           http.Header
	HTTPClient       *http.Client
}

// Client performs JSON requests against a single provider.
type Client struct {
	provider string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	header   http.Header
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Burst == 0 {
		opts.Burst = 1
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Provider,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		// A 4xx is the provider answering correctly about a bad request
		// (unknown slug, retired query); only transport errors and 5xx trip.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.UpstreamBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &Client{
		provider: opts.Provider,
		http:     hc,
		limiter:  rate.NewLimiter(limit, opts.Burst),
		breaker:  breaker,
		header:   opts.Header,
	}
}

// Provider returns the provider label used for metrics and errors.
func (c *Client) Provider() string { return c.provider }

// GetJSON issues a GET and decodes the JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.provider, err)
	}
	return c.do(req, dst)
}

// PostJSON encodes body as JSON, POSTs it and decodes the response into dst.
func (c *Client) PostJSON(ctx context.Context, url string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dst)
}

func (c *Client) do(req *http.Request, dst any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("%s: rate limit: %w", c.provider, err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, &StatusError{Provider: c.provider, Code: resp.StatusCode}
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxBody))
	})
	metrics.UpstreamDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.provider, "error").Inc()
		if errors.Is(err, ErrStatus) {
			return err
		}
		return fmt.Errorf("%s: %w", c.provider, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(c.provider, "ok").Inc()

	if err := json.Unmarshal(out.([]byte), dst); err != nil {
		return fmt.Errorf("decode %s: %w", c.provider, err)
	}
	return nil
}
