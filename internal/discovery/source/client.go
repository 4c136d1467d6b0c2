// Package source implements the external data sources the discovery sessions
// collect from: certificate transparency (crt.sh), passive DNS
// (HackerTarget), BGP data (bgp.he.net) and IP-to-ASN mapping (Team Cymru).
//
// Every source checks the shared per-service quota limiter before each
// outbound request and additionally paces itself so bursts inside the quota
// stay polite.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
)

const userAgent = "scopehound/1.0"

// Options is the shared wiring every source receives.
type Options struct {
	// HTTPClient overrides the default client; tests point it at a local
	// server. Nil gets a client with Timeout applied.
	HTTPClient *http.Client

	// Limiter is the shared per-service quota limiter. Nil disables quota
	// checks.
	Limiter *ratelimit.Limiter

	// Timeout bounds a single request when no HTTPClient is supplied.
	Timeout time.Duration

	// MaxRetries and RetryDelay govern transient-failure retries; delay
	// doubles per attempt.
	MaxRetries int
	RetryDelay time.Duration

	// PaceDelay is the minimum spacing between consecutive requests from one
	// source. Zero means one second.
	PaceDelay time.Duration
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) pacer() *rate.Limiter {
	delay := o.PaceDelay
	if delay <= 0 {
		delay = time.Second
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func (o Options) retries() (attempts int, delay time.Duration) {
	attempts = o.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay = o.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return attempts, delay
}

// acquire admits one request against the service quota, recording it on
// success. Exhausted quota comes back as a RateLimitError with the wait the
// caller should observe.
func acquire(limiter *ratelimit.Limiter, service string) error {
	if limiter == nil {
		return nil
	}
	if !limiter.Allow(service) {
		return &discovery.RateLimitError{
			Service:    service,
			RetryAfter: limiter.RetryAfter(service),
		}
	}
	limiter.Record(service)
	return nil
}

// withRetries runs fn up to attempts times with doubling delay. Quota
// exhaustion is never retried; the session-level limiter already knows the
// earliest useful retry time.
func withRetries(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		var rateErr *discovery.RateLimitError
		if errors.As(err, &rateErr) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

func newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}
