// Package ratelimit provides per-service sliding-window admission control.
//
// One Limiter is shared by every source targeting the same external service
// so that independent call sites cannot jointly exceed a provider's limits.
// Construct it once and inject it; there is no package-level instance.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Limit is the per-service request ceiling for both sliding windows.
type Limit struct {
	PerMinute int
	PerHour   int
}

// DefaultLimit applies to services with no explicit configuration.
func DefaultLimit() Limit {
	return Limit{PerMinute: 60, PerHour: 1000}
}

// Limiter tracks rolling request timestamps per service. History is bounded
// to the hour window and pruned lazily on each check.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	history map[string][]time.Time
	now     func() time.Time
}

// New creates a limiter preloaded with the ceilings of the known external
// services. Unknown services fall back to DefaultLimit.
func New() *Limiter {
	return &Limiter{
		limits: map[string]Limit{
			"bgp.he.net":   {PerMinute: 30, PerHour: 1000},
			"crt.sh":       {PerMinute: 60, PerHour: 2000},
			"hackertarget": {PerMinute: 10, PerHour: 100},
			"dns":          {PerMinute: 120, PerHour: 5000},
		},
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// SetLimit overrides the ceiling for a service.
func (l *Limiter) SetLimit(service string, limit Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[service] = limit
}

// LimitFor returns the configured ceiling for a service.
func (l *Limiter) LimitFor(service string) Limit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limitLocked(service)
}

// Allow reports whether another request to the service fits both windows.
// It does not record anything; call Record once the request is actually sent.
func (l *Limiter) Allow(service string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	limit := l.limitLocked(service)
	history := l.pruneLocked(service, now)

	if len(history) >= limit.PerHour {
		return false
	}
	return l.countSince(history, now.Add(-minuteWindow)) < limit.PerMinute
}

// Record notes that a request was sent to the service.
func (l *Limiter) Record(service string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history[service] = append(l.history[service], l.now())
}

// RemainingQuota returns how many requests are left in the minute and hour
// windows for the service.
func (l *Limiter) RemainingQuota(service string) (perMinute, perHour int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	limit := l.limitLocked(service)
	history := l.pruneLocked(service, now)

	perHour = limit.PerHour - len(history)
	perMinute = limit.PerMinute - l.countSince(history, now.Add(-minuteWindow))
	if perHour < 0 {
		perHour = 0
	}
	if perMinute < 0 {
		perMinute = 0
	}
	return perMinute, perHour
}

// RetryAfter returns how long the caller should wait before the next request
// to the service has a chance of being admitted. Zero means go ahead now.
func (l *Limiter) RetryAfter(service string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	limit := l.limitLocked(service)
	history := l.pruneLocked(service, now)

	if len(history) >= limit.PerHour {
		// Oldest entry leaving the hour window frees a slot.
		return history[0].Add(hourWindow).Sub(now)
	}

	minuteAgo := now.Add(-minuteWindow)
	recent := l.countSince(history, minuteAgo)
	if recent >= limit.PerMinute {
		oldest := history[len(history)-recent]
		return oldest.Add(minuteWindow).Sub(now)
	}
	return 0
}

// Wait blocks until a request to the service is admitted or the context is
// done. It does not record the request.
func (l *Limiter) Wait(ctx context.Context, service string) error {
	for {
		if l.Allow(service) {
			return nil
		}
		delay := l.RetryAfter(service)
		if delay <= 0 {
			delay = time.Second
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) limitLocked(service string) Limit {
	if limit, ok := l.limits[service]; ok {
		return limit
	}
	return DefaultLimit()
}

// pruneLocked drops entries older than the hour window and returns the
// remaining history.
func (l *Limiter) pruneLocked(service string, now time.Time) []time.Time {
	history := l.history[service]
	cutoff := now.Add(-hourWindow)
	keep := 0
	for keep < len(history) && !history[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		history = append([]time.Time(nil), history[keep:]...)
		l.history[service] = history
	}
	return history
}

// countSince counts entries after the cutoff. History is append-only ordered,
// so scan from the back.
func (l *Limiter) countSince(history []time.Time, cutoff time.Time) int {
	count := 0
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].After(cutoff) {
			break
		}
		count++
	}
	return count
}
