package source

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
)

const (
	hackerTargetService    = "hackertarget"
	hackerTargetConfidence = 0.7
)

// HackerTarget queries the HackerTarget host-search API, which returns
// passive-DNS derived hostnames with their resolved IPs as CSV. The free
// tier is tightly quota'd, which the shared limiter encodes.
type HackerTarget struct {
	// BaseURL is overridable for tests.
	BaseURL string

	client     *http.Client
	limiter    *ratelimit.Limiter
	pace       *rate.Limiter
	attempts   int
	retryDelay time.Duration
}

// NewHackerTarget wires the source against the shared limiter.
func NewHackerTarget(opts Options) *HackerTarget {
	attempts, delay := opts.retries()
	return &HackerTarget{
		BaseURL:    "https://api.hackertarget.com",
		client:     opts.httpClient(),
		limiter:    opts.Limiter,
		pace:       opts.pacer(),
		attempts:   attempts,
		retryDelay: delay,
	}
}

func (s *HackerTarget) Name() string { return hackerTargetService }

// Discover searches every base domain. The API reports quota exhaustion in
// the response body rather than a status code; that is surfaced as a rate
// limit error so the caller backs off instead of retrying.
func (s *HackerTarget) Discover(ctx context.Context, query discovery.Query) (*discovery.SourceResult, error) {
	result := &discovery.SourceResult{
		SourceName: s.Name(),
		Confidence: hackerTargetConfidence,
	}

	seen := make(map[string]struct{})
	var firstErr error

	for _, domain := range query.BaseDomains {
		items, err := s.search(ctx, domain, result)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("searching %s: %w", domain, err)
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for _, item := range items {
			if _, dup := seen[item.Identifier]; dup {
				continue
			}
			seen[item.Identifier] = struct{}{}
			result.Items = append(result.Items, item)
		}
	}

	if len(result.Items) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func (s *HackerTarget) search(ctx context.Context, domain string, result *discovery.SourceResult) ([]discovery.Item, error) {
	if err := s.pace.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/hostsearch/?q=%s", s.BaseURL, url.QueryEscape(domain))

	var items []discovery.Item
	err := withRetries(ctx, s.attempts, s.retryDelay, func() error {
		// Every attempt is a real request against the provider, so each
		// one takes a quota slot.
		if err := acquire(s.limiter, hackerTargetService); err != nil {
			return err
		}
		req, err := newRequest(ctx, endpoint)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		result.APICalls++

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		items = items[:0]
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if strings.Contains(line, "API count exceeded") {
				return &discovery.RateLimitError{
					Service:    hackerTargetService,
					RetryAfter: time.Hour,
				}
			}
			fqdn, ip, found := strings.Cut(line, ",")
			fqdn = strings.ToLower(strings.TrimSpace(fqdn))
			if fqdn == "" || !strings.Contains(fqdn, ".") {
				continue
			}
			item := discovery.Item{Identifier: fqdn}
			if found {
				if ip = strings.TrimSpace(ip); ip != "" {
					item.Metadata.ResolvedIPs = []string{ip}
				}
			}
			items = append(items, item)
		}
		return scanner.Err()
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
