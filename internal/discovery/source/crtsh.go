package source

import (
	"context"
	"encoding/json"
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
	crtshService    = "crt.sh"
	crtshConfidence = 0.8
)

// CrtSh queries certificate transparency logs for names issued under each
// base domain. CT logs are public and authoritative, so findings carry a
// high prior.
type CrtSh struct {
	// BaseURL is overridable for tests.
	BaseURL string

	client     *http.Client
	limiter    *ratelimit.Limiter
	pace       *rate.Limiter
	attempts   int
	retryDelay time.Duration
}

// NewCrtSh wires the source against the shared limiter.
func NewCrtSh(opts Options) *CrtSh {
	attempts, delay := opts.retries()
	return &CrtSh{
		BaseURL:    "https://crt.sh",
		client:     opts.httpClient(),
		limiter:    opts.Limiter,
		pace:       opts.pacer(),
		attempts:   attempts,
		retryDelay: delay,
	}
}

func (s *CrtSh) Name() string { return crtshService }

// Discover searches every base domain; a failing domain does not abort the
// rest, but a session with zero findings surfaces the first failure.
func (s *CrtSh) Discover(ctx context.Context, query discovery.Query) (*discovery.SourceResult, error) {
	result := &discovery.SourceResult{
		SourceName: s.Name(),
		Confidence: crtshConfidence,
	}

	seen := make(map[string]struct{})
	var firstErr error

	for _, domain := range query.BaseDomains {
		names, err := s.search(ctx, domain, result)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("searching %s: %w", domain, err)
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			result.Items = append(result.Items, discovery.Item{Identifier: name})
		}
	}

	if len(result.Items) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

type crtshEntry struct {
	CommonName string `json:"common_name"`
	NameValue  string `json:"name_value"`
}

func (s *CrtSh) search(ctx context.Context, domain string, result *discovery.SourceResult) ([]string, error) {
	if err := s.pace.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/?q=%s&output=json", s.BaseURL, url.QueryEscape("%."+domain))

	var entries []crtshEntry
	err := withRetries(ctx, s.attempts, s.retryDelay, func() error {
		// Every attempt is a real request against the provider, so each
		// one takes a quota slot.
		if err := acquire(s.limiter, crtshService); err != nil {
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
		entries = entries[:0]
		return json.NewDecoder(resp.Body).Decode(&entries)
	})
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		for _, raw := range append(strings.Split(entry.NameValue, "\n"), entry.CommonName) {
			if name, ok := normalizeCertName(raw); ok {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// normalizeCertName lowercases, strips wildcard prefixes, and rejects
// entries that are not hostnames (email addresses, spaces).
func normalizeCertName(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "*.")
	if name == "" || !strings.Contains(name, ".") {
		return "", false
	}
	if strings.ContainsAny(name, " @") {
		return "", false
	}
	return name, true
}
