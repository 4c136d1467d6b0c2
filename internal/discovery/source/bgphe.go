package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
)

const (
	bgpHEService    = "bgp.he.net"
	bgpHEConfidence = 0.7
)

var asLinkPattern = regexp.MustCompile(`AS(\d+)`)

// BGPHE scrapes the Hurricane Electric BGP toolkit search for autonomous
// systems matching the organization's search terms. Results come from an
// HTML table, so parsing tolerates missing cells.
type BGPHE struct {
	// BaseURL is overridable for tests.
	BaseURL string

	client     *http.Client
	limiter    *ratelimit.Limiter
	pace       *rate.Limiter
	attempts   int
	retryDelay time.Duration
}

// NewBGPHE wires the source against the shared limiter.
func NewBGPHE(opts Options) *BGPHE {
	attempts, delay := opts.retries()
	return &BGPHE{
		BaseURL:    "https://bgp.he.net",
		client:     opts.httpClient(),
		limiter:    opts.Limiter,
		pace:       opts.pacer(),
		attempts:   attempts,
		retryDelay: delay,
	}
}

func (s *BGPHE) Name() string { return bgpHEService }

// Discover searches every term; failing terms do not abort the rest.
func (s *BGPHE) Discover(ctx context.Context, query discovery.Query) (*discovery.SourceResult, error) {
	result := &discovery.SourceResult{
		SourceName: s.Name(),
		Confidence: bgpHEConfidence,
	}

	seen := make(map[string]struct{})
	var firstErr error

	for _, term := range query.SearchTerms {
		items, err := s.search(ctx, term, result)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("searching %q: %w", term, err)
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

func (s *BGPHE) search(ctx context.Context, term string, result *discovery.SourceResult) ([]discovery.Item, error) {
	if err := s.pace.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search?search%%5Bsearch%%5D=%s&commit=Search",
		s.BaseURL, url.QueryEscape(term))

	var doc *goquery.Document
	err := withRetries(ctx, s.attempts, s.retryDelay, func() error {
		// Every attempt is a real request against the provider, so each
		// one takes a quota slot.
		if err := acquire(s.limiter, bgpHEService); err != nil {
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
		doc, err = goquery.NewDocumentFromReader(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return parseBGPHETable(doc), nil
}

// parseBGPHETable extracts AS rows from the results table. The site has
// shipped two layouts; try the current one, then the legacy id.
func parseBGPHETable(doc *goquery.Document) []discovery.Item {
	table := doc.Find("table.w100p").First()
	if table.Length() == 0 {
		table = doc.Find("table#search").First()
	}
	if table.Length() == 0 {
		return nil
	}

	var items []discovery.Item
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		link := cells.Eq(0).Find("a").First().Text()
		m := asLinkPattern.FindStringSubmatch(link)
		if m == nil {
			return
		}

		name := strings.TrimSpace(cells.Eq(1).Text())
		country := ""
		if cells.Length() > 2 {
			country = strings.TrimSpace(cells.Eq(2).Text())
		}

		items = append(items, discovery.Item{
			Identifier: "AS" + m[1],
			Metadata: discovery.Metadata{
				Name:        name,
				Description: name,
				Country:     country,
			},
		})
	})
	return items
}
