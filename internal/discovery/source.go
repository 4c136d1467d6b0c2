package discovery

import "context"

// Query is the only session state a source sees: the search terms, base
// domains, and cross-session discovered IPs. Sources have no visibility into
// filtering or validation.
type Query struct {
	SearchTerms   []string
	BaseDomains   []string
	DiscoveredIPs []string
}

// Item is one raw finding from a source.
type Item struct {
	Identifier string
	Metadata   Metadata
}

// SourceResult is what a source returns for one discovery call. Confidence
// is the source's prior for every item it produced; returning zero items is
// legitimate and not an error.
type SourceResult struct {
	Items      []Item
	SourceName string
	Confidence float64
	APICalls   int
}

// Source produces raw candidates from one external origin (certificate
// logs, BGP data, passive DNS, IP-to-ASN mapping). Each source owns its own
// outbound rate limiting, keyed by its service name on the shared limiter,
// and must honor context cancellation promptly.
type Source interface {
	Name() string
	Discover(ctx context.Context, query Query) (*SourceResult, error)
}
