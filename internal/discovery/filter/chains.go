// Package filter provides the candidate filters and the standard chains the
// discovery sessions run between collection and validation. Filters are
// cheap, in-memory predicates; dropping a candidate is silent.
package filter

import "github.com/scopehound/scopehound/internal/discovery"

// NewDomainChain is the standard chain for domain and subdomain sessions:
// junk removal, relevance against the target terms, session-level dedup,
// then subdomain-shape confidence annotation.
func NewDomainChain(terms []string) *discovery.Chain {
	return discovery.NewChain(
		NewQuality(),
		NewRelevance(terms),
		NewDuplicate(),
		NewSubdomain(),
	)
}

// ASNChainConfig tunes the standard AS chain.
type ASNChainConfig struct {
	Terms         []string
	MinConfidence float64
	MinRelevance  float64
	AllowPrivate  bool
	Prefer16Bit   bool
}

// DefaultASNChainConfig keeps private assignments and applies the standard
// floors.
func DefaultASNChainConfig(terms []string) ASNChainConfig {
	return ASNChainConfig{
		Terms:         terms,
		MinConfidence: 0.3,
		MinRelevance:  0.2,
		AllowPrivate:  true,
	}
}

// NewASNChain is the standard chain for AS sessions: number-range policy
// first so its confidence scaling is visible to the quality check, then
// quality, relevance, and dedup by numeric value.
func NewASNChain(cfg ASNChainConfig) *discovery.Chain {
	return discovery.NewChain(
		NewASNRange(cfg.AllowPrivate, cfg.Prefer16Bit),
		NewASNQuality(cfg.MinConfidence),
		NewASNRelevance(cfg.Terms, cfg.MinRelevance),
		NewASNDuplicate(),
	)
}
