package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scopehound/scopehound/internal/discovery/validate"
)

// Context is the immutable-after-construction input to a discovery session.
// It is built once per scan request and read-only to sources and filters;
// the iteration counters bound multi-pass discovery.
type Context struct {
	TargetOrganization string

	searchTerms    map[string]struct{}
	baseDomains    map[string]struct{}
	discoveredASNs map[int]struct{}
	discoveredIPs  map[string]struct{}

	Iteration     int
	MaxIterations int
}

// NewContext creates a context for one target organization with the
// default iteration bound.
func NewContext(organization string) *Context {
	return &Context{
		TargetOrganization: strings.TrimSpace(organization),
		searchTerms:        make(map[string]struct{}),
		baseDomains:        make(map[string]struct{}),
		discoveredASNs:     make(map[int]struct{}),
		discoveredIPs:      make(map[string]struct{}),
		Iteration:          1,
		MaxIterations:      3,
	}
}

// AddSearchTerm normalizes and adds a term. Terms shorter than two
// characters after trimming are rejected.
func (c *Context) AddSearchTerm(term string) bool {
	t := normalizeTerm(term)
	if len(t) < 2 {
		return false
	}
	c.searchTerms[t] = struct{}{}
	return true
}

// AddBaseDomain adds a lower-cased base domain. Anything without a dot is
// rejected.
func (c *Context) AddBaseDomain(domain string) bool {
	d := normalizeTerm(domain)
	if d == "" || !strings.Contains(d, ".") {
		return false
	}
	c.baseDomains[d] = struct{}{}
	return true
}

// AddDiscoveredASN accumulates an AS number for cross-session enrichment.
func (c *Context) AddDiscoveredASN(number int) {
	c.discoveredASNs[number] = struct{}{}
}

// AddDiscoveredIP accumulates a resolved IP for cross-session enrichment.
func (c *Context) AddDiscoveredIP(ip string) {
	if ip = strings.TrimSpace(ip); ip != "" {
		c.discoveredIPs[ip] = struct{}{}
	}
}

// SearchTerms returns the session's search terms, sorted.
func (c *Context) SearchTerms() []string { return sortedKeys(c.searchTerms) }

// BaseDomains returns the session's base domains, sorted.
func (c *Context) BaseDomains() []string { return sortedKeys(c.baseDomains) }

// DiscoveredIPs returns the accumulated IPs, sorted.
func (c *Context) DiscoveredIPs() []string { return sortedKeys(c.discoveredIPs) }

// DiscoveredASNs returns the accumulated AS numbers, sorted.
func (c *Context) DiscoveredASNs() []int {
	numbers := make([]int, 0, len(c.discoveredASNs))
	for n := range c.discoveredASNs {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Validate returns every problem that makes the context unusable for a
// session: short organization name, malformed base domains, missing or short
// search terms.
func (c *Context) Validate() []string {
	var problems []string

	if len(strings.TrimSpace(c.TargetOrganization)) < 2 {
		problems = append(problems, "target organization is required and must be at least 2 characters")
	}
	for _, domain := range c.BaseDomains() {
		if !validate.ValidDomain(domain) {
			problems = append(problems, fmt.Sprintf("invalid base domain: %s", domain))
		}
	}
	if len(c.searchTerms) == 0 {
		problems = append(problems, "at least one search term is required")
	}
	for term := range c.searchTerms {
		if len(strings.TrimSpace(term)) < 2 {
			problems = append(problems, fmt.Sprintf("search term too short: %q", term))
		}
	}
	return problems
}
