package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"golang.org/x/time/rate"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
)

const (
	ipToASNService    = "dns"
	ipToASNConfidence = 0.9

	originZone = "origin.asn.cymru.com"
	asZone     = "asn.cymru.com"

	maxSeedDomains = 10
	maxSeedIPs     = 20
)

// Resolver is the subset of net.Resolver the discovery sources use.
// *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// IPToASN maps already-discovered IPs to the autonomous systems announcing
// them, via Team Cymru's DNS interface. Routing-table derived, so it carries
// the highest source prior. With no discovered IPs it seeds itself by
// resolving the base domains.
type IPToASN struct {
	resolver Resolver
	limiter  *ratelimit.Limiter
	pace     *rate.Limiter
}

// NewIPToASN wires the source. A nil resolver uses the system resolver.
func NewIPToASN(resolver Resolver, opts Options) *IPToASN {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &IPToASN{
		resolver: resolver,
		limiter:  opts.Limiter,
		pace:     opts.pacer(),
	}
}

func (s *IPToASN) Name() string { return "ip-to-asn" }

// Discover maps each seed IP to its origin AS and enriches the AS with its
// registry description. Per-IP failures are skipped; DNS is lossy.
func (s *IPToASN) Discover(ctx context.Context, query discovery.Query) (*discovery.SourceResult, error) {
	result := &discovery.SourceResult{
		SourceName: s.Name(),
		Confidence: ipToASNConfidence,
	}

	ips := query.DiscoveredIPs
	if len(ips) == 0 {
		seeded, err := s.seedFromDomains(ctx, query.BaseDomains, result)
		if err != nil {
			return nil, err
		}
		ips = seeded
	}
	if len(ips) > maxSeedIPs {
		ips = ips[:maxSeedIPs]
	}

	seen := make(map[int]struct{})
	for _, ip := range ips {
		numbers, err := s.originASNs(ctx, ip, result)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var rateErr *discovery.RateLimitError
			if errors.As(err, &rateErr) {
				return nil, err
			}
			continue
		}
		for _, number := range numbers {
			if _, dup := seen[number]; dup {
				continue
			}
			seen[number] = struct{}{}

			item := discovery.Item{Identifier: fmt.Sprintf("AS%d", number)}
			if name, country, err := s.describeASN(ctx, number, result); err == nil {
				item.Metadata.Name = name
				item.Metadata.Description = name
				item.Metadata.Country = country
			}
			result.Items = append(result.Items, item)
		}
	}
	return result, nil
}

// seedFromDomains resolves base domains to get starting IPs.
func (s *IPToASN) seedFromDomains(ctx context.Context, domains []string, result *discovery.SourceResult) ([]string, error) {
	if len(domains) > maxSeedDomains {
		domains = domains[:maxSeedDomains]
	}

	var ips []string
	seen := make(map[string]struct{})
	for _, domain := range domains {
		if err := s.admit(ctx); err != nil {
			return nil, err
		}
		addrs, err := s.resolver.LookupHost(ctx, domain)
		result.APICalls++
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		for _, addr := range addrs {
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			ips = append(ips, addr)
		}
	}
	return ips, nil
}

// originASNs queries the reversed-octet origin zone for one IPv4 address.
// The answer's first field can list several origin ASNs.
func (s *IPToASN) originASNs(ctx context.Context, ip string, result *discovery.SourceResult) ([]int, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return nil, fmt.Errorf("not an IPv4 address: %s", ip)
	}
	octets := addr.As4()
	name := fmt.Sprintf("%d.%d.%d.%d.%s", octets[3], octets[2], octets[1], octets[0], originZone)

	records, err := s.lookupTXT(ctx, name, result)
	if err != nil {
		return nil, err
	}

	var numbers []int
	for _, record := range records {
		fields := cymruFields(record)
		if len(fields) == 0 {
			continue
		}
		for _, token := range strings.Fields(fields[0]) {
			var n int
			if _, err := fmt.Sscanf(token, "%d", &n); err == nil && n > 0 {
				numbers = append(numbers, n)
			}
		}
	}
	return numbers, nil
}

// describeASN queries the AS zone for the registry name and country.
func (s *IPToASN) describeASN(ctx context.Context, number int, result *discovery.SourceResult) (name, country string, err error) {
	records, err := s.lookupTXT(ctx, fmt.Sprintf("AS%d.%s", number, asZone), result)
	if err != nil {
		return "", "", err
	}
	for _, record := range records {
		fields := cymruFields(record)
		// "15169 | US | arin | 2000-03-30 | GOOGLE, US"
		if len(fields) >= 5 {
			return fields[4], fields[1], nil
		}
	}
	return "", "", fmt.Errorf("no description for AS%d", number)
}

func (s *IPToASN) lookupTXT(ctx context.Context, name string, result *discovery.SourceResult) ([]string, error) {
	if err := s.admit(ctx); err != nil {
		return nil, err
	}
	records, err := s.resolver.LookupTXT(ctx, name)
	result.APICalls++
	return records, err
}

func (s *IPToASN) admit(ctx context.Context) error {
	if err := s.pace.Wait(ctx); err != nil {
		return err
	}
	return acquire(s.limiter, ipToASNService)
}

func cymruFields(record string) []string {
	parts := strings.Split(record, "|")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		fields = append(fields, strings.TrimSpace(p))
	}
	return fields
}
