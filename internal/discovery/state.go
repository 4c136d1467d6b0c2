package discovery

import (
	"sort"
	"sync"

	"github.com/scopehound/scopehound/internal/types"
)

// ScanState is the cross-session aggregate for one top-level scan. Sessions
// register their finalized assets here, and later sessions read it for
// cross-asset enrichment (domains' resolved IPs feeding ASN discovery).
// It is the only structure shared across concurrent sessions and is
// internally synchronized.
type ScanState struct {
	mu      sync.Mutex
	asns    map[int]types.ASN
	domains map[string]types.Domain
	ips     map[string]struct{}
	clouds  map[string]types.CloudService
}

// NewScanState creates an empty aggregate.
func NewScanState() *ScanState {
	return &ScanState{
		asns:    make(map[int]types.ASN),
		domains: make(map[string]types.Domain),
		ips:     make(map[string]struct{}),
		clouds:  make(map[string]types.CloudService),
	}
}

// AddASN registers an AS. Returns true if the number was new.
func (s *ScanState) AddASN(asn types.ASN) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.asns[asn.Number]; ok {
		return false
	}
	s.asns[asn.Number] = asn
	return true
}

// AddDomain registers a domain, merging subdomains into any existing entry.
// Returns true if the domain name was new.
func (s *ScanState) AddDomain(domain types.Domain) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.domains[domain.Name]; ok {
		existing.Merge(domain)
		s.domains[domain.Name] = existing
		return false
	}
	s.domains[domain.Name] = domain
	return true
}

// AddIPs accumulates resolved IPs for cross-asset enrichment.
func (s *ScanState) AddIPs(ips ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ip := range ips {
		if ip != "" {
			s.ips[ip] = struct{}{}
		}
	}
}

// AddCloudService registers a cloud service endpoint keyed by identifier.
func (s *ScanState) AddCloudService(svc types.CloudService) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clouds[svc.Identifier]; ok {
		return false
	}
	s.clouds[svc.Identifier] = svc
	return true
}

// ASNs returns the registered autonomous systems sorted by number.
func (s *ScanState) ASNs() []types.ASN {
	s.mu.Lock()
	defer s.mu.Unlock()
	asns := make([]types.ASN, 0, len(s.asns))
	for _, a := range s.asns {
		asns = append(asns, a)
	}
	sort.Slice(asns, func(i, j int) bool { return asns[i].Number < asns[j].Number })
	return asns
}

// Domains returns the registered domains sorted by name.
func (s *ScanState) Domains() []types.Domain {
	s.mu.Lock()
	defer s.mu.Unlock()
	domains := make([]types.Domain, 0, len(s.domains))
	for _, d := range s.domains {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i].Name < domains[j].Name })
	return domains
}

// IPs returns the accumulated resolved IPs, sorted.
func (s *ScanState) IPs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.ips)
}

// CloudServices returns the registered cloud services sorted by identifier.
func (s *ScanState) CloudServices() []types.CloudService {
	s.mu.Lock()
	defer s.mu.Unlock()
	clouds := make([]types.CloudService, 0, len(s.clouds))
	for _, c := range s.clouds {
		clouds = append(clouds, c)
	}
	sort.Slice(clouds, func(i, j int) bool { return clouds[i].Identifier < clouds[j].Identifier })
	return clouds
}

// Counts returns how many assets of each kind have been registered.
func (s *ScanState) Counts() (asns, domains, subdomains, ips int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.domains {
		subdomains += d.SubdomainCount()
	}
	return len(s.asns), len(s.domains), subdomains, len(s.ips)
}
