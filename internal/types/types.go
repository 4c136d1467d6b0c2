// Package types defines the shared asset value types produced by discovery
// sessions and persisted by storage. Each asset has a natural key used for
// deduplication: ASN number, FQDN, CIDR.
package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ASN represents an autonomous system attributed to the target organization.
// The natural key is the AS number.
type ASN struct {
	Number      int
	Name        string
	Description string
	Country     string
	DataSource  string
}

// Key returns the canonical AS identifier (e.g. "AS15169").
func (a ASN) Key() string {
	return fmt.Sprintf("AS%d", a.Number)
}

func (a ASN) String() string {
	if a.Name == "" {
		return a.Key()
	}
	return fmt.Sprintf("%s %s", a.Key(), a.Name)
}

// Subdomain is a single discovered FQDN under a base domain.
type Subdomain struct {
	FQDN        string
	Status      string // "active", "unresolved", "discovered"
	ResolvedIPs []string
	DataSource  string
	LastChecked time.Time
}

func (s Subdomain) String() string {
	if len(s.ResolvedIPs) == 0 {
		return fmt.Sprintf("%s [%s]", s.FQDN, s.Status)
	}
	ips := append([]string(nil), s.ResolvedIPs...)
	sort.Strings(ips)
	return fmt.Sprintf("%s [%s] (%s)", s.FQDN, s.Status, strings.Join(ips, ", "))
}

// Domain is a base domain with the subdomains discovered under it.
// The natural key is the domain name.
type Domain struct {
	Name       string
	Registrar  string
	DataSource string
	subdomains map[string]Subdomain
}

// AddSubdomain attaches a subdomain, replacing any prior entry for the same
// FQDN. Returns true if the FQDN was not present before.
func (d *Domain) AddSubdomain(sub Subdomain) bool {
	if d.subdomains == nil {
		d.subdomains = make(map[string]Subdomain)
	}
	_, existed := d.subdomains[sub.FQDN]
	d.subdomains[sub.FQDN] = sub
	return !existed
}

// Subdomains returns the attached subdomains sorted by FQDN.
func (d *Domain) Subdomains() []Subdomain {
	subs := make([]Subdomain, 0, len(d.subdomains))
	for _, s := range d.subdomains {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].FQDN < subs[j].FQDN })
	return subs
}

// SubdomainCount returns the number of attached subdomains.
func (d *Domain) SubdomainCount() int {
	return len(d.subdomains)
}

// Merge folds another domain's subdomains into this one.
func (d *Domain) Merge(other Domain) {
	for _, sub := range other.Subdomains() {
		d.AddSubdomain(sub)
	}
	if d.DataSource == "" {
		d.DataSource = other.DataSource
	}
}

// IPRange is a routed prefix attributed to the organization.
// The natural key is the CIDR.
type IPRange struct {
	CIDR       string
	Version    int // 4 or 6
	ASNumber   int
	Country    string
	DataSource string
}

func (r IPRange) String() string {
	if r.ASNumber == 0 {
		return r.CIDR
	}
	return fmt.Sprintf("%s (AS%d)", r.CIDR, r.ASNumber)
}

// CloudService is an identifier (hostname, bucket, endpoint) hosted on a
// recognized cloud provider.
type CloudService struct {
	Provider   string
	Identifier string
	DataSource string
}

func (c CloudService) String() string {
	return fmt.Sprintf("%s (%s)", c.Identifier, c.Provider)
}
