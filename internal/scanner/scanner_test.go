package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/asn"
	"github.com/scopehound/scopehound/internal/discovery/domain"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
	"github.com/scopehound/scopehound/internal/storage"
	"github.com/scopehound/scopehound/internal/types"
)

type stubSource struct {
	name  string
	items []discovery.Item
	conf  float64
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Discover(_ context.Context, _ discovery.Query) (*discovery.SourceResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &discovery.SourceResult{
		SourceName: s.name,
		Confidence: s.conf,
		Items:      append([]discovery.Item(nil), s.items...),
	}, nil
}

type fakeResolver struct {
	hosts map[string][]string
}

func (r *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	addrs, ok := r.hosts[host]
	if !ok {
		return nil, fmt.Errorf("no such host %s", host)
	}
	return addrs, nil
}

func (r *fakeResolver) LookupTXT(_ context.Context, _ string) ([]string, error) {
	return nil, errors.New("unexpected TXT lookup")
}

// memoryStore records saves without a database behind it.
type memoryStore struct {
	mu      sync.Mutex
	saveErr error
	scans   []storage.Scan
	asns    map[string][]types.ASN
	domains map[string][]types.Domain
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		asns:    make(map[string][]types.ASN),
		domains: make(map[string][]types.Domain),
	}
}

func (m *memoryStore) SaveScan(_ context.Context, scan storage.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.scans = append(m.scans, scan)
	return nil
}

func (m *memoryStore) SaveASNs(_ context.Context, scanID string, asns []types.ASN) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asns[scanID] = asns
	return nil
}

func (m *memoryStore) SaveDomains(_ context.Context, scanID string, domains []types.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains[scanID] = domains
	return nil
}

func (m *memoryStore) Scans(_ context.Context) ([]storage.Scan, error) {
	return m.scans, nil
}

func (m *memoryStore) Scan(_ context.Context, id string) (*storage.Scan, error) {
	for i := range m.scans {
		if m.scans[i].ID == id {
			return &m.scans[i], nil
		}
	}
	return nil, nil
}

func (m *memoryStore) ASNs(_ context.Context, scanID string) ([]types.ASN, error) {
	return m.asns[scanID], nil
}

func (m *memoryStore) Domains(_ context.Context, scanID string) ([]types.Domain, error) {
	return m.domains[scanID], nil
}

func (m *memoryStore) Close() error { return nil }

func testScanner(store storage.Storage, domainSrc, asnSrc discovery.Source) *Scanner {
	config := discovery.DefaultConfig()
	limiter := ratelimit.New()
	resolver := &fakeResolver{hosts: map[string][]string{
		"www.acme-corp.io": {"198.51.100.10"},
	}}
	domains := domain.New(config, limiter, resolver, domainSrc)
	asns := asn.New(config, limiter, asnSrc)
	return NewWithSessions(config, store, domains, asns)
}

func testContext(t *testing.T) *discovery.Context {
	t.Helper()
	dctx := discovery.NewContext("Acme Corp")
	if !dctx.AddSearchTerm("acme") {
		t.Fatal("search term rejected")
	}
	if !dctx.AddBaseDomain("acme-corp.io") {
		t.Fatal("base domain rejected")
	}
	return dctx
}

func acmeSources() (*stubSource, *stubSource) {
	domainSrc := &stubSource{name: "crt.sh", conf: 0.8, items: []discovery.Item{
		{Identifier: "www.acme-corp.io"},
	}}
	asnSrc := &stubSource{name: "bgp.he.net", conf: 0.7, items: []discovery.Item{
		{Identifier: "AS15169", Metadata: discovery.Metadata{
			Name:        "ACME-NET",
			Description: "Acme Corporation",
		}},
	}}
	return domainSrc, asnSrc
}

func TestRunStopsWhenNothingNew(t *testing.T) {
	domainSrc, asnSrc := acmeSources()
	s := testScanner(nil, domainSrc, asnSrc)

	summary, err := s.Run(context.Background(), testContext(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	// Iteration 1 discovers everything; iteration 2 adds nothing and stops
	// the loop before iteration 3.
	if summary.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", summary.Iterations)
	}
	if domainSrc.calls != 2 || asnSrc.calls != 2 {
		t.Errorf("source calls = %d/%d, want 2/2", domainSrc.calls, asnSrc.calls)
	}
	if len(summary.ASNs) != 1 || summary.ASNs[0].Number != 15169 {
		t.Errorf("ASNs = %v", summary.ASNs)
	}
	if len(summary.Domains) != 1 || summary.Domains[0].Name != "acme-corp.io" {
		t.Errorf("domains = %v", summary.Domains)
	}
	if summary.ScanID == "" || summary.Target != "Acme Corp" {
		t.Errorf("summary header incomplete: %+v", summary)
	}
}

func TestRunHonorsContextIterationCap(t *testing.T) {
	domainSrc, asnSrc := acmeSources()
	s := testScanner(nil, domainSrc, asnSrc)

	dctx := testContext(t)
	dctx.MaxIterations = 1

	summary, err := s.Run(context.Background(), dctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", summary.Iterations)
	}
}

func TestRunPersistsResults(t *testing.T) {
	store := newMemoryStore()
	domainSrc, asnSrc := acmeSources()
	s := testScanner(store, domainSrc, asnSrc)

	summary, err := s.Run(context.Background(), testContext(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(store.scans) != 1 {
		t.Fatalf("saved scans = %d, want 1", len(store.scans))
	}
	saved := store.scans[0]
	if saved.ID != summary.ScanID {
		t.Errorf("scan ID mismatch: %q vs %q", saved.ID, summary.ScanID)
	}
	if saved.ASNCount != 1 || saved.DomainCount != 1 || saved.SubdomainCount != 1 {
		t.Errorf("counts = %+v", saved)
	}
	if len(store.asns[summary.ScanID]) != 1 || len(store.domains[summary.ScanID]) != 1 {
		t.Error("assets not persisted under the scan ID")
	}
}

func TestRunPersistenceFailureIsWarning(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errors.New("disk full")
	domainSrc, asnSrc := acmeSources()
	s := testScanner(store, domainSrc, asnSrc)

	summary, err := s.Run(context.Background(), testContext(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range summary.Warnings {
		if w == "persisting scan: disk full" {
			found = true
		}
	}
	if !found {
		t.Errorf("persistence failure should be a warning, got %v", summary.Warnings)
	}
}

func TestRunSourceFailureDoesNotAbort(t *testing.T) {
	domainSrc, _ := acmeSources()
	asnSrc := &stubSource{name: "bgp.he.net", err: errors.New("scrape blocked")}
	s := testScanner(nil, domainSrc, asnSrc)

	summary, err := s.Run(context.Background(), testContext(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Domains) != 1 {
		t.Errorf("domain results should survive the AS source failure: %v", summary.Domains)
	}
	if len(summary.Warnings) == 0 {
		t.Error("source failure should surface as a warning")
	}
}
