package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
)

type stubSource struct {
	name  string
	items []discovery.Item
	conf  float64
	err   error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Discover(_ context.Context, _ discovery.Query) (*discovery.SourceResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &discovery.SourceResult{
		SourceName: s.name,
		Confidence: s.conf,
		Items:      append([]discovery.Item(nil), s.items...),
		APICalls:   1,
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
	return nil, errors.New("not a DNS TXT consumer")
}

func fqdnItems(fqdns ...string) []discovery.Item {
	items := make([]discovery.Item, 0, len(fqdns))
	for _, f := range fqdns {
		items = append(items, discovery.Item{Identifier: f})
	}
	return items
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

func TestDiscoverGroupsUnderParent(t *testing.T) {
	src := &stubSource{name: "crt.sh", conf: 0.5, items: fqdnItems(
		"www.acme-corp.io",
		"api.acme-corp.io",
		"mail.acme-corp.io",
	)}
	resolver := &fakeResolver{hosts: map[string][]string{
		"www.acme-corp.io":  {"198.51.100.10"},
		"mail.acme-corp.io": {"198.51.100.11", "198.51.100.12"},
	}}

	d := New(nil, nil, resolver, src)
	state := discovery.NewScanState()

	result, err := d.Discover(context.Background(), testContext(t), state, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Assets) != 1 {
		t.Fatalf("all subdomains share one parent, got %d assets", len(result.Assets))
	}
	dom := result.Assets[0]
	if dom.Name != "acme-corp.io" {
		t.Errorf("parent = %q, want acme-corp.io", dom.Name)
	}
	if dom.SubdomainCount() != 3 {
		t.Fatalf("subdomains = %d, want 3", dom.SubdomainCount())
	}

	statuses := make(map[string]string)
	for _, sub := range dom.Subdomains() {
		statuses[sub.FQDN] = sub.Status
	}
	want := map[string]string{
		"www.acme-corp.io":  "active",
		"api.acme-corp.io":  "unresolved",
		"mail.acme-corp.io": "active",
	}
	for fqdn, status := range want {
		if statuses[fqdn] != status {
			t.Errorf("%s status = %q, want %q", fqdn, statuses[fqdn], status)
		}
	}

	_, domains, subdomains, ips := state.Counts()
	if domains != 1 || subdomains != 3 {
		t.Errorf("state domains/subdomains = %d/%d, want 1/3", domains, subdomains)
	}
	if ips != 3 {
		t.Errorf("state should hold the 3 resolved addresses, got %d", ips)
	}
}

func TestDiscoverDropsUnresolvedLowConfidence(t *testing.T) {
	// A name with no recognizable service prefix gets no annotation boost;
	// after the resolution penalty it falls below the threshold.
	src := &stubSource{name: "crt.sh", conf: 0.5, items: fqdnItems(
		"www.acme-corp.io",
		"zzq7.acme-corp.io",
	)}
	resolver := &fakeResolver{hosts: map[string][]string{
		"www.acme-corp.io": {"198.51.100.10"},
	}}

	d := New(nil, nil, resolver, src)
	result, err := d.Discover(context.Background(), testContext(t), discovery.NewScanState(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Assets) != 1 || result.Assets[0].SubdomainCount() != 1 {
		t.Fatalf("unresolved low-confidence name should drop out, got %v", result.Assets)
	}
	if subs := result.Assets[0].Subdomains(); subs[0].FQDN != "www.acme-corp.io" {
		t.Errorf("survivor = %q", subs[0].FQDN)
	}
}

func TestDiscoverCorroborationAcrossSources(t *testing.T) {
	ct := &stubSource{name: "crt.sh", conf: 0.8, items: fqdnItems("www.acme-corp.io")}
	pd := &stubSource{name: "hackertarget", conf: 0.7, items: fqdnItems("WWW.acme-corp.io")}
	resolver := &fakeResolver{hosts: map[string][]string{
		"www.acme-corp.io": {"198.51.100.10"},
	}}

	d := New(nil, nil, resolver, ct, pd)
	result, err := d.Discover(context.Background(), testContext(t), discovery.NewScanState(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("case-insensitive corroboration should merge, got %d candidates", len(result.Candidates))
	}
	if got := result.Candidates[0].SourceCount(); got != 2 {
		t.Errorf("source count = %d, want 2", got)
	}
	if len(result.Assets) != 1 {
		t.Fatalf("got %d assets", len(result.Assets))
	}
	subs := result.Assets[0].Subdomains()
	if subs[0].DataSource != "crt.sh,hackertarget" {
		t.Errorf("data source = %q, want both sources", subs[0].DataSource)
	}
}

func TestDiscoverRecordsCloudServices(t *testing.T) {
	src := &stubSource{name: "crt.sh", conf: 0.8, items: fqdnItems(
		"www.acme-corp.io",
		"acme.azurewebsites.net",
	)}
	resolver := &fakeResolver{hosts: map[string][]string{
		"www.acme-corp.io":       {"198.51.100.10"},
		"acme.azurewebsites.net": {"198.51.100.20"},
	}}

	d := New(nil, nil, resolver, src)
	state := discovery.NewScanState()
	if _, err := d.Discover(context.Background(), testContext(t), state, nil); err != nil {
		t.Fatal(err)
	}

	clouds := state.CloudServices()
	if len(clouds) != 1 {
		t.Fatalf("cloud services = %v, want 1", clouds)
	}
	if clouds[0].Provider != "azure" || clouds[0].Identifier != "acme.azurewebsites.net" {
		t.Errorf("cloud service = %+v", clouds[0])
	}
}

func TestEnhanceRecordsDNSQuota(t *testing.T) {
	limiter := ratelimit.New()
	resolver := &fakeResolver{hosts: map[string][]string{
		"www.acme-corp.io": {"198.51.100.10"},
	}}
	d := New(nil, limiter, resolver)

	c := discovery.NewCandidate("www.acme-corp.io", discovery.AssetDomain, 0.8, "crt.sh", "seeded")
	if err := d.enhance(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	perMinute, _ := limiter.RemainingQuota("dns")
	if perMinute != 119 {
		t.Errorf("one lookup should take one dns slot, remaining = %d", perMinute)
	}
}

func TestEnhanceWaitsOutSpentDNSQuota(t *testing.T) {
	limiter := ratelimit.New()
	resolver := &fakeResolver{hosts: map[string][]string{
		"www.acme-corp.io": {"198.51.100.10"},
	}}
	d := New(nil, limiter, resolver)
	limiter.SetLimit("dns", ratelimit.Limit{PerMinute: 1, PerHour: 1})
	limiter.Record("dns")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A spent window defers the lookup instead of failing it; only the
	// context bounds the wait.
	c := discovery.NewCandidate("www.acme-corp.io", discovery.AssetDomain, 0.8, "crt.sh", "seeded")
	if err := d.enhance(ctx, c); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled while waiting for the window, got %v", err)
	}
	if got := c.Confidence.Value(); got != 0.8 {
		t.Errorf("no lookup happened, confidence should stay 0.8, got %v", got)
	}
}

func TestDiscoverWithoutResolver(t *testing.T) {
	src := &stubSource{name: "crt.sh", conf: 0.8, items: fqdnItems("www.acme-corp.io")}

	d := New(nil, nil, nil, src)
	result, err := d.Discover(context.Background(), testContext(t), discovery.NewScanState(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Assets) != 1 {
		t.Fatalf("got %d assets", len(result.Assets))
	}
	subs := result.Assets[0].Subdomains()
	if subs[0].Status != "discovered" {
		t.Errorf("without resolution the status stays %q, got %q", "discovered", subs[0].Status)
	}
}
