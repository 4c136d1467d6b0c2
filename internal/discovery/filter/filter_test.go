package filter

import (
	"strings"
	"testing"

	"github.com/scopehound/scopehound/internal/discovery"
)

func domainCandidate(identifier string, conf float64) *discovery.Candidate {
	return discovery.NewCandidate(identifier, discovery.AssetDomain, conf, "test-source", "seeded")
}

func asnCandidate(identifier string, conf float64) *discovery.Candidate {
	return discovery.NewCandidate(identifier, discovery.AssetASN, conf, "test-source", "seeded")
}

func TestQualityFilter(t *testing.T) {
	f := NewQuality()

	tests := []struct {
		identifier string
		wantDrop   bool
	}{
		{"api.example-corp.io", false},
		{"mail.acme.net", false},
		{"12345", true},
		{"deadbeefdeadbeefdeadbeefdeadbeef", true},
		{"printer.local", true},
		{"localhost", true},
		{"shop.example.com", true},
		{"example.com.attacker.net", false}, // documentation suffix only, not infix
		{"test.acme.net", true},
		{"acme.test", true},
		{"", true},
	}

	for _, tt := range tests {
		if got := f.ShouldDrop(domainCandidate(tt.identifier, 0.8)); got != tt.wantDrop {
			t.Errorf("Quality.ShouldDrop(%q) = %v, want %v", tt.identifier, got, tt.wantDrop)
		}
	}
}

func TestQualityFilterLengthBounds(t *testing.T) {
	f := NewQuality()

	if !f.ShouldDrop(domainCandidate("ab", 0.8)) {
		t.Error("identifier under 3 chars should be dropped")
	}
	if f.ShouldDrop(domainCandidate("a.b", 0.8)) {
		t.Error("3-char identifier should be kept")
	}

	long := strings.Repeat("a", 250) + ".com"
	if !f.ShouldDrop(domainCandidate(long, 0.8)) {
		t.Error("identifier over 253 chars should be dropped")
	}
}

func TestRelevanceFilterNoTermsKeepsEverything(t *testing.T) {
	f := NewRelevance(nil)
	for _, id := range []string{"anything.example.com", "12345", "spam.example.com"} {
		if f.ShouldDrop(domainCandidate(id, 0.0)) {
			t.Errorf("with no terms, %q must be kept", id)
		}
	}
}

func TestRelevanceFilter(t *testing.T) {
	f := NewRelevance([]string{"acme"})

	// Term match: full score, kept.
	if f.ShouldDrop(domainCandidate("portal.acme.com", 0.5)) {
		t.Error("term-matching candidate should be kept")
	}

	// No match but decent confidence: 0.3 * 0.5 = 0.15 >= 0.1, kept.
	if f.ShouldDrop(domainCandidate("unrelated.example.com", 0.5)) {
		t.Error("confidence contribution should keep this candidate")
	}

	// No match, negligible confidence: dropped.
	if !f.ShouldDrop(domainCandidate("unrelated.example.com", 0.1)) {
		t.Error("irrelevant low-confidence candidate should be dropped")
	}

	// Abuse and throwaway names are dropped regardless of score, even when
	// the name matches a term.
	abusive := []string{
		"phish-acme.example.com",
		"temporary.acme.com",
		"temp3-files.acme.com",
		"temp.acme.com",
	}
	for _, id := range abusive {
		if !f.ShouldDrop(domainCandidate(id, 0.9)) {
			t.Errorf("%q should be dropped outright", id)
		}
	}
}

func TestDuplicateFilter(t *testing.T) {
	f := NewDuplicate()

	if f.ShouldDrop(domainCandidate("API.Example.com", 0.8)) {
		t.Error("first sighting should be kept")
	}
	if !f.ShouldDrop(domainCandidate("api.example.com", 0.8)) {
		t.Error("case-insensitive repeat should be dropped")
	}

	f.Reset()
	if f.ShouldDrop(domainCandidate("api.example.com", 0.8)) {
		t.Error("reset should clear the seen-set")
	}
}

func TestSubdomainFilterAnnotates(t *testing.T) {
	f := NewSubdomain()

	boosted := domainCandidate("vpn.example.com", 0.5)
	if f.ShouldDrop(boosted) {
		t.Error("subdomain filter never drops")
	}
	if got := boosted.Confidence.Value(); got < 0.59 || got > 0.61 {
		t.Errorf("high-value prefix should boost to 0.6, got %v", got)
	}

	penalized := domainCandidate("cdn42.example.com", 0.5)
	f.ShouldDrop(penalized)
	if got := penalized.Confidence.Value(); got < 0.29 || got > 0.31 {
		t.Errorf("low-value prefix should penalize to 0.3, got %v", got)
	}

	floored := domainCandidate("cache.example.com", 0.15)
	f.ShouldDrop(floored)
	if got := floored.Confidence.Value(); got < 0.099 || got > 0.101 {
		t.Errorf("penalty floors at 0.1, got %v", got)
	}

	untouched := asnCandidate("AS15169", 0.5)
	f.ShouldDrop(untouched)
	if got := untouched.Confidence.Value(); got != 0.5 {
		t.Errorf("non-domain candidates pass through, got %v", got)
	}
}

func TestASNDuplicateFilterNormalizesForms(t *testing.T) {
	f := NewASNDuplicate()

	forms := []string{"AS15169", "as15169", "15169"}
	kept := 0
	for _, form := range forms {
		if !f.ShouldDrop(asnCandidate(form, 0.8)) {
			kept++
		}
	}
	if kept != 1 {
		t.Errorf("the three textual forms of AS15169 should survive exactly once, kept %d", kept)
	}

	f.Reset()
	if f.ShouldDrop(asnCandidate("AS15169", 0.8)) {
		t.Error("reset should clear the seen numbers")
	}
}

func TestASNRangeFilter(t *testing.T) {
	private := asnCandidate("AS64512", 0.8)
	if NewASNRange(true, false).ShouldDrop(private) {
		t.Error("allowPrivate=true keeps private assignments")
	}
	if !NewASNRange(false, false).ShouldDrop(asnCandidate("AS64512", 0.8)) {
		t.Error("allowPrivate=false drops private assignments")
	}

	if NewASNRange(true, false).ShouldDrop(asnCandidate("AS15169", 0.8)) {
		t.Error("public assignment should always be kept")
	}
	if !NewASNRange(true, false).ShouldDrop(asnCandidate("not-an-asn", 0.8)) {
		t.Error("unparseable identifier should be dropped")
	}

	demoted := asnCandidate("AS396982", 0.5)
	if NewASNRange(true, true).ShouldDrop(demoted) {
		t.Error("prefer16Bit demotes, never drops")
	}
	if got := demoted.Confidence.Value(); got < 0.39 || got > 0.41 {
		t.Errorf("32-bit demotion should scale to 0.4, got %v", got)
	}
}

func TestASNQualityFilter(t *testing.T) {
	f := NewASNQuality(0.3)

	good := asnCandidate("AS15169", 0.8)
	good.Metadata.Description = "Google LLC"
	if f.ShouldDrop(good) {
		t.Error("well-described AS should be kept")
	}

	if !f.ShouldDrop(asnCandidate("AS15169", 0.1)) {
		t.Error("below the confidence floor should be dropped")
	}
	if !f.ShouldDrop(asnCandidate("ASGOOGLE", 0.8)) {
		t.Error("malformed AS number should be dropped")
	}

	noise := asnCandidate("AS15169", 0.8)
	noise.Metadata.Description = "UNALLOCATED"
	if !f.ShouldDrop(noise) {
		t.Error("registry-noise description should be dropped")
	}

	bare := asnCandidate("AS15169", 0.8)
	if f.ShouldDrop(bare) {
		t.Error("missing description is not itself a drop reason")
	}
}

func TestASNRelevanceFilter(t *testing.T) {
	none := NewASNRelevance(nil, 0.2)
	if none.ShouldDrop(asnCandidate("AS15169", 0.8)) {
		t.Error("with no terms, everything is kept")
	}

	f := NewASNRelevance([]string{"acme"}, 0.2)

	match := asnCandidate("AS15169", 0.8)
	match.Metadata.Name = "ACME-NET"
	if f.ShouldDrop(match) {
		t.Error("name hit should be kept")
	}

	// 32-bit, no name, no description: bare 0.3 base still clears 0.2.
	if f.ShouldDrop(asnCandidate("AS396982", 0.8)) {
		t.Error("base relevance clears the default floor")
	}

	strict := NewASNRelevance([]string{"acme"}, 0.5)
	if !strict.ShouldDrop(asnCandidate("AS396982", 0.8)) {
		t.Error("raised floor should drop term-less candidates")
	}
}

func TestChainsStopAtFirstDropper(t *testing.T) {
	chain := NewDomainChain([]string{"acme"})

	drop, name := chain.ShouldDrop(domainCandidate("12345", 0.9))
	if !drop || name != "quality" {
		t.Errorf("junk should be dropped by the quality filter first, got (%v, %q)", drop, name)
	}

	drop, _ = chain.ShouldDrop(domainCandidate("vpn.acme.com", 0.7))
	if drop {
		t.Error("relevant well-formed candidate should survive the chain")
	}
}

func TestASNChainEndToEnd(t *testing.T) {
	chain := NewASNChain(DefaultASNChainConfig([]string{"google"}))

	first := asnCandidate("AS15169", 0.7)
	first.Metadata.Name = "GOOGLE"
	first.Metadata.Description = "Google LLC"
	if drop, name := chain.ShouldDrop(first); drop {
		t.Errorf("relevant AS should survive, dropped by %q", name)
	}

	// Same number in a different form is a duplicate.
	repeat := asnCandidate("15169", 0.7)
	repeat.Metadata.Name = "GOOGLE"
	repeat.Metadata.Description = "Google LLC"
	if drop, name := chain.ShouldDrop(repeat); !drop || name != "asn-duplicate" {
		t.Errorf("numeric repeat should be caught by dedup, got (%v, %q)", drop, name)
	}
}

func TestASNChainDemotesBeforeConfidenceCheck(t *testing.T) {
	cfg := DefaultASNChainConfig([]string{"acme"})
	cfg.MinConfidence = 0.5
	cfg.Prefer16Bit = true
	chain := NewASNChain(cfg)

	// 32-bit number at 0.6: the range stage scales it to 0.48, so the
	// quality stage's 0.5 floor must see the demoted value and drop it.
	c := asnCandidate("AS396982", 0.6)
	c.Metadata.Name = "ACME-NET"
	c.Metadata.Description = "Acme Corporation"
	if drop, name := chain.ShouldDrop(c); !drop || name != "asn-quality" {
		t.Errorf("demoted candidate should fall to the confidence floor, got (%v, %q)", drop, name)
	}
}
