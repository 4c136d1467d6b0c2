package discovery

import (
	"strings"
	"testing"
)

func TestConfidenceClamping(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *ConfidenceScore)
		initial float64
		want    float64
	}{
		{"adjust over one", func(s *ConfidenceScore) { s.Adjust(0.5, "boost") }, 0.8, 1.0},
		{"adjust under zero", func(s *ConfidenceScore) { s.Adjust(-0.9, "penalty") }, 0.3, 0.0},
		{"floor respected", func(s *ConfidenceScore) { s.AdjustFloor(-0.9, 0.1, "penalty") }, 0.3, 0.1},
		{"floor not raised past delta", func(s *ConfidenceScore) { s.AdjustFloor(-0.1, 0.1, "penalty") }, 0.5, 0.4},
		{"scale clamps", func(s *ConfidenceScore) { s.Scale(5, "scale") }, 0.5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewConfidence(tt.initial, "start")
			tt.mutate(s)
			if got := s.Value(); !approx(got, tt.want) {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
			if v := s.Value(); v < 0 || v > 1 {
				t.Errorf("value %v escaped [0,1]", v)
			}
		})
	}

	if got := NewConfidence(1.7, "").Value(); got != 1.0 {
		t.Errorf("constructor should clamp, got %v", got)
	}
	if got := NewConfidence(-0.2, "").Value(); got != 0.0 {
		t.Errorf("constructor should clamp, got %v", got)
	}
}

func approx(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}

func TestConfidenceLevels(t *testing.T) {
	tests := []struct {
		value float64
		want  ConfidenceLevel
	}{
		{0.0, ConfidenceVeryLow},
		{0.29, ConfidenceVeryLow},
		{0.3, ConfidenceLow},
		{0.49, ConfidenceLow},
		{0.5, ConfidenceMedium},
		{0.69, ConfidenceMedium},
		{0.7, ConfidenceHigh},
		{0.89, ConfidenceHigh},
		{0.9, ConfidenceVeryHigh},
		{1.0, ConfidenceVeryHigh},
	}
	for _, tt := range tests {
		if got := LevelForValue(tt.value); got != tt.want {
			t.Errorf("LevelForValue(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestConfidenceReasonsAppendOnly(t *testing.T) {
	s := NewConfidence(0.5, "initial prior")
	s.Adjust(0.1, "corroborated")
	s.AdjustFloor(-0.3, 0.1, "penalized")

	reasons := s.Reasons()
	if len(reasons) != 3 {
		t.Fatalf("want 3 reasons, got %d: %v", len(reasons), reasons)
	}
	if reasons[0] != "initial prior" || reasons[2] != "penalized" {
		t.Errorf("reasons out of order: %v", reasons)
	}
}

func TestCandidateAddSource(t *testing.T) {
	c := NewCandidate("AS15169", AssetASN, 0.7, "bgp.he.net", "discovered")

	if !c.AddSource("ip-to-asn", 0.1) {
		t.Error("new source should be added")
	}
	if c.AddSource("ip-to-asn", 0.1) {
		t.Error("repeat source should be ignored")
	}
	if got := c.SourceCount(); got != 2 {
		t.Errorf("source count = %d, want 2", got)
	}
	if got := c.Confidence.Value(); got < 0.79 || got > 0.81 {
		t.Errorf("corroboration should boost once, got %v", got)
	}

	found := false
	for _, reason := range c.Confidence.Reasons() {
		if strings.Contains(reason, "corroborated by ip-to-asn") {
			found = true
		}
	}
	if !found {
		t.Error("corroboration reason missing from trail")
	}
}

func TestMetadataMerge(t *testing.T) {
	c := NewCandidate("api.example.com", AssetDomain, 0.8, "crt.sh", "discovered")
	c.Metadata.Name = "existing"

	c.MergeMetadata(Metadata{
		Name:        "incoming",
		Country:     "US",
		ResolvedIPs: []string{"192.0.2.1"},
		Extra:       map[string]string{"k": "v"},
	})

	if c.Metadata.Name != "existing" {
		t.Error("existing values must win")
	}
	if c.Metadata.Country != "US" {
		t.Error("empty fields should be filled")
	}
	if len(c.Metadata.ResolvedIPs) != 1 {
		t.Error("resolved IPs should be copied")
	}
	if c.Metadata.Extra["k"] != "v" {
		t.Error("extra entries should be copied")
	}
}

func TestMetricsRates(t *testing.T) {
	m := Metrics{CandidatesFound: 10, CandidatesFiltered: 4, CandidatesValidated: 3}
	if got := m.FilterRate(); got != 40 {
		t.Errorf("FilterRate = %v, want 40", got)
	}
	if got := m.ValidationRate(); got != 50 {
		t.Errorf("ValidationRate = %v, want 50", got)
	}

	var empty Metrics
	if empty.FilterRate() != 0 || empty.ValidationRate() != 0 {
		t.Error("empty metrics should rate 0")
	}
}
