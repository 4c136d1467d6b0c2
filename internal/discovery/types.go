package discovery

import (
	"sort"
	"strings"
	"time"
)

// AssetType classifies what kind of asset a candidate hypothesizes.
type AssetType string

const (
	AssetASN       AssetType = "asn"
	AssetDomain    AssetType = "domain"
	AssetSubdomain AssetType = "subdomain"
	AssetIP        AssetType = "ip"
	AssetCloud     AssetType = "cloud"
)

// ConfidenceLevel is the categorical bucket derived from a confidence value.
// It is always recomputed from the current value, never stored.
type ConfidenceLevel string

const (
	ConfidenceVeryLow  ConfidenceLevel = "very-low"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceVeryHigh ConfidenceLevel = "very-high"
)

// LevelForValue buckets a confidence value:
// <0.3 very-low, <0.5 low, <0.7 medium, <0.9 high, >=0.9 very-high.
func LevelForValue(v float64) ConfidenceLevel {
	switch {
	case v >= 0.9:
		return ConfidenceVeryHigh
	case v >= 0.7:
		return ConfidenceHigh
	case v >= 0.5:
		return ConfidenceMedium
	case v >= 0.3:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// ConfidenceScore is a 0..1 estimate with an append-only explainability trail.
// The value is re-clamped after every mutation; callers can only move it
// through Adjust/AdjustFloor/Scale, each of which records a reason.
type ConfidenceScore struct {
	value   float64
	reasons []string
}

// NewConfidence creates a score clamped to [0,1] with an initial reason.
func NewConfidence(value float64, reason string) *ConfidenceScore {
	s := &ConfidenceScore{value: clamp01(value)}
	if reason != "" {
		s.reasons = append(s.reasons, reason)
	}
	return s
}

// Value returns the current score in [0,1].
func (s *ConfidenceScore) Value() float64 { return s.value }

// Level returns the bucket for the current value.
func (s *ConfidenceScore) Level() ConfidenceLevel { return LevelForValue(s.value) }

// Reasons returns the accumulated justification trail, oldest first.
func (s *ConfidenceScore) Reasons() []string {
	return append([]string(nil), s.reasons...)
}

// Adjust adds delta (may be negative), re-clamps, and records the reason.
// Boosts and penalties combine additively in stage order.
func (s *ConfidenceScore) Adjust(delta float64, reason string) {
	s.value = clamp01(s.value + delta)
	s.reasons = append(s.reasons, reason)
}

// AdjustFloor adds delta but never drops the value below floor.
func (s *ConfidenceScore) AdjustFloor(delta, floor float64, reason string) {
	v := s.value + delta
	if v < floor {
		v = floor
	}
	s.value = clamp01(v)
	s.reasons = append(s.reasons, reason)
}

// Scale multiplies the value by factor, re-clamps, and records the reason.
func (s *ConfidenceScore) Scale(factor float64, reason string) {
	s.value = clamp01(s.value * factor)
	s.reasons = append(s.reasons, reason)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Metadata carries the core-defined candidate attributes. Source-specific
// annotations that have no typed home go into Extra.
type Metadata struct {
	Name         string
	Description  string
	Country      string
	Organization string // extracted from the description during enhancement
	QualityScore float64
	Scored       bool // whether QualityScore has been computed
	ResolvedIPs  []string
	Extra        map[string]string
}

// merge fills empty fields from another metadata set. Existing values win.
func (m *Metadata) merge(other Metadata) {
	if m.Name == "" {
		m.Name = other.Name
	}
	if m.Description == "" {
		m.Description = other.Description
	}
	if m.Country == "" {
		m.Country = other.Country
	}
	if len(m.ResolvedIPs) == 0 {
		m.ResolvedIPs = append([]string(nil), other.ResolvedIPs...)
	}
	for k, v := range other.Extra {
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		if _, ok := m.Extra[k]; !ok {
			m.Extra[k] = v
		}
	}
}

// Candidate is an unvalidated hypothesis produced by a source. The identifier
// and asset type are fixed at construction; filters and validators may only
// adjust confidence and metadata.
type Candidate struct {
	identifier   string
	assetType    AssetType
	Confidence   *ConfidenceScore
	sources      []string
	Metadata     Metadata
	discoveredAt time.Time
}

// NewCandidate creates a candidate attributed to one source, with the
// source's confidence prior.
func NewCandidate(identifier string, assetType AssetType, confidence float64, source, reason string) *Candidate {
	return &Candidate{
		identifier:   identifier,
		assetType:    assetType,
		Confidence:   NewConfidence(confidence, reason),
		sources:      []string{source},
		discoveredAt: time.Now(),
	}
}

// Identifier returns the candidate's identifier. Its semantics depend on the
// asset type: AS number, FQDN, IP or CIDR.
func (c *Candidate) Identifier() string { return c.identifier }

// Type returns the candidate's asset type.
func (c *Candidate) Type() AssetType { return c.assetType }

// DiscoveredAt returns when the candidate was first produced.
func (c *Candidate) DiscoveredAt() time.Time { return c.discoveredAt }

// Sources returns the names of the sources that corroborated this candidate.
func (c *Candidate) Sources() []string {
	return append([]string(nil), c.sources...)
}

// SourceCount returns how many distinct sources reported this identifier.
func (c *Candidate) SourceCount() int { return len(c.sources) }

// AddSource attaches a corroborating source. A source already present is
// ignored; a new one boosts confidence by the given amount.
func (c *Candidate) AddSource(name string, boost float64) bool {
	for _, s := range c.sources {
		if s == name {
			return false
		}
	}
	c.sources = append(c.sources, name)
	if boost > 0 {
		c.Confidence.Adjust(boost, "corroborated by "+name)
	}
	return true
}

// MergeMetadata fills empty metadata fields from another candidate's metadata.
func (c *Candidate) MergeMetadata(other Metadata) {
	c.Metadata.merge(other)
}

// Metrics tracks what happened during one discovery session.
type Metrics struct {
	CandidatesFound     int
	CandidatesFiltered  int
	CandidatesValidated int
	APICalls            int
	Errors              int
	Duration            time.Duration
}

// FilterRate returns the percentage of collected candidates removed by
// filtering.
func (m Metrics) FilterRate() float64 {
	if m.CandidatesFound == 0 {
		return 0
	}
	return float64(m.CandidatesFiltered) / float64(m.CandidatesFound) * 100
}

// ValidationRate returns the percentage of post-filter candidates that passed
// validation.
func (m Metrics) ValidationRate() float64 {
	remaining := m.CandidatesFound - m.CandidatesFiltered
	if remaining == 0 {
		return 0
	}
	return float64(m.CandidatesValidated) / float64(remaining) * 100
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
