package filter

import (
	"regexp"
	"strings"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/validate"
)

// ASNQuality drops AS candidates with malformed numbers or registry-noise
// descriptions, and candidates already below the confidence floor.
type ASNQuality struct {
	minConfidence float64
	desc          *validate.DescriptionValidator
	lowQuality    []*regexp.Regexp
	highQuality   []*regexp.Regexp
}

// NewASNQuality builds the filter with the given confidence floor.
func NewASNQuality(minConfidence float64) *ASNQuality {
	return &ASNQuality{
		minConfidence: minConfidence,
		desc:          validate.NewDescriptionValidator(),
		lowQuality: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^UNALLOCATED`),
			regexp.MustCompile(`(?i)^RESERVED`),
			regexp.MustCompile(`(?i)^PRIVATE`),
			regexp.MustCompile(`(?i)^RFC\d+`),
			regexp.MustCompile(`(?i)^TEST`),
			regexp.MustCompile(`(?i)^DOCUMENTATION`),
		},
		highQuality: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(CORPORATION|CORP|COMPANY|ENTERPRISES?)\b`),
			regexp.MustCompile(`(?i)\b(UNIVERSITY|COLLEGE|RESEARCH)\b`),
			regexp.MustCompile(`(?i)\b(NETWORKS?|TELECOMMUNICATIONS?|TELECOM|INTERNET|ISP)\b`),
			regexp.MustCompile(`(?i)\b(GOVERNMENT|GOV|FEDERAL|STATE)\b`),
			regexp.MustCompile(`(?i)\b(CLOUD|HOSTING|DATACENTER)\b`),
		},
	}
}

func (f *ASNQuality) Name() string { return "asn-quality" }

// ShouldDrop ignores non-ASN candidates.
func (f *ASNQuality) ShouldDrop(c *discovery.Candidate) bool {
	if c.Type() != discovery.AssetASN {
		return false
	}
	if c.Confidence.Value() < f.minConfidence {
		return true
	}
	if !validate.ValidASN(c.Identifier()) {
		return true
	}

	description := c.Metadata.Description
	if description == "" {
		description = c.Metadata.Name
	}
	if description != "" && !f.qualityDescription(description) {
		return true
	}
	return false
}

func (f *ASNQuality) qualityDescription(description string) bool {
	desc := strings.TrimSpace(description)
	if len(desc) < 3 {
		return false
	}
	for _, p := range f.lowQuality {
		if p.MatchString(desc) {
			return false
		}
	}
	for _, p := range f.highQuality {
		if p.MatchString(desc) {
			return true
		}
	}
	return f.desc.Valid(desc)
}

// ASNRelevance drops AS candidates whose registry attributes show no
// connection to the target terms. With no terms configured it keeps
// everything.
type ASNRelevance struct {
	terms        []string
	minRelevance float64
	scorer       *validate.ASNRelevance
}

// NewASNRelevance builds the filter over the session's search terms.
func NewASNRelevance(terms []string, minRelevance float64) *ASNRelevance {
	return &ASNRelevance{
		terms:        terms,
		minRelevance: minRelevance,
		scorer:       validate.NewASNRelevance(terms),
	}
}

func (f *ASNRelevance) Name() string { return "asn-relevance" }

// ShouldDrop scores name and description against the target terms and drops
// below the relevance floor.
func (f *ASNRelevance) ShouldDrop(c *discovery.Candidate) bool {
	if c.Type() != discovery.AssetASN {
		return false
	}
	if len(f.terms) == 0 {
		return false
	}

	number, _ := validate.NormalizeASN(c.Identifier())
	score := f.scorer.Score(number, c.Metadata.Name, c.Metadata.Description)
	return score < f.minRelevance
}

// ASNRange drops or demotes AS candidates by number range.
type ASNRange struct {
	allowPrivate bool
	prefer16Bit  bool
}

// NewASNRange configures range handling. With prefer16Bit set, 32-bit
// numbers survive but lose 20% confidence.
func NewASNRange(allowPrivate, prefer16Bit bool) *ASNRange {
	return &ASNRange{allowPrivate: allowPrivate, prefer16Bit: prefer16Bit}
}

func (f *ASNRange) Name() string { return "asn-range" }

// ShouldDrop rejects unparseable numbers and, when configured, private-range
// assignments.
func (f *ASNRange) ShouldDrop(c *discovery.Candidate) bool {
	if c.Type() != discovery.AssetASN {
		return false
	}
	number, ok := extractNumber(c.Identifier())
	if !ok {
		return true
	}
	if !f.allowPrivate && validate.IsPrivateASN(number) {
		return true
	}
	if f.prefer16Bit && !validate.Is16BitASN(number) {
		c.Confidence.Scale(0.8, "32-bit AS number")
	}
	return false
}

// ASNDuplicate drops repeats of the same AS number regardless of the textual
// form it arrived in ("AS15169" vs "15169"). Stateful; Reset between
// sessions.
type ASNDuplicate struct {
	seen map[int]struct{}
}

// NewASNDuplicate creates an empty seen-set.
func NewASNDuplicate() *ASNDuplicate {
	return &ASNDuplicate{seen: make(map[int]struct{})}
}

func (f *ASNDuplicate) Name() string { return "asn-duplicate" }

// ShouldDrop records the number and votes drop on any repeat. Unparseable
// identifiers pass through for the range filter to reject.
func (f *ASNDuplicate) ShouldDrop(c *discovery.Candidate) bool {
	if c.Type() != discovery.AssetASN {
		return false
	}
	number, ok := extractNumber(c.Identifier())
	if !ok {
		return false
	}
	if _, dup := f.seen[number]; dup {
		return true
	}
	f.seen[number] = struct{}{}
	return false
}

// Reset clears the seen-set for a new session.
func (f *ASNDuplicate) Reset() {
	f.seen = make(map[int]struct{})
}

var numberForm = regexp.MustCompile(`(?i)^AS(\d+)$|^(\d+)$`)

// extractNumber parses either textual AS form without the reserved-range
// checks ValidASN applies; range policy belongs to the filters.
func extractNumber(identifier string) (int, bool) {
	m := numberForm.FindStringSubmatch(strings.TrimSpace(identifier))
	if m == nil {
		return 0, false
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
		if n > 4294967295 {
			return 0, false
		}
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}
